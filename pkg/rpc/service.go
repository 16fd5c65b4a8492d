package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

const (
	ServiceName = "scanfleet.AgentService"

	RegisterMethod         = "/" + ServiceName + "/Register"
	HeartbeatMethod        = "/" + ServiceName + "/Heartbeat"
	ReportScanResultMethod = "/" + ServiceName + "/ReportScanResult"
)

// AgentServiceServer is implemented by the hub's coordination service
type AgentServiceServer interface {
	Register(context.Context, *models.RegisterRequest) (*models.RegisterResponse, error)
	Heartbeat(context.Context, *models.HeartbeatRequest) (*models.HeartbeatResponse, error)
	ReportScanResult(context.Context, *models.ReportScanResultRequest) (*models.ReportScanResultResponse, error)
}

// AgentServiceDesc describes the agent service to grpc.Server
var AgentServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AgentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: registerHandler},
		{MethodName: "Heartbeat", Handler: heartbeatHandler},
		{MethodName: "ReportScanResult", Handler: reportScanResultHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scanfleet/agent_service",
}

// RegisterAgentServiceServer attaches srv to s
func RegisterAgentServiceServer(s grpc.ServiceRegistrar, srv AgentServiceServer) {
	s.RegisterService(&AgentServiceDesc, srv)
}

func registerHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.RegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RegisterMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).Register(ctx, req.(*models.RegisterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func heartbeatHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.HeartbeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).Heartbeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HeartbeatMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).Heartbeat(ctx, req.(*models.HeartbeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func reportScanResultHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.ReportScanResultRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AgentServiceServer).ReportScanResult(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ReportScanResultMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AgentServiceServer).ReportScanResult(ctx, req.(*models.ReportScanResultRequest))
	}
	return interceptor(ctx, in, info, handler)
}
