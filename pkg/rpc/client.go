package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// Client calls the hub's agent service over a gRPC connection
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for the hub at address. The connection is
// established lazily; use WaitReady to block until it is usable.
func Dial(address string) (*Client, error) {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", address, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// WaitReady blocks until the connection is ready or ctx is done
func (c *Client) WaitReady(ctx context.Context) error {
	c.conn.Connect()
	for {
		state := c.conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if !c.conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("hub not reachable (last state %s): %w", state, ctx.Err())
		}
	}
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	out := new(models.RegisterResponse)
	if err := c.invoke(ctx, RegisterMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
	out := new(models.HeartbeatResponse)
	if err := c.invoke(ctx, HeartbeatMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReportScanResult(ctx context.Context, req *models.ReportScanResultRequest) (*models.ReportScanResultResponse, error) {
	out := new(models.ReportScanResultResponse)
	if err := c.invoke(ctx, ReportScanResultMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName))
}
