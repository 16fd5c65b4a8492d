// Package coordination implements the agent-facing gRPC service of the hub.
package coordination

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/doniyusdinar/scanfleet/hub/internal/events"
	"github.com/doniyusdinar/scanfleet/hub/internal/history"
	"github.com/doniyusdinar/scanfleet/hub/internal/registry"
	"github.com/doniyusdinar/scanfleet/pkg/logger"
	"github.com/doniyusdinar/scanfleet/pkg/models"
	"github.com/doniyusdinar/scanfleet/pkg/rpc"
)

// Service handles register, heartbeat and scan-report calls from agents
type Service struct {
	registry  *registry.Registry
	history   history.Store
	publisher events.Publisher
}

var _ rpc.AgentServiceServer = (*Service)(nil)

func NewService(reg *registry.Registry, store history.Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		registry:  reg,
		history:   store,
		publisher: publisher,
	}
}

// Register allocates an id for the agent and records the registration
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	agentID := s.registry.Register(req.Hostname, req.Version)
	now := s.registry.Now()

	logger.Log.WithFields(logrus.Fields{
		"agent_id": agentID,
		"hostname": req.Hostname,
		"version":  req.Version,
	}).Info("Agent registered")

	s.appendLog(ctx, models.LevelInfo, fmt.Sprintf("Agent registered: %s", req.Hostname), now)
	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.AgentRegistered,
		AgentID:   agentID,
		Message:   req.Hostname,
		Timestamp: now,
	})

	return &models.RegisterResponse{AgentID: agentID}, nil
}

// Heartbeat records liveness and hands over every queued command.
// Unknown agents are acknowledged with no commands and leave the registry untouched.
func (s *Service) Heartbeat(_ context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
	cmds, ok := s.registry.Heartbeat(req.AgentID, req.Status)
	if !ok {
		logger.Log.WithField("agent_id", req.AgentID).Warn("Received heartbeat from unknown agent")
		return &models.HeartbeatResponse{Acknowledged: true, PendingCommands: []models.Command{}}, nil
	}

	if len(cmds) > 0 {
		logger.Log.WithField("agent_id", req.AgentID).Infof("Delivering %d command(s)", len(cmds))
	} else {
		logger.Log.WithField("agent_id", req.AgentID).Debugf("Heartbeat: %s", req.Status)
	}

	return &models.HeartbeatResponse{Acknowledged: true, PendingCommands: cmds}, nil
}

// ReportScanResult records the outcome of a scan. It always acknowledges and
// does not check that the command was issued to this agent.
func (s *Service) ReportScanResult(ctx context.Context, req *models.ReportScanResultRequest) (*models.ReportScanResultResponse, error) {
	infected := uint32(0)
	if req.InfectedFiles > 0 {
		infected = uint32(req.InfectedFiles)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"agent_id":   req.AgentID,
		"command_id": req.CommandID,
	})
	log.Infof("Received scan result: success=%t, infected=%d", req.Success, infected)
	if req.Details != "" {
		log.Debugf("Details: %s", req.Details)
	}

	if !s.registry.RecordScanResult(req.AgentID, infected) {
		log.Warn("Scan result from unknown agent")
	}
	now := s.registry.Now()

	status, level := models.ScanCompleted, models.LevelInfo
	if !req.Success {
		status, level = models.ScanFailed, models.LevelError
	}

	if err := s.history.AppendScan(ctx, models.ScanRecord{
		ID:           req.CommandID,
		AgentID:      req.AgentID,
		Status:       status,
		ThreatsFound: infected,
		Timestamp:    now,
		Details:      req.Details,
	}); err != nil {
		log.Errorf("Failed to record scan: %v", err)
	}

	message := fmt.Sprintf("Scan finished for %s. Threats: %d", req.AgentID, infected)
	s.appendLog(ctx, level, message, now)
	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ScanCompleted,
		AgentID:   req.AgentID,
		CommandID: req.CommandID,
		Message:   message,
		Timestamp: now,
	})

	return &models.ReportScanResultResponse{Acknowledged: true}, nil
}

func (s *Service) appendLog(ctx context.Context, level, message string, timestamp int64) {
	if err := s.history.AppendLog(ctx, history.NewLog(level, message, timestamp)); err != nil {
		logger.Log.Errorf("Failed to record log entry: %v", err)
	}
}
