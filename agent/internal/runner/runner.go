package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/doniyusdinar/scanfleet/agent/internal/backoff"
	"github.com/doniyusdinar/scanfleet/agent/internal/scanner"
	"github.com/doniyusdinar/scanfleet/agent/internal/status"
	"github.com/doniyusdinar/scanfleet/pkg/logger"
	"github.com/doniyusdinar/scanfleet/pkg/models"
)

const reportTimeout = 30 * time.Second

// heartbeatTimeoutFactor bounds one heartbeat call to this many intervals
const heartbeatTimeoutFactor = 3

// HubClient is the subset of the hub's agent service the runner calls
type HubClient interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error)
	ReportScanResult(ctx context.Context, req *models.ReportScanResultRequest) (*models.ReportScanResultResponse, error)
}

// ScanExecutor runs one scan to completion
type ScanExecutor interface {
	Execute(cmd models.ScanCommand) scanner.Result
}

type Options struct {
	Hostname           string
	Version            string
	HeartbeatInterval  time.Duration
	MaxConcurrentScans int
}

type Runner struct {
	client   HubClient
	executor ScanExecutor
	status   *status.Tracker
	backoff  *backoff.Backoff
	opts     Options

	agentID string
	slots   chan struct{}
	wg      sync.WaitGroup
}

func New(client HubClient, executor ScanExecutor, tracker *status.Tracker, opts Options) *Runner {
	r := &Runner{
		client:   client,
		executor: executor,
		status:   tracker,
		backoff:  backoff.New(opts.HeartbeatInterval, time.Minute, 2.0),
		opts:     opts,
	}
	if opts.MaxConcurrentScans > 0 {
		r.slots = make(chan struct{}, opts.MaxConcurrentScans)
	}
	return r
}

// AgentID returns the id assigned by the hub, empty before Register
func (r *Runner) AgentID() string {
	return r.agentID
}

// Register announces the agent to the hub. It is attempted once; the caller
// treats failure as fatal.
func (r *Runner) Register(ctx context.Context) error {
	resp, err := r.client.Register(ctx, &models.RegisterRequest{
		Hostname: r.opts.Hostname,
		Version:  r.opts.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}
	if resp.AgentID == "" {
		return fmt.Errorf("hub returned an empty agent id")
	}

	r.agentID = resp.AgentID
	logger.Log.Infof("Registered with ID: %s", r.agentID)
	return nil
}

// Run sends a heartbeat every interval until ctx is done and dispatches each
// returned command to its own goroutine. Failed heartbeats are retried with
// exponential backoff; a call that outlives a few intervals counts as failed.
// The hub is never re-registered with.
func (r *Runner) Run(ctx context.Context) error {
	if r.agentID == "" {
		return fmt.Errorf("runner is not registered")
	}

	ticker := time.NewTicker(r.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Heartbeat loop stopped")
			return nil

		case <-ticker.C:
			if err := r.heartbeat(ctx); err != nil {
				logger.Log.Errorf("Heartbeat failed (attempt %d): %v", r.backoff.Attempts()+1, err)

				if !r.backoff.Wait(ctx) {
					return nil
				}
			} else {
				r.backoff.Reset()
			}
		}
	}
}

// Wait blocks until every dispatched command has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) heartbeat(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, heartbeatTimeoutFactor*r.opts.HeartbeatInterval)
	defer cancel()

	resp, err := r.client.Heartbeat(ctx, &models.HeartbeatRequest{
		AgentID: r.agentID,
		Status:  r.status.Current(),
	})
	if err != nil {
		return err
	}

	for _, cmd := range resp.PendingCommands {
		r.dispatch(cmd)
	}
	return nil
}

func (r *Runner) dispatch(cmd models.Command) {
	log := logger.Log.WithField("command_id", cmd.ID)
	log.Info("Received command")

	switch cmd.Kind() {
	case models.CommandKindScan:
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.runScan(cmd.ID, *cmd.Payload.Scan, log)
		}()
	default:
		log.Warn("Unknown command payload")
	}
}

func (r *Runner) runScan(commandID string, cmd models.ScanCommand, log *logrus.Entry) {
	if r.slots != nil {
		r.slots <- struct{}{}
		defer func() { <-r.slots }()
	}

	log.Infof("Starting scan of %s", cmd.Path)
	r.status.ScanStarted()
	defer r.status.ScanFinished()

	res := r.executor.Execute(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	_, err := r.client.ReportScanResult(ctx, &models.ReportScanResultRequest{
		AgentID:       r.agentID,
		CommandID:     commandID,
		Success:       res.Success,
		Details:       res.Details,
		InfectedFiles: res.InfectedFiles,
	})
	if err != nil {
		log.Errorf("Failed to report scan result: %v", err)
	}

	log.Infof("Scan complete. Infected: %d", res.InfectedFiles)
}
