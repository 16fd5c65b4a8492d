package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doniyusdinar/scanfleet/agent/internal/scanner"
	"github.com/doniyusdinar/scanfleet/agent/internal/status"
	"github.com/doniyusdinar/scanfleet/pkg/models"
)

type fakeHub struct {
	mu          sync.Mutex
	registerErr error
	agentID     string
	pending     []models.Command
	failBeats   int
	hangBeats   bool
	heartbeats  []models.HeartbeatRequest
	reports     []models.ReportScanResultRequest
}

func (h *fakeHub) Register(_ context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	if h.registerErr != nil {
		return nil, h.registerErr
	}
	return &models.RegisterResponse{AgentID: h.agentID}, nil
}

func (h *fakeHub) Heartbeat(ctx context.Context, req *models.HeartbeatRequest) (*models.HeartbeatResponse, error) {
	h.mu.Lock()
	h.heartbeats = append(h.heartbeats, *req)
	if h.hangBeats {
		h.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	defer h.mu.Unlock()

	if h.failBeats > 0 {
		h.failBeats--
		return nil, errors.New("hub unavailable")
	}
	cmds := h.pending
	h.pending = nil
	return &models.HeartbeatResponse{Acknowledged: true, PendingCommands: cmds}, nil
}

func (h *fakeHub) ReportScanResult(_ context.Context, req *models.ReportScanResultRequest) (*models.ReportScanResultResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, *req)
	return &models.ReportScanResultResponse{Acknowledged: true}, nil
}

func (h *fakeHub) queue(cmds ...models.Command) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, cmds...)
}

func (h *fakeHub) reportCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reports)
}

func (h *fakeHub) heartbeatCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.heartbeats)
}

type fakeExecutor struct {
	release chan struct{}
	running atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
	result  scanner.Result
}

func (e *fakeExecutor) Execute(cmd models.ScanCommand) scanner.Result {
	e.calls.Add(1)
	n := e.running.Add(1)
	for {
		peak := e.peak.Load()
		if n <= peak || e.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if e.release != nil {
		<-e.release
	}
	e.running.Add(-1)
	return e.result
}

func newTestRunner(t *testing.T, hub *fakeHub, exec ScanExecutor, maxScans int) (*Runner, *status.Tracker) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	tracker := status.NewTracker()
	go tracker.Run(ctx)

	r := New(hub, exec, tracker, Options{
		Hostname:           "host1",
		Version:            "0.1.0",
		HeartbeatInterval:  10 * time.Millisecond,
		MaxConcurrentScans: maxScans,
	})
	return r, tracker
}

func runInBackground(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRegister(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1"}
	r, _ := newTestRunner(t, hub, &fakeExecutor{}, 0)

	require.NoError(t, r.Register(context.Background()))
	assert.Equal(t, "agent-host1-1", r.AgentID())
}

func TestRegisterFailure(t *testing.T) {
	hub := &fakeHub{registerErr: errors.New("unavailable")}
	r, _ := newTestRunner(t, hub, &fakeExecutor{}, 0)

	err := r.Register(context.Background())
	assert.ErrorContains(t, err, "unavailable")
	assert.Empty(t, r.AgentID())

	hub = &fakeHub{}
	r, _ = newTestRunner(t, hub, &fakeExecutor{}, 0)
	assert.Error(t, r.Register(context.Background()))
}

func TestRunRequiresRegistration(t *testing.T) {
	r, _ := newTestRunner(t, &fakeHub{}, &fakeExecutor{}, 0)
	assert.Error(t, r.Run(context.Background()))
}

func TestHeartbeatDispatchesScan(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1"}
	exec := &fakeExecutor{
		release: make(chan struct{}),
		result:  scanner.Result{Success: true, Details: "/data/x: Eicar FOUND", InfectedFiles: 1},
	}
	r, tracker := newTestRunner(t, hub, exec, 0)
	require.NoError(t, r.Register(context.Background()))

	hub.queue(models.NewScanCommand("cmd-1", "/data", true))
	runInBackground(t, r)

	require.Eventually(t, func() bool { return exec.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusScanning, tracker.Current())

	// The heartbeat loop keeps running while the scan is in flight.
	beats := hub.heartbeatCount()
	require.Eventually(t, func() bool { return hub.heartbeatCount() > beats+1 }, time.Second, 5*time.Millisecond)

	close(exec.release)
	r.Wait()

	require.Equal(t, 1, hub.reportCount())
	hub.mu.Lock()
	report := hub.reports[0]
	hub.mu.Unlock()
	assert.Equal(t, "agent-host1-1", report.AgentID)
	assert.Equal(t, "cmd-1", report.CommandID)
	assert.True(t, report.Success)
	assert.Equal(t, int32(1), report.InfectedFiles)
	assert.Equal(t, models.StatusOnline, tracker.Current())
}

func TestHeartbeatReportsLocalStatus(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1"}
	r, _ := newTestRunner(t, hub, &fakeExecutor{}, 0)
	require.NoError(t, r.Register(context.Background()))
	runInBackground(t, r)

	require.Eventually(t, func() bool { return hub.heartbeatCount() > 0 }, time.Second, 5*time.Millisecond)
	hub.mu.Lock()
	defer hub.mu.Unlock()
	assert.Equal(t, "agent-host1-1", hub.heartbeats[0].AgentID)
	assert.Equal(t, models.StatusOnline, hub.heartbeats[0].Status)
}

func TestUnknownCommandIsSkipped(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1"}
	exec := &fakeExecutor{}
	r, _ := newTestRunner(t, hub, exec, 0)
	require.NoError(t, r.Register(context.Background()))

	hub.queue(models.Command{ID: "cmd-future"}, models.NewScanCommand("cmd-2", "/data", false))
	runInBackground(t, r)

	require.Eventually(t, func() bool { return hub.reportCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestConcurrentScansUnbounded(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1"}
	exec := &fakeExecutor{release: make(chan struct{})}
	r, _ := newTestRunner(t, hub, exec, 0)
	require.NoError(t, r.Register(context.Background()))

	hub.queue(
		models.NewScanCommand("cmd-1", "/a", true),
		models.NewScanCommand("cmd-2", "/b", true),
		models.NewScanCommand("cmd-3", "/c", true),
	)
	runInBackground(t, r)

	require.Eventually(t, func() bool { return exec.running.Load() == 3 }, time.Second, 5*time.Millisecond)
	close(exec.release)
	r.Wait()
	assert.Equal(t, 3, hub.reportCount())
}

func TestMaxConcurrentScans(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1"}
	exec := &fakeExecutor{release: make(chan struct{})}
	r, _ := newTestRunner(t, hub, exec, 1)
	require.NoError(t, r.Register(context.Background()))

	hub.queue(
		models.NewScanCommand("cmd-1", "/a", true),
		models.NewScanCommand("cmd-2", "/b", true),
	)
	runInBackground(t, r)

	require.Eventually(t, func() bool { return exec.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), exec.calls.Load(), "second scan must wait for a free slot")

	close(exec.release)
	r.Wait()
	assert.Equal(t, int32(2), exec.calls.Load())
	assert.Equal(t, int32(1), exec.peak.Load())
	assert.Equal(t, 2, hub.reportCount())
}

func TestHeartbeatFailureBacksOffAndRecovers(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1", failBeats: 2}
	r, _ := newTestRunner(t, hub, &fakeExecutor{}, 0)
	require.NoError(t, r.Register(context.Background()))

	hub.queue(models.NewScanCommand("cmd-1", "/data", true))
	runInBackground(t, r)

	// Commands queued while the hub was failing are delivered once it recovers.
	require.Eventually(t, func() bool { return hub.reportCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, hub.heartbeatCount(), 3)
}

func TestHungHeartbeatDoesNotStallLoop(t *testing.T) {
	hub := &fakeHub{agentID: "agent-host1-1", hangBeats: true}
	r, _ := newTestRunner(t, hub, &fakeExecutor{}, 0)
	require.NoError(t, r.Register(context.Background()))
	runInBackground(t, r)

	// Each call gives up after a few intervals and the loop tries again.
	require.Eventually(t, func() bool { return hub.heartbeatCount() >= 3 }, 2*time.Second, 5*time.Millisecond)

	hub.mu.Lock()
	hub.hangBeats = false
	hub.mu.Unlock()
	hub.queue(models.NewScanCommand("cmd-1", "/data", true))

	require.Eventually(t, func() bool { return hub.reportCount() == 1 }, 3*time.Second, 5*time.Millisecond)
}
