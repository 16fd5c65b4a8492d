package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// ErrAgentNotFound is returned for operations on an id that was never registered
var ErrAgentNotFound = errors.New("agent not found")

type entry struct {
	agent models.Agent
	queue []models.Command
}

// Registry holds every registered agent and its pending command queue.
// All state sits behind one RWMutex: list reads share it, every mutation is exclusive.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*entry
	now    func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithClock overrides the time source used for ids and heartbeat timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		agents: make(map[string]*entry),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the registry's current time in unix seconds
func (r *Registry) Now() int64 {
	return r.now().Unix()
}

// Register creates a new agent record with status Online and returns its id.
// Ids are derived from the hostname and registration second; a numeric
// suffix is added when the same hostname registers twice within one second.
func (r *Registry) Register(hostname, version string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().Unix()
	id := fmt.Sprintf("agent-%s-%d", hostname, now)
	for n := 2; r.agents[id] != nil; n++ {
		id = fmt.Sprintf("agent-%s-%d-%d", hostname, now, n)
	}

	r.agents[id] = &entry{
		agent: models.Agent{
			ID:       id,
			Hostname: hostname,
			Version:  version,
			Status:   models.StatusOnline,
			LastSeen: now,
		},
	}
	return id
}

// Enqueue appends cmd to the agent's queue
func (r *Registry) Enqueue(agentID string, cmd models.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("enqueue %s: %w", cmd.ID, ErrAgentNotFound)
	}
	e.queue = append(e.queue, cmd)
	return nil
}

// Drain removes and returns every queued command for the agent in FIFO order.
// The second result is false when the agent is unknown.
func (r *Registry) Drain(agentID string) ([]models.Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.agents[agentID]
	if !ok {
		return nil, false
	}
	return e.drain(), true
}

// UpdateStatus overwrites the agent's status and last-seen timestamp
func (r *Registry) UpdateStatus(agentID, status string, timestamp int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.agents[agentID]
	if !ok {
		return false
	}
	e.agent.Status = status
	e.agent.LastSeen = timestamp
	return true
}

// Heartbeat records liveness and drains the queue in a single critical
// section, so a command enqueued concurrently is either returned now or
// left for the next heartbeat.
func (r *Registry) Heartbeat(agentID, status string) ([]models.Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.agents[agentID]
	if !ok {
		return nil, false
	}
	e.agent.Status = status
	e.agent.LastSeen = r.now().Unix()
	return e.drain(), true
}

// RecordScanResult stores the infected file count and derives the status from it
func (r *Registry) RecordScanResult(agentID string, infectedFiles uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.agents[agentID]
	if !ok {
		return false
	}
	e.agent.InfectedFiles = infectedFiles
	if infectedFiles > 0 {
		e.agent.Status = models.StatusInfected
	} else {
		e.agent.Status = models.StatusSecure
	}
	return true
}

// TriggerScan queues cmd and marks the agent Scanning before any heartbeat
// has picked the command up.
func (r *Registry) TriggerScan(agentID string, cmd models.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("trigger scan on %s: %w", agentID, ErrAgentNotFound)
	}
	e.queue = append(e.queue, cmd)
	e.agent.Status = models.StatusScanning
	return nil
}

// Get returns a copy of one agent record
func (r *Registry) Get(agentID string) (models.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.agents[agentID]
	if !ok {
		return models.Agent{}, false
	}
	return e.agent, true
}

// List returns a snapshot of all agents ordered by id
func (r *Registry) List() []models.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]models.Agent, 0, len(r.agents))
	for _, e := range r.agents {
		agents = append(agents, e.agent)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].ID < agents[j].ID
	})
	return agents
}

// Pending returns the number of queued commands for the agent
func (r *Registry) Pending(agentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.agents[agentID]; ok {
		return len(e.queue)
	}
	return 0
}

// drain must be called with the write lock held
func (e *entry) drain() []models.Command {
	cmds := e.queue
	e.queue = nil
	if cmds == nil {
		cmds = []models.Command{}
	}
	return cmds
}
