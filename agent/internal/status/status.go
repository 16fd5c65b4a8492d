// Package status owns the agent's locally reported status.
//
// Scan goroutines never write the status directly. They send transitions to
// a single owner goroutine, which counts active scans and publishes Scanning
// while any scan runs and Online once all have finished.
package status

import (
	"context"
	"sync"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

type transition int

const (
	scanStarted transition = iota
	scanFinished
)

type request struct {
	tr      transition
	applied chan struct{}
}

type Tracker struct {
	updates chan request
	done    chan struct{}

	mu      sync.Mutex
	current string
	active  int
}

func NewTracker() *Tracker {
	return &Tracker{
		updates: make(chan request),
		done:    make(chan struct{}),
		current: models.StatusOnline,
	}
}

// Run applies transitions until ctx is done. ScanStarted and ScanFinished
// return once their transition is applied, or immediately after Run exits.
func (t *Tracker) Run(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-t.updates:
			t.apply(req.tr)
			close(req.applied)
		}
	}
}

// Current returns the status to report in the next heartbeat
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Active returns the number of scans currently in flight
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) ScanStarted() {
	t.send(scanStarted)
}

func (t *Tracker) ScanFinished() {
	t.send(scanFinished)
}

func (t *Tracker) send(tr transition) {
	req := request{tr: tr, applied: make(chan struct{})}
	select {
	case t.updates <- req:
		<-req.applied
	case <-t.done:
	}
}

func (t *Tracker) apply(tr transition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch tr {
	case scanStarted:
		t.active++
	case scanFinished:
		if t.active > 0 {
			t.active--
		}
	}

	if t.active > 0 {
		t.current = models.StatusScanning
	} else {
		t.current = models.StatusOnline
	}
}
