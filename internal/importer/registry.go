package importer

import (
	"errors"
	"log"
	"sync"
	"time"
)

var ErrRunNotFound = errors.New("import run not found")

// Registry holds the live and recently finished runs of this process.
// Nothing here is durable: a restart forgets every run, matching the
// interactive, session-driven orchestration model.
type Registry struct {
	mu        sync.Mutex
	runs      map[string]*Run
	retention time.Duration
}

func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Registry{
		runs:      make(map[string]*Run),
		retention: retention,
	}
}

func (reg *Registry) Add(run *Run) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.runs[run.ID] = run
}

func (reg *Registry) Get(id string) (*Run, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	run, ok := reg.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// Sweep evicts finished runs older than the retention window. Wired to
// the cron scheduler in the entrypoint.
func (reg *Registry) Sweep() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cutoff := time.Now().Add(-reg.retention)
	evicted := 0
	for id, run := range reg.runs {
		finished := run.FinishedAt()
		if !finished.IsZero() && finished.Before(cutoff) {
			delete(reg.runs, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("import: evicted %d finished run(s) past retention", evicted)
	}
}

// Len returns the number of tracked runs.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.runs)
}

// Active returns the number of runs that have not reached a terminal phase.
func (reg *Registry) Active() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	active := 0
	for _, run := range reg.runs {
		if !run.Phase().Terminal() {
			active++
		}
	}
	return active
}
