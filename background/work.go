// Package background runs named periodic work on its own ticker, used to
// drive reconcile.Reconciler.Reconcile on a timer, per SPEC_FULL.md's
// ambient timer-thread requirement for C5.
package background

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/atomic"
)

var (
	errEmptyName     = errors.New("background work name cannot be empty")
	errDuplicateName = errors.New("duplicate background work name")
)

// Work is a piece of background work which needs to run periodically.
type Work struct {
	Name         string
	Func         func(running *atomic.Bool)
	Period       time.Duration
	InitialDelay time.Duration
}

// Manager starts/stops a set of registered background Works together.
type Manager interface {
	Start()
	Stop()
	RegisterWork(work Work) error
}

type manager struct {
	mu      sync.Mutex
	runners map[string]*runner
}

// NewManager creates a Manager with the given Works pre-registered.
func NewManager(works ...Work) (Manager, error) {
	m := &manager{runners: make(map[string]*runner)}
	for _, w := range works {
		if err := m.RegisterWork(w); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *manager) RegisterWork(work Work) error {
	if work.Name == "" {
		return errEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runners[work.Name]; ok {
		return errDuplicateName
	}
	m.runners[work.Name] = &runner{work: work, stopChan: make(chan struct{}, 1)}
	return nil
}

func (m *manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runners {
		r.start()
	}
}

func (m *manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runners {
		r.stop()
	}
}

type runner struct {
	mu sync.Mutex

	work Work

	running  atomic.Bool
	stopChan chan struct{}
}

func (r *runner) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running.Swap(true) {
		log.WithField("name", r.work.Name).Info("Background work already running, no-op.")
		return
	}

	go func() {
		defer r.running.Store(false)

		if r.work.InitialDelay > 0 {
			timer := time.NewTimer(r.work.InitialDelay)
			select {
			case <-r.stopChan:
				timer.Stop()
				return
			case <-timer.C:
			}
			r.work.Func(&r.running)
		}

		ticker := time.NewTicker(r.work.Period)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopChan:
				log.WithField("name", r.work.Name).Info("Background work stopped.")
				return
			case <-ticker.C:
				r.work.Func(&r.running)
			}
		}
	}()
}

func (r *runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running.Load() {
		return
	}
	select {
	case r.stopChan <- struct{}{}:
	default:
	}
}
