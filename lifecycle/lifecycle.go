// Package lifecycle provides idempotent start/stop signaling shared by the
// offer consumer loop and the framework runner.
package lifecycle

import "sync"

// LifeCycle manages the start/stop lifecycle for the owner of the object.
//
//	lc := lifecycle.New()
//	lc.Start()
//	go func() {
//		<-lc.StopCh()
//		lc.StopComplete()
//	}()
//	lc.Stop() // closes StopCh; does not block
//	lc.Wait() // blocks until the goroutine above calls StopComplete
type LifeCycle interface {
	// Start is idempotent; returns false if already started.
	Start() bool
	// Stop is idempotent; returns false if already stopped.
	Stop() bool
	// StopComplete unblocks Wait(). Called by the owned goroutine once it
	// has actually exited.
	StopComplete()
	// StopCh is closed when Stop is called.
	StopCh() <-chan struct{}
	// Wait blocks until StopComplete is called.
	Wait()
}

type lifeCycle struct {
	sync.RWMutex
	stopCh         chan struct{}
	stopCompleteCh chan struct{}
}

// New creates a new LifeCycle instance.
func New() LifeCycle {
	return &lifeCycle{
		stopCompleteCh: make(chan struct{}, 1),
	}
}

func (l *lifeCycle) Start() bool {
	l.Lock()
	defer l.Unlock()

	if l.stopCh != nil {
		return false
	}
	l.stopCh = make(chan struct{})
	return true
}

func (l *lifeCycle) Stop() bool {
	l.Lock()
	defer l.Unlock()

	if l.stopCh == nil {
		return false
	}
	close(l.stopCh)
	l.stopCh = nil
	return true
}

func (l *lifeCycle) StopCh() <-chan struct{} {
	l.RLock()
	defer l.RUnlock()

	if l.stopCh == nil {
		// Stop() raced ahead of the first StopCh() call: hand back an
		// already-closed channel so callers don't block forever.
		closedCh := make(chan struct{})
		close(closedCh)
		return closedCh
	}
	return l.stopCh
}

func (l *lifeCycle) StopComplete() {
	select {
	case l.stopCompleteCh <- struct{}{}:
	default:
	}
}

func (l *lifeCycle) Wait() {
	<-l.stopCompleteCh
}
