package mainloop

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Dispatcher runs functions on the UI loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a plain function to the Dispatcher interface.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Inline runs dispatched functions on the calling goroutine.
var Inline = DispatcherFunc(func(fn func()) { fn() })

// Loop executes dispatched functions one at a time, in order, on the
// goroutine that calls Run. Once Run has returned, Dispatch runs functions
// on the caller's goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}

	mu      sync.RWMutex
	stopped bool
}

func New(buffer int) *Loop {
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Dispatch queues fn for the loop. It blocks while the queue is full and
// the loop is running.
func (l *Loop) Dispatch(fn func()) {
	l.mu.RLock()
	if l.stopped {
		l.mu.RUnlock()
		l.run(fn)
		return
	}
	select {
	case l.tasks <- fn:
		l.mu.RUnlock()
	case <-l.done:
		l.mu.RUnlock()
		l.run(fn)
	}
}

// Run drains the queue until ctx is done. Functions still queued at that
// point run before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	log.Debug("ui loop started")
	for {
		select {
		case fn := <-l.tasks:
			l.run(fn)
		case <-ctx.Done():
			l.stop()
			return ctx.Err()
		}
	}
}

func (l *Loop) stop() {
	close(l.done)

	// Wait out senders racing the close; after this nothing is queued.
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	for {
		select {
		case fn := <-l.tasks:
			l.run(fn)
		default:
			log.Debug("ui loop stopped")
			return
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("ui loop callback panicked")
		}
	}()
	fn()
}
