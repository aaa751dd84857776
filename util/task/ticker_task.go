package task

import (
	"sync"
	"time"

	"github.com/prebid/prebid-beacon/logger"
)

type Runner interface {
	Run() error
}

// TickerTask runs a Runner on a fixed interval until stopped.
type TickerTask struct {
	name           string
	interval       time.Duration
	runner         Runner
	skipInitialRun bool
	done           chan struct{}
	stopOnce       sync.Once
}

func NewTickerTask(interval time.Duration, runner Runner) *TickerTask {
	return NewTickerTaskWithOptions(Options{
		Interval: interval,
		Runner:   runner,
	})
}

type Options struct {
	// Name identifies the task in log lines.
	Name           string
	Interval       time.Duration
	Runner         Runner
	SkipInitialRun bool
}

func NewTickerTaskWithOptions(opt Options) *TickerTask {
	name := opt.Name
	if name == "" {
		name = "ticker task"
	}
	return &TickerTask{
		name:           name,
		interval:       opt.Interval,
		runner:         opt.Runner,
		skipInitialRun: opt.SkipInitialRun,
		done:           make(chan struct{}),
	}
}

// Start runs the task immediately and then schedules the task to run periodically
// if a positive interval has been specified.
func (t *TickerTask) Start() {
	if !t.skipInitialRun {
		t.run()
	}

	if t.interval > 0 {
		go t.runRecurring()
	}
}

// Stop stops the periodic task. It is safe to call more than once.
func (t *TickerTask) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// Done exports readonly done channel
func (t *TickerTask) Done() <-chan struct{} {
	return t.done
}

func (t *TickerTask) run() {
	if err := t.runner.Run(); err != nil {
		logger.Warnf("%s failed: %v", t.name, err)
	}
}

// runRecurring creates a ticker that ticks at the specified interval. On each tick,
// the task is executed
func (t *TickerTask) runRecurring() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.run()
		case <-t.done:
			return
		}
	}
}
