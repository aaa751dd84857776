package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	runs atomic.Int32
	err  error
}

func (r *countingRunner) Run() error {
	r.runs.Add(1)
	return r.err
}

func TestStartRunsImmediately(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask(0, runner)

	task.Start()

	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestSkipInitialRun(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTaskWithOptions(Options{Runner: runner, SkipInitialRun: true})

	task.Start()

	assert.Equal(t, int32(0), runner.runs.Load())
}

func TestRunsRecurringUntilStopped(t *testing.T) {
	runner := &countingRunner{err: errors.New("boom")}
	task := NewTickerTask(5*time.Millisecond, runner)

	task.Start()
	assert.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, time.Second, time.Millisecond)

	task.Stop()
	task.Stop()
	<-task.Done()
	stoppedAt := runner.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.LessOrEqual(t, runner.runs.Load(), stoppedAt+1)
}

func TestTickerTaskFromFunc(t *testing.T) {
	var calls atomic.Int32
	task := NewNamedTickerTaskFromFunc("counter", 0, func() error {
		calls.Add(1)
		return nil
	})

	task.Start()
	task.Stop()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "counter", task.name)
}
