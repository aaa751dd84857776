package task

import "time"

type funcRunner struct {
	run func() error
}

func (r funcRunner) Run() error {
	return r.run()
}

func NewTickerTaskFromFunc(interval time.Duration, runner func() error) *TickerTask {
	return NewTickerTask(interval, funcRunner{run: runner})
}

// NewNamedTickerTaskFromFunc is NewTickerTaskFromFunc with a name used in log lines.
func NewNamedTickerTaskFromFunc(name string, interval time.Duration, runner func() error) *TickerTask {
	return NewTickerTaskWithOptions(Options{
		Name:     name,
		Interval: interval,
		Runner:   funcRunner{run: runner},
	})
}
