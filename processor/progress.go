package processor

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ProgressMonitor receives progress of long running copies. Cancellation
// is carried by the context, not the monitor.
type ProgressMonitor interface {
	BeginTask(name string, totalWork int)
	Worked(work int)
	Done()
}

type nullProgress struct{}

func (nullProgress) BeginTask(string, int) {}
func (nullProgress) Worked(int)            {}
func (nullProgress) Done()                 {}

// NullProgress discards all progress.
var NullProgress ProgressMonitor = nullProgress{}

func progressOrNull(pm ProgressMonitor) ProgressMonitor {
	if pm == nil {
		return NullProgress
	}
	return pm
}

// LogProgress logs a line at Debug level whenever another tenth of a task
// is done.
type LogProgress struct {
	Log logrus.FieldLogger

	mu     sync.Mutex
	task   string
	total  int
	worked int
	logged int
}

func NewLogProgress(log logrus.FieldLogger) *LogProgress {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogProgress{Log: log}
}

func (p *LogProgress) BeginTask(name string, totalWork int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.task, p.total, p.worked, p.logged = name, totalWork, 0, 0
}

func (p *LogProgress) Worked(work int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.worked += work
	if p.total <= 0 {
		return
	}
	if tenth := p.worked * 10 / p.total; tenth > p.logged {
		p.logged = tenth
		p.Log.WithFields(logrus.Fields{"task": p.task, "worked": p.worked, "total": p.total}).Debug("progress")
	}
}

func (p *LogProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Log.WithFields(logrus.Fields{"task": p.task, "worked": p.worked}).Debug("done")
}

// WorkedUnits returns the units worked in the current task.
func (p *LogProgress) WorkedUnits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.worked
}
