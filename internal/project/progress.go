package project

import "github.com/shinji-kodama/cordova-wrap/internal/model"

// Progress milestones of a wrap run.
const (
	PercentValidate  = 0
	PercentPrepare   = 10
	PercentStage     = 20
	PercentInject    = 30
	PercentConfigure = 50
	PercentInstall   = 70
	PercentPlatform  = 85
	PercentDone      = 100
)

// progressTracker forwards progress events and drops any event whose
// percent does not exceed the previous one, keeping a run's progress
// strictly increasing.
type progressTracker struct {
	events  model.Events
	last    int
	started bool
}

func newProgressTracker(events model.Events) *progressTracker {
	return &progressTracker{events: events}
}

// emit reports percent with label and returns whether it was forwarded.
func (p *progressTracker) emit(percent int, label string) bool {
	if p.started && percent <= p.last {
		return false
	}
	p.started = true
	p.last = percent
	p.events.EmitProgress(percent, label)
	return true
}
