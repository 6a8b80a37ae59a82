package render

import "reel/internal/pkg/logger"

// EventKind tells listeners what an Event carries.
type EventKind string

const (
	EventPhase          EventKind = "phase"
	EventProgress       EventKind = "progress"
	EventCleanupWarning EventKind = "cleanup_warning"
)

// Phase names a step of a render call. They double as error ops
// ("render.<phase>") and span names.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseProject  Phase = "project"
	PhaseBundle   Phase = "bundle"
	PhaseCompose  Phase = "compose"
	PhaseMedia    Phase = "media"
	PhaseVerify   Phase = "verify"
	PhaseCleanup  Phase = "cleanup"
	PhaseDone     Phase = "done"
)

func (p Phase) op() string { return "render." + string(p) }

// Event is a status notification from a render call.
type Event struct {
	Kind    EventKind
	Phase   Phase
	Percent int
	Err     error
}

// Listener receives the events of a render. Progress events may arrive on a
// goroutine owned by the MediaRenderer. Calls for one render never overlap.
// It must not block for long: the renderer's output is not read meanwhile.
type Listener func(Event)

// LogListener logs progress events at INFO. Phases and cleanup warnings
// are already logged by the orchestrator.
func LogListener(log *logger.Logger) Listener {
	return func(ev Event) {
		if ev.Kind == EventProgress {
			log.Info("render progress", "percent", ev.Percent)
		}
	}
}

// Tee fans one event out to several listeners, skipping nil ones.
func Tee(ls ...Listener) Listener {
	return func(ev Event) {
		for _, l := range ls {
			if l != nil {
				l(ev)
			}
		}
	}
}
