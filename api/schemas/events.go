package schemas

// EventKind identifies a replay progress event.
type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventWarning   EventKind = "warning"
	EventError     EventKind = "error"
	EventCompleted EventKind = "completed"
	EventStopped   EventKind = "stopped"
)

// ExecEvent is one entry in the incremental progress stream a replay run
// emits. Progress, warning and error events carry the one-based step ordinal
// in Step; stopped events carry the zero-based index of the step that was
// about to run. Exactly one terminal event ends every run.
type ExecEvent struct {
	Kind    EventKind `json:"kind"`
	Step    int       `json:"step,omitempty"`
	Total   int       `json:"total,omitempty"`
	Message string    `json:"message,omitempty"`
}
