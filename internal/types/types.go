package types

// ClipRequest is one user request to cut [StartTime, EndTime] out of SourceURL.
type ClipRequest struct {
	SourceURL  string `json:"url"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	OutputName string `json:"output_name"`
	Quality    string `json:"quality,omitempty"`
}

// QualityBest disables the height constrained format selector.
const QualityBest = "best"

type TimeRange struct {
	StartSeconds int
	EndSeconds   int
}

type JobOutcome struct {
	Success      bool   `json:"success"`
	OutputPath   string `json:"output_path,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ExitCode     int    `json:"exit_code,omitempty"`
}

type EventKind string

const (
	EventProgress EventKind = "progress"
	EventLog      EventKind = "log"
	EventOutcome  EventKind = "outcome"
)

// Log sources.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
	StreamSystem = "system"
)

// Event is one item of a job's event stream. Outcome is set only on the
// terminal event, which is always the last one for a job.
type Event struct {
	JobID   string      `json:"job_id,omitempty"`
	Kind    EventKind   `json:"kind"`
	Percent float64     `json:"percent,omitempty"`
	Stream  string      `json:"stream,omitempty"`
	Text    string      `json:"text,omitempty"`
	Outcome *JobOutcome `json:"outcome,omitempty"`
}

func ProgressEvent(percent float64) Event {
	return Event{Kind: EventProgress, Percent: percent}
}

func LogEvent(stream, text string) Event {
	return Event{Kind: EventLog, Stream: stream, Text: text}
}

func OutcomeEvent(o JobOutcome) Event {
	return Event{Kind: EventOutcome, Outcome: &o}
}

func Failure(msg string) JobOutcome {
	return JobOutcome{Success: false, ErrorMessage: msg}
}

// SetupStatus is what the presentation layer sees of the provisioning state.
type SetupStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
