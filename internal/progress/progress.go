package progress

import "time"

// Stage identifies which pipeline stage is active.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageStats     Stage = "stats"
	StageAnalyze   Stage = "analyze"
	StageSections  Stage = "sections"
	StageCitations Stage = "citations"
	StageWrite     Stage = "write"
	StagePublish   Stage = "publish"
	StageComplete  Stage = "complete"
)

// Event carries progress information from the pipeline to the renderer.
type Event struct {
	Stage     Stage
	Message   string
	Percent   float64 // 0.0–1.0
	Step      int
	StepTotal int
	Elapsed   time.Duration
	Error     error
	// OutputFile is set on StageComplete with the persona file path.
	OutputFile string
	// URL is set on StageComplete when the persona was published.
	URL string
	// LogFile is the log file path, set on StageComplete.
	LogFile string
}

// Callback is the function signature for progress event handlers.
type Callback func(Event)

// NopCallback is a no-op progress callback for tests and silent mode.
func NopCallback(Event) {}

// NewEvent creates an Event with common fields populated.
func NewEvent(stage Stage, msg string, pct float64, start time.Time) Event {
	return Event{
		Stage:   stage,
		Message: msg,
		Percent: pct,
		Elapsed: time.Since(start),
	}
}
