package tick

type EventType string

const (
	EventStateChange   EventType = "state-change"
	EventTimingAnomaly EventType = "timing-anomaly"
	EventFrame         EventType = "frame"
)

type EventStateChangeData struct {
	From State
	To   State
}

// EventTimingAnomalyData is advisory. The loop still consumes the full
// elapsed value.
type EventTimingAnomalyData struct {
	Elapsed   float64
	Threshold float64
}

type EventFrameData struct {
	LoopData LoopData
}
