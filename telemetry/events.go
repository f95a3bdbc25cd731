// Package telemetry provides respiration health tracking, perf timing, metrics
// and CSV experiment output.
package telemetry

import "log/slog"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventSpawn EventType = iota
	EventSuffocate
	EventRecover
	EventDeath
	EventStepFailure
)

// String returns the name written to events.csv.
func (t EventType) String() string {
	switch t {
	case EventSpawn:
		return "spawn"
	case EventSuffocate:
		return "suffocate"
	case EventRecover:
		return "recover"
	case EventDeath:
		return "death"
	case EventStepFailure:
		return "step_failure"
	default:
		return "unknown"
	}
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (t EventType) MarshalCSV() (string, error) {
	return t.String(), nil
}

// Event represents a single telemetry event.
type Event struct {
	RunID      string    `csv:"run_id"`
	Tick       int32     `csv:"tick"`
	Type       EventType `csv:"event"`
	OrganismID uint32    `csv:"organism"`
	Region     int       `csv:"region"`

	// Optional fields depending on event type
	Saturation float64 `csv:"saturation"` // blood/need ratio at the event
	Detail     string  `csv:"detail"`     // error text for step failures
}

// LogValue implements slog.LogValuer for structured logging.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("event", e.Type.String()),
		slog.Int("tick", int(e.Tick)),
		slog.Int("organism", int(e.OrganismID)),
		slog.Int("region", e.Region),
	}
	if e.Type == EventSuffocate || e.Type == EventRecover {
		attrs = append(attrs, slog.Float64("saturation", e.Saturation))
	}
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	return slog.GroupValue(attrs...)
}

// NewSpawnEvent creates a spawn event.
func NewSpawnEvent(tick int32, id uint32, region int) Event {
	return Event{Type: EventSpawn, Tick: tick, OrganismID: id, Region: region}
}

// NewSuffocateEvent creates a suffocation onset event.
func NewSuffocateEvent(tick int32, id uint32, region int, saturation float64) Event {
	return Event{Type: EventSuffocate, Tick: tick, OrganismID: id, Region: region, Saturation: saturation}
}

// NewRecoverEvent creates a recovery event.
func NewRecoverEvent(tick int32, id uint32, region int, saturation float64) Event {
	return Event{Type: EventRecover, Tick: tick, OrganismID: id, Region: region, Saturation: saturation}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int32, id uint32, region int) Event {
	return Event{Type: EventDeath, Tick: tick, OrganismID: id, Region: region}
}

// NewStepFailureEvent creates an event for an organism whose step returned an error.
func NewStepFailureEvent(tick int32, id uint32, region int, err error) Event {
	e := Event{Type: EventStepFailure, Tick: tick, OrganismID: id, Region: region}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}
