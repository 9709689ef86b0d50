package lighting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// PreconditionError reports a non-positive gap reaching the speed formula.
// It means duplicate-time filtering upstream failed and the document
// cannot be lit.
type PreconditionError struct {
	Time float64
	Gap  float64
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("non-positive gap %v at beat %v", e.Gap, e.Time)
}

// CalcSpeed maps an inter-note gap to a laser speed tier:
// ceil(ceil(2/gap + 1)^2 / 4).
func CalcSpeed(gap float64) (int, error) {
	if !(gap > 0) {
		return 0, &PreconditionError{Gap: gap}
	}
	inner := math.Ceil(2/gap + 1)
	return int(math.Ceil(inner * inner / 4)), nil
}

type regime int

const (
	sparse regime = iota
	medium
	dense
)

func classify(gap float64) regime {
	switch {
	case gap >= 2:
		return sparse
	case gap >= 1:
		return medium
	default:
		return dense
	}
}

func (r regime) prefix() string {
	switch r {
	case dense:
		return PaceDense
	case medium:
		return PaceMedium
	default:
		return PaceSparse
	}
}

func (r regime) lightValue() int {
	switch r {
	case dense:
		return 6
	case medium:
		return 2
	default:
		return 3
	}
}

// State is carried from one note to the next during synthesis.
type State struct {
	LastGap  float64
	LastTime float64
	HasLast  bool // LastGap and LastTime are set
	LeftNext bool // next alternating laser goes to the left side

	PaceLog []string
}

// NewState returns the state before the first note.
func NewState() *State {
	return &State{LeftNext: true}
}

// Step lights notes[i] and advances the state. A note at the same time as
// the previously lit note produces nothing.
func (s *State) Step(notes []Note, i int) ([]Event, error) {
	n := notes[i]
	if s.HasLast && n.Time == s.LastTime {
		return nil, nil
	}

	nwg := NoteGap(notes, i)
	if n.BackLightOnly() {
		return backLight(nwg), nil
	}

	var events []Event
	if nwg.Stacked {
		events = append(events, Event{Time: n.Time, Type: RingTrigger})
	}

	r := classify(nwg.Gap)
	if !s.HasLast || classify(s.LastGap) != r {
		events = append(events, Event{Time: n.Time, Type: PaceBoundary})
		s.PaceLog = append(s.PaceLog, r.prefix()+strconv.FormatFloat(n.Time, 'f', -1, 64))
	}

	events = append(events,
		Event{Time: n.Time, Type: BackLightB, Value: r.lightValue()},
		Event{Time: n.Time, Type: BackLightA},
	)

	lasers, err := s.lasers(nwg)
	if err != nil {
		var pe *PreconditionError
		if errors.As(err, &pe) {
			pe.Time = n.Time
		}
		return nil, err
	}
	events = append(events, lasers...)

	s.LastGap = nwg.Gap
	s.LastTime = n.Time
	s.HasLast = true
	return events, nil
}

func backLight(nwg NoteWithGap) []Event {
	value := 2
	if nwg.Gap < 1 {
		value = 6
	}
	return []Event{
		{Time: nwg.Time, Type: BackLightA, Value: value},
		{Time: nwg.Time, Type: BackLightB},
	}
}

func (s *State) lasers(nwg NoteWithGap) ([]Event, error) {
	speed, err := CalcSpeed(nwg.Gap)
	if err != nil {
		return nil, err
	}
	color := 3
	if nwg.Gap < 1 {
		color = 7
	}
	t := nwg.Time

	// double lasers: stacked notes followed by a long rest fire both sides
	if nwg.Stacked && nwg.Gap >= 2 {
		return []Event{
			{Time: t, Type: LaserLeft, Value: color},
			{Time: t, Type: LaserRight, Value: color},
			{Time: t, Type: LaserLeftSpeed, Value: speed},
			{Time: t, Type: LaserRightSpeed, Value: speed},
		}, nil
	}

	side, speedChannel := LaserRight, LaserRightSpeed
	if s.LeftNext {
		side, speedChannel = LaserLeft, LaserLeftSpeed
	}
	s.LeftNext = !s.LeftNext

	return []Event{
		{Time: t, Type: side},
		{Time: t, Type: speedChannel, Value: speed},
		{Time: t, Type: side, Value: color},
	}, nil
}

// Synthesize builds the full event track for a time-ordered note list:
// one forward pass over the notes, then the ring back-fill over the
// recorded pace changes.
func Synthesize(notes []Note) ([]Event, error) {
	s := NewState()
	events := []Event{}
	for i := range notes {
		ev, err := s.Step(notes, i)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
	}
	return append(events, Backfill(s.PaceLog)...), nil
}
