package lighting

import (
	"fmt"
	"log"
	"math"
	"strconv"
)

// Pace-change log prefixes.
const (
	PaceSparse = "0"
	PaceMedium = "a"
	PaceDense  = "b"
)

// ParseError reports a pace-change log entry that cannot be read.
type ParseError struct {
	Entry string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pace change %q: %v", e.Entry, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PaceChange is one decoded pace-change log entry.
type PaceChange struct {
	Prefix string
	Time   float64
}

func (p PaceChange) String() string {
	return p.Prefix + strconv.FormatFloat(p.Time, 'f', -1, 64)
}

// ringValue is the ring light value used to back-fill the section that
// starts at this change. Sparse sections are never back-filled.
func (p PaceChange) ringValue() (int, bool) {
	switch p.Prefix {
	case PaceMedium:
		return 3, true
	case PaceDense:
		return 7, true
	default:
		return 0, false
	}
}

// ParsePaceChange decodes a "{prefix}{time}" entry.
func ParsePaceChange(entry string) (PaceChange, error) {
	if len(entry) < 2 {
		return PaceChange{}, &ParseError{Entry: entry, Err: fmt.Errorf("too short")}
	}
	t, err := strconv.ParseFloat(entry[1:], 64)
	if err != nil {
		return PaceChange{}, &ParseError{Entry: entry, Err: err}
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return PaceChange{}, &ParseError{Entry: entry, Err: fmt.Errorf("time is not finite")}
	}
	return PaceChange{Prefix: entry[:1], Time: t}, nil
}

// Backfill emits ring light events covering each medium or dense section,
// from its pace change up to the next one. The last entry closes no
// section and is never filled. Unreadable entries are logged and skipped.
func Backfill(paceLog []string) []Event {
	var events []Event
	for i := 0; i < len(paceLog)-1; i++ {
		cur, err := ParsePaceChange(paceLog[i])
		if err != nil {
			log.Printf("Skipping pace change: %v", err)
			continue
		}
		ring, ok := cur.ringValue()
		if !ok {
			continue
		}
		next, err := ParsePaceChange(paceLog[i+1])
		if err != nil {
			log.Printf("Skipping pace change %s: %v", cur, err)
			continue
		}

		if cur.Time != math.Floor(cur.Time) {
			events = append(events, Event{Time: cur.Time, Type: RingRotationValue, Value: ring})
		}
		end := math.Ceil(next.Time)
		for t := math.Ceil(cur.Time); t < end; t++ {
			events = append(events, Event{Time: t, Type: RingRotationValue, Value: ring})
		}
	}
	return events
}
