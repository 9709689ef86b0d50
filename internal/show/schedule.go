package show

import (
	"sort"
	"time"

	"github.com/satindergrewal/beatlight/internal/lighting"
)

// Cue is a lighting event placed on the wall clock.
type Cue struct {
	Offset time.Duration
	lighting.Event
}

// Show is one lit document ready for playback.
type Show struct {
	Name string
	BPM  float64
	Cues []Cue
}

// Schedule converts beat-timed events into cues at the given tempo.
// Events keep their relative order when they share a beat.
func Schedule(events []lighting.Event, bpm float64) []Cue {
	if bpm <= 0 {
		bpm = 120
	}
	sorted := make([]lighting.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	cues := make([]Cue, len(sorted))
	for i, e := range sorted {
		cues[i] = Cue{
			Offset: time.Duration(e.Time * 60 / bpm * float64(time.Second)),
			Event:  e,
		}
	}
	return cues
}

// New builds a show from a document's events.
func New(name string, events []lighting.Event, bpm float64) Show {
	return Show{Name: name, BPM: bpm, Cues: Schedule(events, bpm)}
}

// Duration is the offset of the last cue.
func (s Show) Duration() time.Duration {
	if len(s.Cues) == 0 {
		return 0
	}
	return s.Cues[len(s.Cues)-1].Offset
}
