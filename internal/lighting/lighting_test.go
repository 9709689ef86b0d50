package lighting

import (
	"errors"
	"reflect"
	"testing"
)

func plain(times ...float64) []Note {
	notes := make([]Note, len(times))
	for i, t := range times {
		notes[i] = Note{Time: t, Type: 0, CutDirection: 1}
	}
	return notes
}

func eventsEqual(t *testing.T, got, want []Event) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events mismatch\n got: %v\nwant: %v", got, want)
	}
}

// --- CalcSpeed ---

func TestCalcSpeed(t *testing.T) {
	tests := []struct {
		gap  float64
		want int
	}{
		{0.25, 21},
		{0.5, 7},
		{0.75, 4},
		{1, 3},
		{2, 1},
		{2.5, 1},
		{4, 1},
	}
	for _, tt := range tests {
		got, err := CalcSpeed(tt.gap)
		if err != nil {
			t.Fatalf("CalcSpeed(%v) error: %v", tt.gap, err)
		}
		if got != tt.want {
			t.Errorf("CalcSpeed(%v) = %d, want %d", tt.gap, got, tt.want)
		}
	}
}

func TestCalcSpeedMonotonic(t *testing.T) {
	prev, _ := CalcSpeed(0.05)
	for i := 2; i <= 400; i++ {
		gap := float64(i) * 0.05
		got, err := CalcSpeed(gap)
		if err != nil {
			t.Fatalf("CalcSpeed(%v) error: %v", gap, err)
		}
		if got > prev {
			t.Errorf("CalcSpeed increased at gap %v: %d > %d", gap, got, prev)
		}
		if got < 1 {
			t.Errorf("CalcSpeed(%v) = %d, want >= 1", gap, got)
		}
		prev = got
	}
}

func TestCalcSpeedRejectsNonPositiveGap(t *testing.T) {
	for _, gap := range []float64{0, -1} {
		_, err := CalcSpeed(gap)
		var pe *PreconditionError
		if !errors.As(err, &pe) {
			t.Errorf("CalcSpeed(%v) error = %v, want PreconditionError", gap, err)
		}
	}
}

// --- NoteGap ---

func TestNoteGap(t *testing.T) {
	notes := plain(0, 0, 1, 3)

	tests := []struct {
		i       int
		gap     float64
		stacked bool
	}{
		{0, 1, true},
		{1, 1, false},
		{2, 2, false},
		{3, 3, false}, // tail padded with its own time
	}
	for _, tt := range tests {
		got := NoteGap(notes, tt.i)
		if got.Gap != tt.gap || got.Stacked != tt.stacked {
			t.Errorf("NoteGap(%d) = {gap %v stacked %v}, want {gap %v stacked %v}",
				tt.i, got.Gap, got.Stacked, tt.gap, tt.stacked)
		}
	}
}

// --- Back-light only notes ---

func TestDotNoteOnlyBackLight(t *testing.T) {
	notes := []Note{
		{Time: 0, CutDirection: CutDirectionAny},
		{Time: 1, CutDirection: 1},
	}
	events, err := Synthesize(notes)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	var atZero []Event
	for _, e := range events {
		if e.Time == 0 {
			atZero = append(atZero, e)
		}
	}
	eventsEqual(t, atZero, []Event{
		{Time: 0, Type: BackLightA, Value: 2},
		{Time: 0, Type: BackLightB, Value: 0},
	})
}

func TestBombStopsAfterBackLight(t *testing.T) {
	notes := []Note{
		{Time: 1, Type: NoteTypeBomb, CutDirection: 1},
		{Time: 1, Type: 0, CutDirection: 1},
		{Time: 1.5, Type: 0, CutDirection: 1},
	}
	s := NewState()
	events, err := s.Step(notes, 0)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	eventsEqual(t, events, []Event{
		{Time: 1, Type: BackLightA, Value: 6},
		{Time: 1, Type: BackLightB, Value: 0},
	})
	if s.HasLast || len(s.PaceLog) != 0 || !s.LeftNext {
		t.Errorf("bomb changed state: %+v", s)
	}
}

// A back-light-only note sorted after a normal note at the same beat is a
// duplicate of that beat: it is skipped, and it still stacks the normal note.
func TestBombAfterSameTimeNoteSkipped(t *testing.T) {
	notes := []Note{
		{Time: 1, Type: 0, CutDirection: 1},
		{Time: 1, Type: NoteTypeBomb, CutDirection: 1},
		{Time: 4, Type: 0, CutDirection: 1},
	}
	events, err := Synthesize(notes)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	eventsEqual(t, events, []Event{
		{Time: 1, Type: RingTrigger},
		{Time: 1, Type: PaceBoundary},
		{Time: 1, Type: BackLightB, Value: 3},
		{Time: 1, Type: BackLightA},
		{Time: 1, Type: LaserLeft, Value: 3},
		{Time: 1, Type: LaserRight, Value: 3},
		{Time: 1, Type: LaserLeftSpeed, Value: 1},
		{Time: 1, Type: LaserRightSpeed, Value: 1},
		{Time: 4, Type: BackLightB, Value: 3},
		{Time: 4, Type: BackLightA},
		{Time: 4, Type: LaserLeft},
		{Time: 4, Type: LaserLeftSpeed, Value: 1},
		{Time: 4, Type: LaserLeft, Value: 3},
	})
}

// --- Lasers ---

func TestLaserSidesAlternate(t *testing.T) {
	events, err := Synthesize(plain(0, 1, 2, 3))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	var sides []int
	for _, e := range events {
		if (e.Type == LaserLeft || e.Type == LaserRight) && e.Value == 0 {
			sides = append(sides, e.Type)
		}
	}
	want := []int{LaserLeft, LaserRight, LaserLeft, LaserRight}
	if !reflect.DeepEqual(sides, want) {
		t.Errorf("laser sides = %v, want %v", sides, want)
	}
}

func TestDoubleLasers(t *testing.T) {
	events, err := Synthesize(plain(0, 0, 2))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	eventsEqual(t, events, []Event{
		{Time: 0, Type: RingTrigger},
		{Time: 0, Type: PaceBoundary},
		{Time: 0, Type: BackLightB, Value: 3},
		{Time: 0, Type: BackLightA},
		{Time: 0, Type: LaserLeft, Value: 3},
		{Time: 0, Type: LaserRight, Value: 3},
		{Time: 0, Type: LaserLeftSpeed, Value: 1},
		{Time: 0, Type: LaserRightSpeed, Value: 1},
		// double lasers do not consume the alternation
		{Time: 2, Type: BackLightB, Value: 3},
		{Time: 2, Type: BackLightA},
		{Time: 2, Type: LaserLeft},
		{Time: 2, Type: LaserLeftSpeed, Value: 1},
		{Time: 2, Type: LaserLeft, Value: 3},
	})
}

func TestStackedShortGapAlternates(t *testing.T) {
	events, err := Synthesize(plain(0, 0, 0.5, 1.5))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	var rings, doubles int
	for _, e := range events {
		if e.Type == RingTrigger {
			rings++
		}
		if e.Time == 0 && e.Type == LaserRight {
			doubles++
		}
	}
	if rings != 1 {
		t.Errorf("ring triggers = %d, want 1", rings)
	}
	if doubles != 0 {
		t.Errorf("stacked note with gap < 2 fired the right laser")
	}
}

// --- Pace classification ---

func TestPaceTransitions(t *testing.T) {
	tests := []struct {
		name    string
		notes   []Note
		markers []float64
		log     []string
	}{
		{
			"first medium, dense, then sparse",
			plain(0, 1, 2, 2.5, 3, 5),
			[]float64{0, 2, 3},
			[]string{"a0", "b2", "03"},
		},
		{
			"sparse to medium to dense to medium to sparse",
			plain(0, 3, 4, 4.5, 5, 6.5),
			[]float64{0, 3, 4, 5, 6.5},
			[]string{"00", "a3", "b4", "a5", "06.5"},
		},
		{
			"sparse to dense, consecutive medium unmarked",
			plain(0, 2, 2.5, 3.5, 4.5, 6),
			[]float64{0, 2, 2.5, 6},
			[]string{"00", "b2", "a2.5", "06"},
		},
		{
			"first dense",
			plain(0, 0.5, 1),
			[]float64{0, 1},
			[]string{"b0", "a1"},
		},
		{
			"sparse throughout",
			plain(0, 2, 4),
			[]float64{0},
			[]string{"00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			var markers []float64
			for i := range tt.notes {
				events, err := s.Step(tt.notes, i)
				if err != nil {
					t.Fatalf("Step(%d): %v", i, err)
				}
				for _, e := range events {
					if e.Type == PaceBoundary {
						markers = append(markers, e.Time)
					}
				}
			}
			if !reflect.DeepEqual(markers, tt.markers) {
				t.Errorf("pace markers at %v, want %v", markers, tt.markers)
			}
			if !reflect.DeepEqual(s.PaceLog, tt.log) {
				t.Errorf("PaceLog = %v, want %v", s.PaceLog, tt.log)
			}
		})
	}
}

func TestDuplicateTimeSkipped(t *testing.T) {
	notes := plain(1, 1, 2)
	s := NewState()
	if _, err := s.Step(notes, 0); err != nil {
		t.Fatalf("Step(0): %v", err)
	}
	events, err := s.Step(notes, 1)
	if err != nil {
		t.Fatalf("Step(1): %v", err)
	}
	if len(events) != 0 {
		t.Errorf("duplicate-time note produced %d events", len(events))
	}
}

func TestEndToEnd(t *testing.T) {
	notes := []Note{
		{Time: 0, Type: 0, CutDirection: 0},
		{Time: 0.5, Type: 0, CutDirection: 0},
		{Time: 3, Type: 0, CutDirection: 0},
	}
	events, err := Synthesize(notes)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	eventsEqual(t, events, []Event{
		// dense at 0
		{Time: 0, Type: PaceBoundary},
		{Time: 0, Type: BackLightB, Value: 6},
		{Time: 0, Type: BackLightA},
		{Time: 0, Type: LaserLeft},
		{Time: 0, Type: LaserLeftSpeed, Value: 7},
		{Time: 0, Type: LaserLeft, Value: 7},
		// sparse from 0.5
		{Time: 0.5, Type: PaceBoundary},
		{Time: 0.5, Type: BackLightB, Value: 3},
		{Time: 0.5, Type: BackLightA},
		{Time: 0.5, Type: LaserRight},
		{Time: 0.5, Type: LaserRightSpeed, Value: 1},
		{Time: 0.5, Type: LaserRight, Value: 3},
		{Time: 3, Type: BackLightB, Value: 3},
		{Time: 3, Type: BackLightA},
		{Time: 3, Type: LaserLeft},
		{Time: 3, Type: LaserLeftSpeed, Value: 1},
		{Time: 3, Type: LaserLeft, Value: 3},
		// ring back-fill of the dense section only
		{Time: 0, Type: RingRotationValue, Value: 7},
	})
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	notes := []Note{
		{Time: 0, CutDirection: 1},
		{Time: 0, CutDirection: 2},
		{Time: 0.25, CutDirection: CutDirectionAny},
		{Time: 0.75, Type: NoteTypeBomb},
		{Time: 1.5, CutDirection: 3},
		{Time: 4, CutDirection: 1},
		{Time: 4.5, CutDirection: 1},
	}
	first, err := Synthesize(notes)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	second, err := Synthesize(notes)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	eventsEqual(t, second, first)
}

func TestSynthesizeZeroGap(t *testing.T) {
	_, err := Synthesize(plain(0))
	var pe *PreconditionError
	if !errors.As(err, &pe) {
		t.Fatalf("Synthesize error = %v, want PreconditionError", err)
	}
	if pe.Time != 0 || pe.Gap != 0 {
		t.Errorf("PreconditionError = %+v", pe)
	}
}

func TestSynthesizeEmpty(t *testing.T) {
	events, err := Synthesize(nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("Synthesize(nil) = %v, want empty non-nil slice", events)
	}
}

// --- Backfill ---

func TestBackfill(t *testing.T) {
	tests := []struct {
		name string
		log  []string
		want []Event
	}{
		{
			name: "fractional start and sparse skip",
			log:  []string{"a0.5", "b3", "02", "a5"},
			want: []Event{
				{Time: 0.5, Type: RingRotationValue, Value: 3},
				{Time: 1, Type: RingRotationValue, Value: 3},
				{Time: 2, Type: RingRotationValue, Value: 3},
			},
		},
		{
			name: "dense then medium",
			log:  []string{"b1", "a3.5", "b4"},
			want: []Event{
				{Time: 1, Type: RingRotationValue, Value: 7},
				{Time: 2, Type: RingRotationValue, Value: 7},
				{Time: 3, Type: RingRotationValue, Value: 7},
				{Time: 3.5, Type: RingRotationValue, Value: 3},
			},
		},
		{
			name: "last entry never filled",
			log:  []string{"b1"},
			want: nil,
		},
		{
			name: "unparseable current entry",
			log:  []string{"bx", "a1", "b3"},
			want: []Event{
				{Time: 1, Type: RingRotationValue, Value: 3},
				{Time: 2, Type: RingRotationValue, Value: 3},
			},
		},
		{
			name: "unparseable next entry",
			log:  []string{"a1", "?", "b3"},
			want: nil,
		},
		{
			name: "infinite next entry",
			log:  []string{"a1", "bInf"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventsEqual(t, Backfill(tt.log), tt.want)
		})
	}
}

func TestParsePaceChange(t *testing.T) {
	pc, err := ParsePaceChange("b0.5")
	if err != nil {
		t.Fatalf("ParsePaceChange: %v", err)
	}
	if pc.Prefix != PaceDense || pc.Time != 0.5 {
		t.Errorf("ParsePaceChange = %+v", pc)
	}
	if pc.String() != "b0.5" {
		t.Errorf("String() = %q, want b0.5", pc.String())
	}

	for _, bad := range []string{"", "a", "a1.2.3", "bNaN"} {
		_, err := ParsePaceChange(bad)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("ParsePaceChange(%q) error = %v, want ParseError", bad, err)
		}
	}
}
