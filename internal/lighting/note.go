package lighting

const (
	NoteTypeBomb    = 3 // bomb/obstacle-like note: back-light only
	CutDirectionAny = 8 // dot note: back-light only
)

// Event channels understood by the playback engine. The laser channels
// are named by how the synthesizer pairs them: a left side uses 3 and 12,
// a right side uses 2 and 13.
const (
	BackLightA        = 0
	RingRotationValue = 1
	LaserRight        = 2
	LaserLeft         = 3
	BackLightB        = 4
	RingTrigger       = 8
	PaceBoundary      = 9
	LaserLeftSpeed    = 12
	LaserRightSpeed   = 13
)

// Note is a single gameplay target read from a level document.
type Note struct {
	Time         float64 `json:"_time"`
	Type         int     `json:"_type"`
	CutDirection int     `json:"_cutDirection"`
}

// BackLightOnly reports whether the note only drives the back-light channels.
func (n Note) BackLightOnly() bool {
	return n.Type == NoteTypeBomb || n.CutDirection == CutDirectionAny
}

// Event is one lighting instruction in the level's event track.
type Event struct {
	Time  float64 `json:"_time"`
	Type  int     `json:"_type"`
	Value int     `json:"_value"`
}

// NoteWithGap is a note plus the time until the next rhythmically distinct note.
type NoteWithGap struct {
	Note
	Gap     float64
	Stacked bool // another note shares this timestamp
}

// NoteGap computes the gap view of notes[i]. Notes sharing notes[i]'s time
// are skipped when looking for the next distinct time. The last distinct
// time is padded with a synthetic next time of twice its own time.
func NoteGap(notes []Note, i int) NoteWithGap {
	n := notes[i]
	nwg := NoteWithGap{Note: n}

	next := 2 * n.Time
	for j := i + 1; j < len(notes); j++ {
		if notes[j].Time == n.Time {
			nwg.Stacked = true
			continue
		}
		next = notes[j].Time
		break
	}
	nwg.Gap = next - n.Time
	return nwg
}
