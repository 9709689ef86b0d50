package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/dhowden/tag"
)

// Tags is the metadata sent along with a track.
type Tags struct {
	Title     string
	Artist    string
	Cover     []byte
	CoverMIME string
}

// ReadTags reads title, artist and cover art from an audio file.
// A file without any tags yields empty Tags, not an error.
func ReadTags(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tags{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return Tags{}, nil
	}
	if err != nil {
		return Tags{}, fmt.Errorf("read tags from %s: %w", path, err)
	}

	t := Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
	}
	if p := m.Picture(); p != nil {
		t.Cover = p.Data
		t.CoverMIME = p.MIMEType
	}
	return t, nil
}
