package beatmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/satindergrewal/beatlight/internal/lighting"
)

// FormatError reports a level document that does not have the v2 shape.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// Document is a v2 difficulty file. Keys other than _events are written
// back exactly as they were read.
type Document struct {
	Version string
	Notes   []lighting.Note // sorted by time

	raw map[string]json.RawMessage
}

// Parse validates and decodes a difficulty document.
func Parse(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Reason: "invalid JSON", Err: err}
	}

	versionRaw, ok := field(raw, "_version")
	if !ok {
		if _, v3 := raw["version"]; v3 {
			return nil, &FormatError{Reason: "unsupported schema: only v2 documents with _version are supported"}
		}
		return nil, &FormatError{Reason: "missing _version"}
	}
	doc := &Document{raw: raw}
	if err := json.Unmarshal(versionRaw, &doc.Version); err != nil {
		return nil, &FormatError{Reason: "bad _version", Err: err}
	}

	notesRaw, ok := field(raw, "_notes")
	if !ok {
		return nil, &FormatError{Reason: "missing _notes"}
	}
	if err := json.Unmarshal(notesRaw, &doc.Notes); err != nil {
		return nil, &FormatError{Reason: "bad _notes", Err: err}
	}
	sort.SliceStable(doc.Notes, func(i, j int) bool {
		return doc.Notes[i].Time < doc.Notes[j].Time
	})

	return doc, nil
}

// field returns a top-level value; an explicit null counts as absent.
func field(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// Load reads and validates the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Events decodes the document's current event track.
func (d *Document) Events() ([]lighting.Event, error) {
	var events []lighting.Event
	raw, ok := d.raw["_events"]
	if !ok {
		return events, nil
	}
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode _events: %w", err)
	}
	return events, nil
}

// SetEvents replaces the event track wholesale.
func (d *Document) SetEvents(events []lighting.Event) error {
	if events == nil {
		events = []lighting.Event{}
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode _events: %w", err)
	}
	d.raw["_events"] = raw
	return nil
}

// Marshal encodes the document.
func (d *Document) Marshal() ([]byte, error) {
	return json.Marshal(d.raw)
}

// Relight regenerates the event track of the document at path from its
// notes and rewrites the file atomically.
func Relight(path string) error {
	doc, err := Load(path)
	if err != nil {
		return err
	}

	events, err := lighting.Synthesize(doc.Notes)
	if err != nil {
		return fmt.Errorf("light %s: %w", path, err)
	}
	if err := doc.SetEvents(events); err != nil {
		return err
	}

	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteFileAtomic(path, data, 0o644)
}
