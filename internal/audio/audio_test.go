package audio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Discovery ---

func TestIsAudioFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"song.mp3", true},
		{"SONG.MP3", true},
		{"/a/b/track.flac", true},
		{"clip.weba", true},
		{"cover.jpg", false},
		{"song.zip", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsAudioFile(tt.path); got != tt.want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestStem(t *testing.T) {
	if got := Stem("/music/My Song.final.mp3"); got != "My Song.final" {
		t.Errorf("Stem = %q, want 'My Song.final'", got)
	}
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.ogg", "a.mp3", "cover.jpg", "a.zip"} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644)
	}
	os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755)

	got, err := FindFiles(dir)
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "a.mp3" || filepath.Base(got[1]) != "b.ogg" {
		t.Errorf("FindFiles = %v, want [a.mp3 b.ogg]", got)
	}
}

func TestFindFilesMissingDir(t *testing.T) {
	if _, err := FindFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("FindFiles on a missing dir should fail")
	}
}

// --- Tags ---

func TestReadTagsUntagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.wav")
	os.WriteFile(path, []byte(strings.Repeat("not really audio ", 16)), 0o644)

	tags, err := ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if tags.Title != "" || tags.Artist != "" || tags.Cover != nil {
		t.Errorf("ReadTags on untagged file = %+v, want empty", tags)
	}
}

func TestReadTagsMissingFile(t *testing.T) {
	if _, err := ReadTags(filepath.Join(t.TempDir(), "gone.mp3")); err == nil {
		t.Error("ReadTags on a missing file should fail")
	}
}

// --- Fetch ---

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracks/song.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher()

	path, err := f.Fetch(context.Background(), srv.URL+"/tracks/song.mp3", dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(path) != "song.mp3" {
		t.Errorf("Fetch path = %q", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "mp3 bytes" {
		t.Errorf("Fetched content = %q", data)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/tracks/missing.mp3", dir); err == nil {
		t.Error("Fetch of a 404 should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, "missing.mp3")); !os.IsNotExist(err) {
		t.Error("failed download left a file behind")
	}
}

func TestFetchRejectsNonAudio(t *testing.T) {
	f := NewFetcher()
	if _, err := f.Fetch(context.Background(), "http://example.com/page.html", t.TempDir()); err == nil {
		t.Error("Fetch should reject URLs that do not name an audio file")
	}
}
