package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/satindergrewal/beatlight/internal/beatmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{"_version":"2.0.0","_notes":[{"_time":0,"_type":0,"_cutDirection":1},{"_time":1,"_type":1,"_cutDirection":0}],"_events":[]}`

type lightLog struct {
	mu    sync.Mutex
	paths []string
	errs  []error
	ch    chan struct{}
}

func newLightLog() *lightLog {
	return &lightLog{ch: make(chan struct{}, 16)}
}

func (l *lightLog) record(path string, err error) {
	l.mu.Lock()
	l.paths = append(l.paths, path)
	l.errs = append(l.errs, err)
	l.mu.Unlock()
	l.ch <- struct{}{}
}

func (l *lightLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.paths)
}

func (l *lightLog) wait(t *testing.T) {
	t.Helper()
	select {
	case <-l.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no relight happened")
	}
}

func startWatcher(t *testing.T, dir string) (*Watcher, *lightLog) {
	t.Helper()
	w := New(dir, 20*time.Millisecond)
	log := newLightLog()
	w.OnLight = log.record

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// give fsnotify time to register the directory
	time.Sleep(50 * time.Millisecond)
	return w, log
}

func TestWatcherRelightsChangedDocument(t *testing.T) {
	dir := t.TempDir()
	_, log := startWatcher(t, dir)

	path := filepath.Join(dir, "Expert.dat")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	log.wait(t)

	d, err := beatmap.Load(path)
	require.NoError(t, err)
	events, err := d.Events()
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	// the watcher's own rewrite must not trigger another relight
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, log.count())
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	_, log := startWatcher(t, dir)

	path := filepath.Join(dir, "Hard.dat")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	}
	log.wait(t)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, log.count())
}

func TestWatcherIgnoresInfoAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, log := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Info.dat"), []byte(`{"_songName":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".Easy.dat.abc.tmp"), []byte(doc), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, log.count())

	info, _ := os.ReadFile(filepath.Join(dir, "Info.dat"))
	assert.Equal(t, `{"_songName":"x"}`, string(info))
}

func TestWatcherReportsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	_, log := startWatcher(t, dir)

	path := filepath.Join(dir, "Normal.dat")
	require.NoError(t, os.WriteFile(path, []byte(`{"_notes":[]}`), 0o644))
	log.wait(t)

	log.mu.Lock()
	defer log.mu.Unlock()
	var fe *beatmap.FormatError
	assert.ErrorAs(t, log.errs[0], &fe)
}

func TestIsBeatmap(t *testing.T) {
	assert.True(t, isBeatmap("/x/Expert.dat"))
	assert.True(t, isBeatmap("/x/ExpertPlusStandard.DAT"))
	assert.False(t, isBeatmap("/x/info.dat"))
	assert.False(t, isBeatmap("/x/.Expert.dat.1234.tmp"))
	assert.False(t, isBeatmap("/x/song.egg"))
}

func TestRunMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, w.Run(context.Background()))
}
