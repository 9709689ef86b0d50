package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Fetcher downloads source audio from external URLs.
type Fetcher struct {
	http *http.Client
}

// NewFetcher creates a Fetcher with a generous timeout for large files.
func NewFetcher() *Fetcher {
	return &Fetcher{http: &http.Client{Timeout: 5 * time.Minute}}
}

// Fetch downloads rawURL into dir, named after the last URL path segment,
// and returns the local path. An existing file is not downloaded again.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || !IsAudioFile(name) {
		return "", fmt.Errorf("url %s does not name a supported audio file", rawURL)
	}

	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); err == nil {
		log.Printf("Source audio %s already present", name)
		return dst, nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	tmp.Close()

	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save audio: %w", err)
	}
	log.Printf("Downloaded source audio %s", name)
	return dst, nil
}
