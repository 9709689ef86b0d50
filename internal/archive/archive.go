package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/satindergrewal/beatlight/internal/beatmap"
)

// Extract unpacks the zip at src into dest and returns the written paths.
// Entries that would land outside dest are rejected.
func Extract(src, dest string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range r.File {
		target := filepath.Join(root, f.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return nil, fmt.Errorf("archive entry %q escapes %s", f.Name, dest)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return nil, err
		}
		paths = append(paths, target)
	}
	return paths, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	return out.Close()
}

// BeatmapFiles returns the difficulty documents among paths: every .dat
// file except the metadata-only Info.dat, sorted.
func BeatmapFiles(paths []string) []string {
	var res []string
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".dat") || beatmap.IsInfoFile(p) || beatmap.IsTempFile(p) {
			continue
		}
		res = append(res, p)
	}
	sort.Strings(res)
	return res
}

// BeatmapFilesIn lists the difficulty documents directly inside dir.
func BeatmapFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return BeatmapFiles(paths), nil
}
