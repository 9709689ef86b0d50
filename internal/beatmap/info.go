package beatmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InfoFileName is the metadata-only file shipped in every level archive.
// It is never a beatmap.
const InfoFileName = "Info.dat"

// Info is the subset of Info.dat the tool reads.
type Info struct {
	Version         string       `json:"_version"`
	SongName        string       `json:"_songName"`
	SongAuthorName  string       `json:"_songAuthorName"`
	BeatsPerMinute  float64      `json:"_beatsPerMinute"`
	EnvironmentName string       `json:"_environmentName"`
	Sets            []BeatmapSet `json:"_difficultyBeatmapSets"`
}

// BeatmapSet groups the difficulties of one characteristic (mode).
type BeatmapSet struct {
	Characteristic string       `json:"_beatmapCharacteristicName"`
	Difficulties   []Difficulty `json:"_difficultyBeatmaps"`
}

// Difficulty points at one difficulty document.
type Difficulty struct {
	Name     string `json:"_difficulty"`
	Filename string `json:"_beatmapFilename"`
}

// IsInfoFile reports whether path names the metadata file, in any case.
func IsInfoFile(path string) bool {
	return strings.EqualFold(filepath.Base(path), InfoFileName)
}

// LoadInfo reads an Info.dat file.
func LoadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, &FormatError{Path: path, Reason: "invalid info file", Err: err}
	}
	return &info, nil
}

// FindInfo returns the Info.dat next to a difficulty document.
func FindInfo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && IsInfoFile(e.Name()) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no %s in %s", InfoFileName, dir)
}
