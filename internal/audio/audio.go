package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions accepted by the generation service.
var Extensions = map[string]bool{
	".opus": true,
	".flac": true,
	".webm": true,
	".weba": true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".mp3":  true,
	".oga":  true,
	".mid":  true,
	".amr":  true,
	".aac":  true,
	".wma":  true,
}

// IsAudioFile reports whether path has a supported extension, in any case.
func IsAudioFile(path string) bool {
	return Extensions[strings.ToLower(filepath.Ext(path))]
}

// Stem returns the file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FindFiles lists the supported audio files directly inside dir, sorted.
func FindFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var res []string
	for _, e := range entries {
		if !e.IsDir() && IsAudioFile(e.Name()) {
			res = append(res, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(res)
	return res, nil
}
