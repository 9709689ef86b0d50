package batch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/satindergrewal/beatlight/internal/archive"
	"github.com/satindergrewal/beatlight/internal/audio"
	"github.com/satindergrewal/beatlight/internal/beatmap"
	"github.com/satindergrewal/beatlight/internal/beatsage"
	"golang.org/x/sync/errgroup"
)

// Generator is the remote level generation service.
type Generator interface {
	Generate(ctx context.Context, req beatsage.GenerateRequest) (string, error)
	PollUntilDone(ctx context.Context, id string, interval time.Duration, maxAttempts int) error
	Download(ctx context.Context, id, dst string) error
}

// Options holds the generation and batch parameters.
type Options struct {
	Difficulties string
	Modes        string
	Events       string
	Environment  string
	ModelTag     string

	OutputDir    string // empty: the input directory
	PollInterval time.Duration
	PollAttempts int
	Workers      int // concurrent document rewrites
}

// Result is the outcome of relighting one document.
type Result struct {
	Path string
	Err  error
}

// Summary counts what a batch run did.
type Summary struct {
	Found     int
	Processed int
	Skipped   int
	Failed    int
	Documents []Result
}

// Runner turns a directory of audio files into lit levels.
type Runner struct {
	gen  Generator
	opts Options
}

// NewRunner creates a batch runner.
func NewRunner(gen Generator, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PollAttempts < 1 {
		opts.PollAttempts = 1
	}
	return &Runner{gen: gen, opts: opts}
}

// Run processes every audio file in inputDir whose level archive does not
// exist yet. A failing file is logged and the batch moves on.
func (r *Runner) Run(ctx context.Context, inputDir string) (Summary, error) {
	var sum Summary

	if _, err := os.Stat(inputDir); err != nil {
		return sum, fmt.Errorf("input directory does not exist: %s", inputDir)
	}
	outDir := r.opts.OutputDir
	if outDir == "" {
		outDir = inputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return sum, fmt.Errorf("create output dir: %w", err)
	}

	files, err := audio.FindFiles(inputDir)
	if err != nil {
		return sum, err
	}
	sum.Found = len(files)
	if len(files) == 0 {
		log.Printf("No audio files found in %s", inputDir)
		return sum, nil
	}
	log.Printf("Found %d audio files to process", len(files))

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		zipPath := filepath.Join(outDir, audio.Stem(path)+".zip")
		if _, err := os.Stat(zipPath); err == nil {
			log.Printf("Skipping %s - output already exists", filepath.Base(path))
			sum.Skipped++
			continue
		}

		log.Printf("Processing file %d/%d: %s", i+1, len(files), filepath.Base(path))
		results, err := r.processFile(ctx, path, zipPath)
		sum.Documents = append(sum.Documents, results...)
		if err != nil {
			log.Printf("Error processing %s: %v", filepath.Base(path), err)
			sum.Failed++
			continue
		}
		sum.Processed++
	}
	return sum, nil
}

func (r *Runner) processFile(ctx context.Context, path, zipPath string) ([]Result, error) {
	tags, err := audio.ReadTags(path)
	if err != nil {
		return nil, err
	}
	stem := audio.Stem(path)
	if tags.Title == "" {
		tags.Title = stem
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	id, err := r.gen.Generate(ctx, beatsage.GenerateRequest{
		Title:        tags.Title,
		Artist:       tags.Artist,
		Difficulties: r.opts.Difficulties,
		Modes:        r.opts.Modes,
		Events:       r.opts.Events,
		Environment:  r.opts.Environment,
		ModelTag:     r.opts.ModelTag,
		Audio:        data,
		Cover:        tags.Cover,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Submitted %q as level %s", tags.Title, id)

	if err := r.gen.PollUntilDone(ctx, id, r.opts.PollInterval, r.opts.PollAttempts); err != nil {
		return nil, err
	}
	if err := r.gen.Download(ctx, id, zipPath); err != nil {
		return nil, err
	}
	log.Printf("Level ready: %s", filepath.Base(zipPath))

	extracted, err := archive.Extract(zipPath, filepath.Join(filepath.Dir(zipPath), stem))
	if err != nil {
		return nil, err
	}

	results := RelightAll(ctx, archive.BeatmapFiles(extracted), r.opts.Workers)
	for _, res := range results {
		if res.Err != nil {
			return results, fmt.Errorf("%d of %d documents not lit", countFailed(results), len(results))
		}
	}
	return results, nil
}

func countFailed(results []Result) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// RelightAll rewrites each document's event track on up to workers
// goroutines. Documents are independent: a failure is recorded in that
// document's Result and never stops the others.
func RelightAll(ctx context.Context, paths []string, workers int) []Result {
	results := make([]Result, len(paths))
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = Result{Path: path}
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			if err := beatmap.Relight(path); err != nil {
				log.Printf("Failed to light %s: %v", filepath.Base(path), err)
				results[i].Err = err
				return nil
			}
			log.Printf("Lit %s", filepath.Base(path))
			return nil
		})
	}
	g.Wait()
	return results
}

// FetchSources downloads source audio from urls into dir. Failed URLs are
// logged and skipped; the paths that are present afterwards are returned.
func FetchSources(ctx context.Context, f *audio.Fetcher, urls []string, dir string) []string {
	var paths []string
	for _, u := range urls {
		path, err := f.Fetch(ctx, u, dir)
		if err != nil {
			log.Printf("Skipping source %s: %v", u, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}
