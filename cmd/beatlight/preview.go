package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/satindergrewal/beatlight/internal/beatmap"
	"github.com/satindergrewal/beatlight/internal/show"
	"github.com/satindergrewal/beatlight/internal/stream"
	"github.com/satindergrewal/beatlight/internal/web"
	"github.com/spf13/cobra"
)

const defaultBPM = 120

var previewFlags struct {
	port    int
	relight bool
}

func init() {
	previewCmd.Flags().IntVar(&previewFlags.port, "port", 0, "HTTP port (default from config)")
	previewCmd.Flags().BoolVar(&previewFlags.relight, "relight", false, "relight the document before playing it")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <difficulty.dat>",
	Short: "Play a document's light show in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		if previewFlags.relight {
			if err := beatmap.Relight(path); err != nil {
				return err
			}
		}
		s, err := loadShow(path)
		if err != nil {
			return err
		}

		player := show.NewPlayer(cfg.Tick)
		go player.Run(ctx)

		broadcaster := stream.NewBroadcaster()
		go broadcaster.Run(ctx, player.Frames())

		player.Enqueue(s)

		port := cfg.Port
		if previewFlags.port > 0 {
			port = previewFlags.port
		}
		addr := fmt.Sprintf(":%d", port)
		server := &http.Server{Addr: addr, Handler: newPreviewHandler(player, broadcaster, s)}

		go func() {
			<-ctx.Done()
			log.Println("Shutting down...")
			server.Close()
		}()

		log.Printf("Previewing %s on http://localhost%s", s.Name, addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	},
}

// loadShow reads a document's events and schedules them at the tempo from
// the Info.dat beside it.
func loadShow(path string) (show.Show, error) {
	doc, err := beatmap.Load(path)
	if err != nil {
		return show.Show{}, err
	}
	events, err := doc.Events()
	if err != nil {
		return show.Show{}, err
	}

	bpm := float64(defaultBPM)
	if infoPath, err := beatmap.FindInfo(filepath.Dir(path)); err != nil {
		log.Printf("No tempo for %s (%v), assuming %d bpm", filepath.Base(path), err, defaultBPM)
	} else if info, err := beatmap.LoadInfo(infoPath); err != nil {
		log.Printf("Ignoring %s: %v", infoPath, err)
	} else if info.BeatsPerMinute > 0 {
		bpm = info.BeatsPerMinute
	}
	return show.New(filepath.Base(path), events, bpm), nil
}

func newPreviewHandler(player *show.Player, broadcaster *stream.Broadcaster, s show.Show) http.Handler {
	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(web.IndexHTML)
	}).Methods(http.MethodGet)

	r.Handle("/events", stream.NewSSEHandler(broadcaster)).Methods(http.MethodGet)
	r.Handle("/offer", webrtcHandler).Methods(http.MethodPost)

	r.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		name, pos, dur := player.Status()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"show":             name,
			"position":         pos.Seconds(),
			"duration":         dur.Seconds(),
			"queue_size":       player.QueueSize(),
			"frames_sent":      broadcaster.Sent(),
			"sse_listeners":    broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
			"bpm":              s.BPM,
			"cues":             len(s.Cues),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/skip", func(w http.ResponseWriter, r *http.Request) {
		player.Skip()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/replay", func(w http.ResponseWriter, r *http.Request) {
		if !player.TryEnqueue(s) {
			http.Error(w, "queue full", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "queue_size": player.QueueSize()})
	}).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}
