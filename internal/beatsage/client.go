package beatsage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/satindergrewal/beatlight/internal/beatmap"
)

var (
	ErrTooLarge         = errors.New("file size or song length limit exceeded (32MB, 10min for non-Patreon supporters)")
	ErrGenerationFailed = errors.New("map generation failed")
	ErrTimeout          = errors.New("map generation timed out")
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

// Client communicates with the BeatSage custom level API.
type Client struct {
	baseURL string
	cookie  string // optional session cookie copied from a browser
	http    *http.Client
}

// NewClient creates a BeatSage API client.
func NewClient(baseURL, cookie string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		cookie:  cookie,
		http:    &http.Client{Timeout: 2 * time.Minute}, // uploads can be tens of MB
	}
}

// GenerateRequest contains the track and the level options to generate.
type GenerateRequest struct {
	Title        string
	Artist       string
	Difficulties string // comma-separated, e.g. "Hard,Expert"
	Modes        string // comma-separated, e.g. "Standard,90Degree"
	Events       string // comma-separated, e.g. "DotBlocks,Bombs"
	Environment  string
	ModelTag     string // v1, v2, v2-flow

	Audio []byte
	Cover []byte // optional JPEG cover art
}

type createResp struct {
	ID string `json:"id"`
}

type heartbeatResp struct {
	Status string `json:"status"` // PENDING, DONE, ERROR
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-KL-Ajax-Request", "Ajax_Request")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
}

// Generate uploads a track and returns the id of the level being generated.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return "", fmt.Errorf("encode form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/beatsaber_custom_level_create", body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return "", ErrTooLarge
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("submit track: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result createResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no level id in response")
	}
	return result.ID, nil
}

func encodeForm(req GenerateRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"audio_metadata_title", req.Title},
		{"audio_metadata_artist", req.Artist},
		{"difficulties", req.Difficulties},
		{"modes", req.Modes},
		{"events", req.Events},
		{"environment", req.Environment},
		{"system_tag", req.ModelTag},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if err := writeFile(w, "audio_file", "audio/mpeg", req.Audio); err != nil {
		return nil, "", err
	}
	if len(req.Cover) > 0 {
		if err := writeFile(w, "cover_art", "image/jpeg", req.Cover); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, field))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

// PollUntilDone polls the level heartbeat until generation finishes.
// Transient failures are retried; after maxAttempts polls it gives up
// with ErrTimeout.
func (c *Client) PollUntilDone(ctx context.Context, id string, interval time.Duration, maxAttempts int) error {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status, err := c.heartbeat(ctx, id)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			var fatal *statusError
			if errors.As(err, &fatal) && fatal.code < 500 {
				return err
			}
			log.Printf("Heartbeat error: %v, retrying...", err)
		case status == "DONE":
			return nil
		case status == "ERROR":
			return fmt.Errorf("level %s: %w", id, ErrGenerationFailed)
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("level %s after %d polls: %w", id, maxAttempts, ErrTimeout)
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (c *Client) heartbeat(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/beatsaber_custom_level_heartbeat/"+id, nil)
	if err != nil {
		return "", fmt.Errorf("create heartbeat request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode}
	}

	var result heartbeatResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode heartbeat: %w", err)
	}
	return result.Status, nil
}

// Download fetches the generated level archive and writes it to dst.
func (c *Client) Download(ctx context.Context, id, dst string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/beatsaber_custom_level_download/"+id, nil)
	if err != nil {
		return fmt.Errorf("create download request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download level: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download level: %w", &statusError{code: resp.StatusCode})
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read level archive: %w", err)
	}
	return beatmap.WriteFileAtomic(dst, data, 0o644)
}
