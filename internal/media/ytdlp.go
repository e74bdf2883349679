package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/vidscript-go/internal/config"
	"github.com/user/vidscript-go/internal/model"
	"golang.org/x/time/rate"
)

// YtDlpExtractor implements Extractor using the yt-dlp binary
type YtDlpExtractor struct {
	binaryPath string
	tempDir    string
	cfg        config.MediaConfig
	limiter    *rate.Limiter
	thumbnails *ogScraper
}

// NewYtDlpExtractor creates a new extractor. tempDir empty means the system
// temp directory.
func NewYtDlpExtractor(cfg *config.MediaConfig) *YtDlpExtractor {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &YtDlpExtractor{
		binaryPath: cfg.YtDlpPath,
		tempDir:    tempDir,
		cfg:        *cfg,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		thumbnails: newOGScraper(cfg.Timeout),
	}
}

// probeResult is the subset of yt-dlp -J output the adapter consumes
type probeResult struct {
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
}

// FetchMetadata probes the URL with yt-dlp -J and classifies the platform.
// A missing title falls back to a sentinel; a missing thumbnail is tolerated.
func (e *YtDlpExtractor) FetchMetadata(ctx context.Context, videoURL string) (*Metadata, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binaryPath,
		"-J", "--no-warnings", "--no-playlist", videoURL)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: yt-dlp: %v, stderr: %s", ErrExtraction, err, truncate(stderr.String(), 300))
	}

	meta, err := parseProbeOutput(out.Bytes(), videoURL)
	if err != nil {
		return nil, err
	}

	if meta.Thumbnail == "" {
		// Some extractors omit thumbnails; try the page's Open Graph tags
		if thumb, err := e.thumbnails.Thumbnail(ctx, videoURL); err == nil {
			meta.Thumbnail = thumb
		} else {
			log.Debug().Err(err).Str("url", videoURL).Msg("No thumbnail available")
		}
	}

	return meta, nil
}

// parseProbeOutput converts raw yt-dlp JSON into Metadata
func parseProbeOutput(raw []byte, videoURL string) (*Metadata, error) {
	var probe probeResult
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: invalid yt-dlp output: %v", ErrExtraction, err)
	}

	title := strings.TrimSpace(probe.Title)
	if title == "" {
		title = model.DefaultTitle
	}

	return &Metadata{
		Title:     title,
		Thumbnail: probe.Thumbnail,
		Platform:  ClassifyPlatform(videoURL),
		Duration:  probe.Duration,
	}, nil
}

// DownloadAudio extracts the best audio stream normalized to mp3. The
// returned AudioFile is owned by the caller; exactly one file is written.
func (e *YtDlpExtractor) DownloadAudio(ctx context.Context, videoURL string) (*AudioFile, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	base := filepath.Join(e.tempDir, "vidscript-"+uuid.NewString())
	outPath := base + ".mp3"

	cmd := exec.CommandContext(ctx, e.binaryPath,
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3", "--audio-quality", "192K",
		"--no-warnings", "--no-playlist",
		"-o", base+".%(ext)s",
		videoURL)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// yt-dlp may leave partial files behind on failure
		_ = os.Remove(outPath)
		return nil, fmt.Errorf("%w: yt-dlp: %v, stderr: %s", ErrDownload, err, truncate(stderr.String(), 300))
	}

	if _, err := os.Stat(outPath); err != nil {
		return nil, fmt.Errorf("%w: expected audio file missing: %v", ErrDownload, err)
	}

	return &AudioFile{Path: outPath}, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
