package media

import (
	"context"
	"errors"
	"os"

	"github.com/user/vidscript-go/internal/model"
)

var (
	// ErrExtraction indicates the metadata probe failed
	ErrExtraction = errors.New("metadata extraction failed")
	// ErrDownload indicates the audio download failed
	ErrDownload = errors.New("audio download failed")
)

// Metadata holds the extracted description of a video
type Metadata struct {
	Title     string
	Thumbnail string
	Platform  model.Platform
	Duration  float64
}

// AudioFile is a scoped temporary artifact. The caller takes exclusive
// ownership and must call Remove on every exit path.
type AudioFile struct {
	Path string
}

// Remove deletes the underlying file. Safe to call more than once.
func (a *AudioFile) Remove() {
	if a == nil || a.Path == "" {
		return
	}
	_ = os.Remove(a.Path)
	a.Path = ""
}

// Extractor defines the media acquisition capability
type Extractor interface {
	// FetchMetadata probes the URL without downloading media
	FetchMetadata(ctx context.Context, url string) (*Metadata, error)

	// DownloadAudio produces a local mp3 artifact owned by the caller
	DownloadAudio(ctx context.Context, url string) (*AudioFile, error)
}
