package transcribe

import (
	"context"
	"errors"

	"github.com/user/vidscript-go/internal/model"
)

// ErrTranscription indicates the speech-to-text engine failed
var ErrTranscription = errors.New("transcription failed")

// Result is the canonical output of a transcription run
type Result struct {
	FullText         string
	Segments         []model.Segment
	DetectedLanguage string
}

// Transcriber defines the speech-to-text capability. Implementations consume
// the artifact exactly once and never own its cleanup.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, language model.Language) (*Result, error)
}
