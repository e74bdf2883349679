package store

import (
	"context"
	"time"

	"github.com/user/vidscript-go/internal/model"
)

// Store defines the interface for data persistence operations
type Store interface {
	// Video operations
	CreateVideo(ctx context.Context, video *model.Video) error
	GetVideoByIDAndOwner(ctx context.Context, id uint, ownerID string) (*model.Video, error)
	GetVideoByPermanentLink(ctx context.Context, link string) (*model.Video, error)

	// Transcription operations
	CreateTranscription(ctx context.Context, job *model.Transcription) error
	GetCompletedTranscription(ctx context.Context, videoID uint, language model.Language) (*model.Transcription, error)
	GetActiveTranscription(ctx context.Context, videoID uint, language model.Language) (*model.Transcription, error)
	GetLatestTranscription(ctx context.Context, videoID uint) (*model.Transcription, error)
	ListCompletedTranscriptions(ctx context.Context, videoID uint) ([]*model.Transcription, error)
	CompleteTranscription(ctx context.Context, id uint, content string, segments []model.Segment, detectedLanguage string) error
	FailTranscription(ctx context.Context, id uint, reason string) error
	FailStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
