package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/vidscript-go/internal/config"
	"github.com/user/vidscript-go/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrRecordNotFound is returned when a lookup matches no row. Ownership
// filters are part of the query, so a row owned by someone else surfaces as
// this same error.
var ErrRecordNotFound = errors.New("record not found")

// MySQLStore implements Store interface using MySQL database
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store instance
func NewMySQLStore(cfg *config.DBConfig) (*MySQLStore, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Auto migrate tables
	if err := db.AutoMigrate(&model.Video{}, &model.Transcription{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// CreateVideo persists a new video row
func (s *MySQLStore) CreateVideo(ctx context.Context, video *model.Video) error {
	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// GetVideoByIDAndOwner retrieves a video only when it belongs to ownerID.
// A foreign video and a missing video are indistinguishable to the caller.
func (s *MySQLStore) GetVideoByIDAndOwner(ctx context.Context, id uint, ownerID string) (*model.Video, error) {
	var video model.Video
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&video)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", result.Error)
	}
	return &video, nil
}

// GetVideoByPermanentLink retrieves a video by its public link, with no
// ownership filter. This is the public sharing path.
func (s *MySQLStore) GetVideoByPermanentLink(ctx context.Context, link string) (*model.Video, error) {
	var video model.Video
	result := s.db.WithContext(ctx).Where("permanent_link = ?", link).First(&video)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get video by link: %w", result.Error)
	}
	return &video, nil
}

// CreateTranscription inserts a new job row, normally in processing state
func (s *MySQLStore) CreateTranscription(ctx context.Context, job *model.Transcription) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create transcription: %w", err)
	}
	return nil
}

// GetCompletedTranscription finds a completed job for the (video, language)
// pair, or ErrRecordNotFound when no attempt has completed yet
func (s *MySQLStore) GetCompletedTranscription(ctx context.Context, videoID uint, language model.Language) (*model.Transcription, error) {
	var job model.Transcription
	result := s.db.WithContext(ctx).
		Where("video_id = ? AND language = ? AND status = ?", videoID, language, model.JobStatusCompleted).
		Order("created_at DESC").
		First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get completed transcription: %w", result.Error)
	}
	return &job, nil
}

// GetActiveTranscription finds a processing job for the (video, language)
// pair. Used to reuse an in-flight attempt instead of starting a duplicate.
func (s *MySQLStore) GetActiveTranscription(ctx context.Context, videoID uint, language model.Language) (*model.Transcription, error) {
	var job model.Transcription
	result := s.db.WithContext(ctx).
		Where("video_id = ? AND language = ? AND status = ?", videoID, language, model.JobStatusProcessing).
		Order("created_at DESC").
		First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get active transcription: %w", result.Error)
	}
	return &job, nil
}

// GetLatestTranscription returns the most recently created job for a video
// across all languages
func (s *MySQLStore) GetLatestTranscription(ctx context.Context, videoID uint) (*model.Transcription, error) {
	var job model.Transcription
	result := s.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		First(&job)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get latest transcription: %w", result.Error)
	}
	return &job, nil
}

// ListCompletedTranscriptions returns all completed jobs for a video,
// across all languages
func (s *MySQLStore) ListCompletedTranscriptions(ctx context.Context, videoID uint) ([]*model.Transcription, error) {
	var jobs []*model.Transcription
	result := s.db.WithContext(ctx).
		Where("video_id = ? AND status = ?", videoID, model.JobStatusCompleted).
		Order("created_at ASC").
		Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list completed transcriptions: %w", result.Error)
	}
	return jobs, nil
}

// CompleteTranscription transitions a processing job to completed and writes
// its result in the same update. The status guard keeps terminal states
// absorbing: a job already failed by the reaper stays failed.
func (s *MySQLStore) CompleteTranscription(ctx context.Context, id uint, content string, segments []model.Segment, detectedLanguage string) error {
	encoded, err := model.EncodeSegments(segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}

	result := s.db.WithContext(ctx).
		Model(&model.Transcription{}).
		Where("id = ? AND status = ?", id, model.JobStatusProcessing).
		Updates(map[string]interface{}{
			"content":           content,
			"segments":          encoded,
			"detected_language": detectedLanguage,
			"status":            model.JobStatusCompleted,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to complete transcription: %w", result.Error)
	}
	return nil
}

// FailTranscription transitions a processing job to failed with a reason
func (s *MySQLStore) FailTranscription(ctx context.Context, id uint, reason string) error {
	if len(reason) > 500 {
		reason = reason[:500]
	}
	result := s.db.WithContext(ctx).
		Model(&model.Transcription{}).
		Where("id = ? AND status = ?", id, model.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":      model.JobStatusFailed,
			"fail_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to fail transcription: %w", result.Error)
	}
	return nil
}

// FailStaleProcessing fails every processing job created before olderThan.
// Covers jobs orphaned by a host restart between dispatch and persistence.
func (s *MySQLStore) FailStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.Transcription{}).
		Where("status = ? AND created_at < ?", model.JobStatusProcessing, olderThan).
		Updates(map[string]interface{}{
			"status":      model.JobStatusFailed,
			"fail_reason": "abandoned: exceeded processing deadline",
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to fail stale transcriptions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Ping checks database connectivity
func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *MySQLStore) DB() *gorm.DB {
	return s.db
}
