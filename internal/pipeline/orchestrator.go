package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/vidscript-go/internal/media"
	"github.com/user/vidscript-go/internal/model"
	"github.com/user/vidscript-go/internal/store"
	"github.com/user/vidscript-go/internal/transcribe"
	"golang.org/x/sync/singleflight"
)

// Status is the answer to a transcription status query
type Status struct {
	Status model.JobStatus `json:"status"`
	JobID  uint            `json:"transcription_id,omitempty"`
}

// StatusNotStarted is reported when a video has no transcription attempts
const StatusNotStarted model.JobStatus = "not_started"

// SharedVideo is the public view of a video and its completed transcriptions
type SharedVideo struct {
	Video          *model.Video           `json:"video"`
	Transcriptions []*model.Transcription `json:"transcriptions"`
}

// Orchestrator drives the transcription job state machine: it validates
// preconditions, deduplicates, creates job rows, hands execution to the
// worker pool, and answers status queries. Job state lives in the store;
// the orchestrator itself holds no job state.
type Orchestrator struct {
	store       store.Store
	extractor   media.Extractor
	transcriber transcribe.Transcriber
	pool        *Pool

	// claims deduplicates concurrent identical requests in-process: the
	// loser of a (video, language) race reuses the winner's job id
	claims singleflight.Group
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(st store.Store, extractor media.Extractor, transcriber transcribe.Transcriber, pool *Pool) *Orchestrator {
	return &Orchestrator{
		store:       st,
		extractor:   extractor,
		transcriber: transcriber,
		pool:        pool,
	}
}

// SubmitVideo extracts metadata for the URL and persists a new video row with
// a fresh permanent link. Repeated submission of the same URL creates a new
// row each time.
func (o *Orchestrator) SubmitVideo(ctx context.Context, videoURL, ownerID string) (*model.Video, error) {
	meta, err := o.extractor.FetchMetadata(ctx, videoURL)
	if err != nil {
		log.Warn().Err(err).Str("url", videoURL).Msg("Metadata extraction failed")
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	video := &model.Video{
		OwnerID:       ownerID,
		SourceURL:     videoURL,
		Platform:      meta.Platform,
		Title:         meta.Title,
		Thumbnail:     meta.Thumbnail,
		PermanentLink: uuid.NewString(),
	}

	if err := o.store.CreateVideo(ctx, video); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Info().
		Uint("video_id", video.ID).
		Str("platform", string(video.Platform)).
		Msg("Video submitted")
	return video, nil
}

// RequestTranscription validates ownership, short-circuits when a completed
// job already exists for the (video, language) pair, and otherwise creates a
// processing job and dispatches it. The call returns before the job runs.
func (o *Orchestrator) RequestTranscription(ctx context.Context, videoID uint, ownerID string, language model.Language) (jobID uint, existed bool, err error) {
	video, err := o.store.GetVideoByIDAndOwner(ctx, videoID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return 0, false, ErrNotFound
		}
		return 0, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if done, err := o.store.GetCompletedTranscription(ctx, videoID, language); err == nil {
		return done.ID, true, nil
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if active, err := o.store.GetActiveTranscription(ctx, videoID, language); err == nil {
		// An attempt is already in flight; reuse it instead of racing it
		return active.ID, true, nil
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return 0, false, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Concurrent identical requests share a single insert+dispatch
	type claimResult struct {
		jobID  uint
		reused bool
	}
	key := fmt.Sprintf("%d:%s", videoID, language)
	created, err, _ := o.claims.Do(key, func() (interface{}, error) {
		// Re-check under the claim: a racing caller may have inserted
		// between our lookup and this closure running
		if active, err := o.store.GetActiveTranscription(ctx, videoID, language); err == nil {
			return claimResult{jobID: active.ID, reused: true}, nil
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		job := &model.Transcription{
			VideoID:  videoID,
			Language: language,
			Status:   model.JobStatusProcessing,
		}
		if err := o.store.CreateTranscription(ctx, job); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		o.dispatch(video.SourceURL, videoID, job.ID, language)
		return claimResult{jobID: job.ID}, nil
	})
	if err != nil {
		return 0, false, err
	}
	res := created.(claimResult)
	return res.jobID, res.reused, nil
}

// GetStatus returns the state of the most recent job for the video across
// all languages; not_started when none exists. Read-only.
func (o *Orchestrator) GetStatus(ctx context.Context, videoID uint, ownerID string) (*Status, error) {
	if _, err := o.store.GetVideoByIDAndOwner(ctx, videoID, ownerID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	job, err := o.store.GetLatestTranscription(ctx, videoID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return &Status{Status: StatusNotStarted}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &Status{Status: job.Status, JobID: job.ID}, nil
}

// GetSharedVideo resolves a permanent link without any ownership check and
// returns the video with its completed transcriptions only
func (o *Orchestrator) GetSharedVideo(ctx context.Context, permanentLink string) (*SharedVideo, error) {
	video, err := o.store.GetVideoByPermanentLink(ctx, permanentLink)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	jobs, err := o.store.ListCompletedTranscriptions(ctx, video.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if jobs == nil {
		jobs = []*model.Transcription{}
	}
	return &SharedVideo{Video: video, Transcriptions: jobs}, nil
}

// dispatch hands a job to the worker pool
func (o *Orchestrator) dispatch(videoURL string, videoID, jobID uint, language model.Language) {
	jobsStarted.Inc()
	o.pool.Dispatch(func(ctx context.Context) {
		o.runJob(ctx, videoURL, videoID, jobID, language)
	})
}

// runJob executes one job to its terminal state: download, transcribe,
// persist. Every failure path, including a panic in an adapter, lands the job
// in failed; the audio artifact is removed on every exit.
func (o *Orchestrator) runJob(ctx context.Context, videoURL string, videoID, jobID uint, language model.Language) {
	started := time.Now()
	logger := log.With().
		Uint("video_id", videoID).
		Uint("job_id", jobID).
		Str("language", string(language)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Transcription job panicked")
			o.failJob(ctx, jobID, fmt.Sprintf("internal fault: %v", r), started)
		}
	}()

	audio, err := o.extractor.DownloadAudio(ctx, videoURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Audio download failed")
		o.failJob(ctx, jobID, err.Error(), started)
		return
	}
	defer audio.Remove()

	result, err := o.transcriber.Transcribe(ctx, audio.Path, language)
	if err != nil {
		logger.Warn().Err(err).Msg("Transcription failed")
		o.failJob(ctx, jobID, err.Error(), started)
		return
	}

	if err := o.store.CompleteTranscription(ctx, jobID, result.FullText, result.Segments, result.DetectedLanguage); err != nil {
		logger.Error().Err(err).Msg("Failed to persist transcription result")
		o.failJob(ctx, jobID, err.Error(), started)
		return
	}

	recordJobFinished(string(model.JobStatusCompleted), started)
	logger.Info().
		Int("segments", len(result.Segments)).
		Dur("elapsed", time.Since(started)).
		Msg("Transcription completed")
}

func (o *Orchestrator) failJob(ctx context.Context, jobID uint, reason string, started time.Time) {
	recordJobFinished(string(model.JobStatusFailed), started)
	if err := o.store.FailTranscription(ctx, jobID, reason); err != nil {
		log.Error().Err(err).Uint("job_id", jobID).Msg("Failed to mark job as failed")
	}
}
