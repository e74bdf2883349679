package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/user/vidscript-go/internal/media"
	"github.com/user/vidscript-go/internal/model"
	"github.com/user/vidscript-go/internal/store"
	"github.com/user/vidscript-go/internal/transcribe"
)

// fakeStore is an in-memory store.Store for pipeline tests
type fakeStore struct {
	mu     sync.Mutex
	videos map[uint]*model.Video
	jobs   map[uint]*model.Transcription

	nextVideoID uint
	nextJobID   uint
	clock       time.Time

	createVideoErr         error
	createTranscriptionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		videos: make(map[uint]*model.Video),
		jobs:   make(map[uint]*model.Transcription),
		clock:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) CreateVideo(ctx context.Context, video *model.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createVideoErr != nil {
		return f.createVideoErr
	}
	f.nextVideoID++
	video.ID = f.nextVideoID
	video.CreatedAt = f.tick()
	video.UpdatedAt = video.CreatedAt
	copied := *video
	f.videos[video.ID] = &copied
	return nil
}

func (f *fakeStore) GetVideoByIDAndOwner(ctx context.Context, id uint, ownerID string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok || video.OwnerID != ownerID {
		return nil, store.ErrRecordNotFound
	}
	copied := *video
	return &copied, nil
}

func (f *fakeStore) GetVideoByPermanentLink(ctx context.Context, link string) (*model.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, video := range f.videos {
		if video.PermanentLink == link {
			copied := *video
			return &copied, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (f *fakeStore) CreateTranscription(ctx context.Context, job *model.Transcription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTranscriptionErr != nil {
		return f.createTranscriptionErr
	}
	f.nextJobID++
	job.ID = f.nextJobID
	job.CreatedAt = f.tick()
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeStore) GetCompletedTranscription(ctx context.Context, videoID uint, language model.Language) (*model.Transcription, error) {
	return f.findJob(func(j *model.Transcription) bool {
		return j.VideoID == videoID && j.Language == language && j.Status == model.JobStatusCompleted
	})
}

func (f *fakeStore) GetActiveTranscription(ctx context.Context, videoID uint, language model.Language) (*model.Transcription, error) {
	return f.findJob(func(j *model.Transcription) bool {
		return j.VideoID == videoID && j.Language == language && j.Status == model.JobStatusProcessing
	})
}

func (f *fakeStore) GetLatestTranscription(ctx context.Context, videoID uint) (*model.Transcription, error) {
	return f.findJob(func(j *model.Transcription) bool {
		return j.VideoID == videoID
	})
}

// findJob returns the most recently created job matching the predicate
func (f *fakeStore) findJob(match func(*model.Transcription) bool) (*model.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Transcription
	for _, job := range f.jobs {
		if !match(job) {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return nil, store.ErrRecordNotFound
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeStore) ListCompletedTranscriptions(ctx context.Context, videoID uint) ([]*model.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var jobs []*model.Transcription
	for _, job := range f.jobs {
		if job.VideoID == videoID && job.Status == model.JobStatusCompleted {
			copied := *job
			jobs = append(jobs, &copied)
		}
	}
	return jobs, nil
}

func (f *fakeStore) CompleteTranscription(ctx context.Context, id uint, content string, segments []model.Segment, detectedLanguage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("no such job")
	}
	if job.Status != model.JobStatusProcessing {
		return nil
	}
	encoded, err := model.EncodeSegments(segments)
	if err != nil {
		return err
	}
	job.Content = content
	job.Segments = encoded
	job.DetectedLanguage = detectedLanguage
	job.Status = model.JobStatusCompleted
	return nil
}

func (f *fakeStore) FailTranscription(ctx context.Context, id uint, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return errors.New("no such job")
	}
	if job.Status != model.JobStatusProcessing {
		return nil
	}
	job.Status = model.JobStatusFailed
	job.FailReason = reason
	return nil
}

func (f *fakeStore) FailStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, job := range f.jobs {
		if job.Status == model.JobStatusProcessing && job.CreatedAt.Before(olderThan) {
			job.Status = model.JobStatusFailed
			job.FailReason = "abandoned: exceeded processing deadline"
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func (f *fakeStore) jobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func (f *fakeStore) jobByID(id uint) *model.Transcription {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// fakeExtractor is a scripted media.Extractor
type fakeExtractor struct {
	mu          sync.Mutex
	meta        media.Metadata
	metaErr     error
	downloadErr error
	artifacts   []string
}

func (f *fakeExtractor) FetchMetadata(ctx context.Context, url string) (*media.Metadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	meta := f.meta
	if meta.Platform == "" {
		meta.Platform = media.ClassifyPlatform(url)
	}
	if meta.Title == "" {
		meta.Title = model.DefaultTitle
	}
	return &meta, nil
}

func (f *fakeExtractor) DownloadAudio(ctx context.Context, url string) (*media.AudioFile, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	tmp, err := os.CreateTemp("", "pipeline-test-*.mp3")
	if err != nil {
		return nil, err
	}
	tmp.Close()
	f.mu.Lock()
	f.artifacts = append(f.artifacts, tmp.Name())
	f.mu.Unlock()
	return &media.AudioFile{Path: tmp.Name()}, nil
}

func (f *fakeExtractor) artifactPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.artifacts...)
}

// fakeTranscriber is a scripted transcribe.Transcriber
type fakeTranscriber struct {
	mu       sync.Mutex
	result   transcribe.Result
	err      error
	panicMsg string
	blockCh  chan struct{}
	calls    int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string, language model.Language) (*transcribe.Result, error) {
	f.mu.Lock()
	f.calls++
	block := f.blockCh
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	result := f.result
	return &result, nil
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
