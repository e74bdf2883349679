package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// JobStatus defines the lifecycle state of a transcription job
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Language is the requested transcription language hint
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
	// LanguageBoth requests auto-detection instead of forced decoding
	LanguageBoth Language = "both"
)

// ValidLanguage reports whether l is one of the accepted hints
func ValidLanguage(l Language) bool {
	switch l {
	case LanguageArabic, LanguageEnglish, LanguageBoth:
		return true
	}
	return false
}

// Segment is a timed span of transcribed text
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcription represents one attempt to transcribe a video into a language.
// Content and Segments are populated only once Status is completed; the row is
// mutated exactly once, by the background job that owns it, into a terminal
// state.
type Transcription struct {
	ID               uint           `gorm:"primaryKey"`
	VideoID          uint           `gorm:"index:idx_video_language;not null"`
	Language         Language       `gorm:"index:idx_video_language;size:10;not null"`
	Content          string         `gorm:"type:longtext"`
	Segments         datatypes.JSON `gorm:"type:json"`
	DetectedLanguage string         `gorm:"size:20"`
	Status           JobStatus      `gorm:"size:20;not null;index"`
	FailReason       string         `gorm:"size:500"`
	CreatedAt        time.Time
}

// TableName returns the table name for Transcription
func (Transcription) TableName() string {
	return "transcriptions"
}

// DecodeSegments unmarshals the stored segment list
func (t *Transcription) DecodeSegments() ([]Segment, error) {
	if len(t.Segments) == 0 {
		return nil, nil
	}
	var segs []Segment
	if err := json.Unmarshal(t.Segments, &segs); err != nil {
		return nil, err
	}
	return segs, nil
}

// EncodeSegments marshals a segment list for storage
func EncodeSegments(segs []Segment) (datatypes.JSON, error) {
	if segs == nil {
		segs = []Segment{}
	}
	raw, err := json.Marshal(segs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
