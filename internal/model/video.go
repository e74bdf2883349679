package model

import (
	"time"
)

// Platform identifies the hosting site a video was submitted from
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTikTok  Platform = "tiktok"
	PlatformTwitter Platform = "twitter"
	PlatformUnknown Platform = "unknown"
)

// DefaultTitle is used when the extractor returns no title
const DefaultTitle = "Untitled Video"

// Video represents a submitted video with its extracted metadata.
// PermanentLink is the only identifier exposed publicly; it is generated
// once at creation and never changed.
type Video struct {
	ID            uint     `gorm:"primaryKey"`
	OwnerID       string   `gorm:"size:64;index;not null"`
	SourceURL     string   `gorm:"size:1000;not null"`
	Platform      Platform `gorm:"size:20;not null"`
	Title         string   `gorm:"size:500"`
	Thumbnail     string   `gorm:"size:1000"`
	PermanentLink string   `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for Video
func (Video) TableName() string {
	return "videos"
}
