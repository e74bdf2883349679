package media

import (
	"testing"

	"github.com/user/vidscript-go/internal/model"
)

func TestClassifyPlatform(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected model.Platform
	}{
		{"youtube watch", "https://youtube.com/watch?v=abc", model.PlatformYouTube},
		{"youtube www", "https://www.youtube.com/watch?v=abc", model.PlatformYouTube},
		{"youtube short link", "https://youtu.be/abc", model.PlatformYouTube},
		{"youtube music subdomain", "https://music.youtube.com/watch?v=abc", model.PlatformYouTube},
		{"tiktok", "https://www.tiktok.com/@user/video/123", model.PlatformTikTok},
		{"twitter", "https://twitter.com/user/status/123", model.PlatformTwitter},
		{"x.com", "https://x.com/user/status/123", model.PlatformTwitter},
		{"vimeo is unknown", "https://vimeo.com/123", model.PlatformUnknown},
		{"bare host", "https://example.com/video", model.PlatformUnknown},
		{"lookalike domain", "https://notyoutube.com/watch?v=abc", model.PlatformUnknown},
		{"youtube in path only", "https://example.com/youtube.com", model.PlatformUnknown},
		{"uppercase host", "https://WWW.YOUTUBE.COM/watch?v=abc", model.PlatformYouTube},
		{"empty string", "", model.PlatformUnknown},
		{"garbage", "://///", model.PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPlatform(tt.url); got != tt.expected {
				t.Errorf("ClassifyPlatform(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}
