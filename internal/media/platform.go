package media

import (
	"net/url"
	"strings"

	"github.com/user/vidscript-go/internal/model"
)

// ClassifyPlatform maps a video URL to its hosting platform by hostname.
// Precedence: youtube before tiktok before twitter; anything else is unknown.
func ClassifyPlatform(rawURL string) model.Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case hostMatches(host, "youtube.com") || hostMatches(host, "youtu.be"):
		return model.PlatformYouTube
	case hostMatches(host, "tiktok.com"):
		return model.PlatformTikTok
	case hostMatches(host, "twitter.com") || hostMatches(host, "x.com"):
		return model.PlatformTwitter
	default:
		return model.PlatformUnknown
	}
}

// hostMatches reports whether host is domain or a subdomain of it
func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
