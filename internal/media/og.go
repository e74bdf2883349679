package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ogScraper fetches a page and reads its Open Graph image tag. Used as a
// thumbnail fallback when yt-dlp reports none.
type ogScraper struct {
	client *http.Client
}

func newOGScraper(timeout time.Duration) *ogScraper {
	return &ogScraper{
		client: &http.Client{Timeout: timeout},
	}
}

// Thumbnail returns the og:image URL of the page, if any
func (o *ogScraper) Thumbnail(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	content, ok := doc.Find(`meta[property="og:image"]`).Attr("content")
	if !ok || content == "" {
		return "", fmt.Errorf("no og:image tag")
	}
	return content, nil
}
