package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOGScraper_Thumbnail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="A Video"/>
			<meta property="og:image" content="https://cdn.example.com/thumb.jpg"/>
		</head><body></body></html>`))
	}))
	defer srv.Close()

	scraper := newOGScraper(5 * time.Second)
	thumb, err := scraper.Thumbnail(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/thumb.jpg", thumb)
}

func TestOGScraper_NoTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head></head><body>nothing here</body></html>`))
	}))
	defer srv.Close()

	scraper := newOGScraper(5 * time.Second)
	_, err := scraper.Thumbnail(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestOGScraper_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	scraper := newOGScraper(5 * time.Second)
	_, err := scraper.Thumbnail(context.Background(), srv.URL)
	require.Error(t, err)
}
