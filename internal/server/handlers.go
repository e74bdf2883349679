package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/user/vidscript-go/internal/model"
	"github.com/user/vidscript-go/internal/pipeline"
)

type processVideoRequest struct {
	URL string `json:"url"`
}

type transcribeRequest struct {
	Language model.Language `json:"language"`
}

type videoResponse struct {
	ID            uint   `json:"id"`
	UserID        string `json:"user_id"`
	URL           string `json:"url"`
	Platform      string `json:"platform"`
	Title         string `json:"title"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	PermanentLink string `json:"permanent_link"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type transcriptionResponse struct {
	ID               uint            `json:"id"`
	VideoID          uint            `json:"video_id"`
	Language         string          `json:"language"`
	Content          string          `json:"content"`
	Timestamps       []model.Segment `json:"timestamps"`
	DetectedLanguage string          `json:"detected_language,omitempty"`
	Status           string          `json:"status"`
	CreatedAt        string          `json:"created_at"`
}

type sharedVideoResponse struct {
	Video          videoResponse           `json:"video"`
	Transcriptions []transcriptionResponse `json:"transcriptions"`
}

// handleProcessVideo submits a video URL for metadata extraction
func (s *Server) handleProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req processVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validHTTPURL(req.URL) {
		writeError(w, http.StatusBadRequest, "Invalid video URL")
		return
	}

	video, err := s.orchestrator.SubmitVideo(r.Context(), req.URL, userID(r))
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toVideoResponse(video))
}

// handleTranscribeVideo requests a transcription job for an owned video
func (s *Server) handleTranscribeVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathVideoID(w, r)
	if !ok {
		return
	}

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidLanguage(req.Language) {
		writeError(w, http.StatusBadRequest, "Language must be one of: ar, en, both")
		return
	}

	jobID, existed, err := s.orchestrator.RequestTranscription(r.Context(), videoID, userID(r), req.Language)
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	message := "Transcription started"
	if existed {
		message = "Transcription already exists"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          message,
		"transcription_id": jobID,
	})
}

// handleTranscriptionStatus reports the latest job state for an owned video
func (s *Server) handleTranscriptionStatus(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathVideoID(w, r)
	if !ok {
		return
	}

	status, err := s.orchestrator.GetStatus(r.Context(), videoID, userID(r))
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleGetSharedVideo serves a video and its completed transcriptions by
// permanent link, without authentication
func (s *Server) handleGetSharedVideo(w http.ResponseWriter, r *http.Request) {
	link := mux.Vars(r)["link"]

	shared, err := s.orchestrator.GetSharedVideo(r.Context(), link)
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}

	resp := sharedVideoResponse{
		Video:          toVideoResponse(shared.Video),
		Transcriptions: make([]transcriptionResponse, 0, len(shared.Transcriptions)),
	}
	for _, job := range shared.Transcriptions {
		segments, err := job.DecodeSegments()
		if err != nil {
			log.Error().Err(err).Uint("job_id", job.ID).Msg("Corrupt segment payload")
			segments = nil
		}
		if segments == nil {
			segments = []model.Segment{}
		}
		resp.Transcriptions = append(resp.Transcriptions, transcriptionResponse{
			ID:               job.ID,
			VideoID:          job.VideoID,
			Language:         string(job.Language),
			Content:          job.Content,
			Timestamps:       segments,
			DetectedLanguage: job.DetectedLanguage,
			Status:           string(job.Status),
			CreatedAt:        job.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeOrchestratorError maps pipeline errors onto HTTP status codes
func (s *Server) writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrValidation):
		writeError(w, http.StatusBadRequest, "Failed to process video URL")
	case errors.Is(err, pipeline.ErrNotFound):
		writeError(w, http.StatusNotFound, "Video not found")
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathVideoID parses the {id} path variable, responding 404 when malformed so
// bad ids are indistinguishable from missing videos
func pathVideoID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusNotFound, "Video not found")
		return 0, false
	}
	return uint(id), true
}

func validHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func toVideoResponse(v *model.Video) videoResponse {
	return videoResponse{
		ID:            v.ID,
		UserID:        v.OwnerID,
		URL:           v.SourceURL,
		Platform:      string(v.Platform),
		Title:         v.Title,
		Thumbnail:     v.Thumbnail,
		PermanentLink: v.PermanentLink,
		CreatedAt:     v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     v.UpdatedAt.Format(time.RFC3339),
	}
}
