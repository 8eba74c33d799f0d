package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Sc2Mp3/cache"
	"Sc2Mp3/core/track"
	"Sc2Mp3/core/utils"
	"Sc2Mp3/logger"
	"Sc2Mp3/model"

	"github.com/gorilla/mux"
)

// TrackRetriever is the orchestrator contract the handlers depend on.
type TrackRetriever interface {
	Retrieve(ctx context.Context, url, trackID string) model.DownloadResult
}

// APIHandler serves the download, file and health endpoints.
type APIHandler struct {
	retriever    TrackRetriever
	results      cache.ResultCache // nil disables result reuse
	downloadDir  string
	domainMarker string
	newTrackID   func() string
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(retriever TrackRetriever, results cache.ResultCache, downloadDir, domainMarker string) *APIHandler {
	return &APIHandler{
		retriever:    retriever,
		results:      results,
		downloadDir:  downloadDir,
		domainMarker: domainMarker,
		newTrackID:   track.NewTrackID,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func writeDownloadError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Success: false, Error: msg})
}

// DownloadHandler runs one synchronous download for the posted URL.
func (h *APIHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	var req model.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode download request", logger.ErrorField(err))
		writeDownloadError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	url, err := track.ValidateURL(req.URL, h.domainMarker)
	if err != nil {
		logger.Debug("Rejected download request",
			logger.String("url", req.URL),
			logger.ErrorField(err))
		writeDownloadError(w, http.StatusBadRequest, err.Error())
		return
	}

	if resp, ok := h.cachedResponse(r.Context(), url); ok {
		logger.Info("Serving cached download result",
			logger.String("trackId", resp.TrackID),
			logger.String("url", url))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	trackID := h.newTrackID()
	logger.Info("Starting track download",
		logger.String("trackId", trackID),
		logger.String("url", url))

	res := h.retriever.Retrieve(r.Context(), url, trackID)
	if !res.Success {
		writeDownloadError(w, http.StatusOK, res.Error)
		return
	}

	resp := model.NewDownloadResponse(trackID, res)
	h.rememberResult(r.Context(), url, resp)

	logger.Info("Track download completed",
		logger.String("trackId", trackID),
		logger.String("title", res.Title),
		logger.Bool("cover", res.HasCover()))
	writeJSON(w, http.StatusOK, resp)
}

// cachedResponse returns a previous result for url while its audio file is
// still on disk. Cache failures are logged and treated as misses.
func (h *APIHandler) cachedResponse(ctx context.Context, url string) (model.DownloadResponse, bool) {
	if h.results == nil {
		return model.DownloadResponse{}, false
	}

	entry, err := h.results.Lookup(ctx, url)
	if err != nil {
		logger.Warn("Result cache lookup failed", logger.ErrorField(err))
		return model.DownloadResponse{}, false
	}
	if entry == nil || !utils.FileExists(filepath.Join(h.downloadDir, track.AudioFileName(entry.TrackID))) {
		return model.DownloadResponse{}, false
	}

	res := model.DownloadResult{
		Success:      true,
		Title:        entry.Title,
		ThumbnailURL: entry.CoverURL,
	}
	if entry.CoverExt != "" {
		coverPath := filepath.Join(h.downloadDir, track.CoverFileName(entry.TrackID, entry.CoverExt))
		if utils.FileExists(coverPath) {
			res.CoverPath, res.CoverExt = coverPath, entry.CoverExt
		}
	}
	return model.NewDownloadResponse(entry.TrackID, res), true
}

func (h *APIHandler) rememberResult(ctx context.Context, url string, resp model.DownloadResponse) {
	if h.results == nil {
		return
	}

	entry := cache.Entry{TrackID: resp.TrackID, Title: resp.Title}
	if resp.CoverURL != nil {
		entry.CoverURL = *resp.CoverURL
	}
	if resp.CoverExt != nil {
		entry.CoverExt = *resp.CoverExt
	}
	if err := h.results.Store(ctx, url, entry); err != nil {
		logger.Warn("Result cache store failed", logger.ErrorField(err))
	}
}

// validFileName accepts bare names only, so lookups cannot leave the download dir.
func validFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// DownloadFileHandler streams a stored file as an attachment.
// URL: /download_file/{filename}
func (h *APIHandler) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	if !validFileName(name) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}

	f, err := os.Open(filepath.Join(h.downloadDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	if err != nil {
		logger.Error("Failed to open stored file", logger.String("file", name), logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Error("Failed to stat stored file", logger.String("file", name), logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !info.Mode().IsRegular() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// HealthHandler reports liveness; it never depends on earlier request outcomes.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
