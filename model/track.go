package model

// DownloadRequest is the body of POST /download.
type DownloadRequest struct {
	URL string `json:"url"`
}

// DownloadResult is the outcome of one orchestration call. It is built once per
// request and never persisted; the files it points at live until swept.
type DownloadResult struct {
	Success      bool
	Title        string
	AudioPath    string
	CoverPath    string // empty when no cover was stored
	CoverExt     string // empty when no cover was stored
	ThumbnailURL string // empty when the source exposed no thumbnail
	Error        string
}

// HasCover reports whether a cover file was written for this result.
func (r DownloadResult) HasCover() bool {
	return r.CoverPath != "" && r.CoverExt != ""
}

// DownloadResponse is the success payload of POST /download. Cover fields are
// serialized as null when absent.
type DownloadResponse struct {
	Success  bool    `json:"success"`
	TrackID  string  `json:"track_id"`
	Title    string  `json:"title"`
	CoverURL *string `json:"cover_url"`
	CoverExt *string `json:"cover_ext"`
}

// ErrorResponse is the failure payload of POST /download.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewDownloadResponse converts a successful result into its wire form.
func NewDownloadResponse(trackID string, res DownloadResult) DownloadResponse {
	resp := DownloadResponse{
		Success: true,
		TrackID: trackID,
		Title:   res.Title,
	}
	if res.ThumbnailURL != "" {
		u := res.ThumbnailURL
		resp.CoverURL = &u
	}
	if res.HasCover() {
		ext := res.CoverExt
		resp.CoverExt = &ext
	}
	return resp
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
