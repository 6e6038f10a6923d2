package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/planlift/planlift/internal/floorplan"
	"github.com/planlift/planlift/internal/version"
	_ "golang.org/x/image/bmp"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// AnalyzeResponse wraps a successful analysis result.
type AnalyzeResponse struct {
	Floorplan *floorplan.FloorplanResult `json:"floorplan"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("encode health response", "error", err)
	}
}

// analyzeHandler runs the pipeline on an uploaded floorplan. The multipart
// form carries a required "rooms" part (the semantic room JSON) and an
// optional "image" file; without an image the result uses synthetic
// geometry.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	roomsJSON := r.FormValue("rooms")
	if roomsJSON == "" {
		s.writeErrorResponse(w, "No rooms data provided", http.StatusBadRequest)
		return
	}
	req, err := floorplan.ParseRequest([]byte(roomsJSON))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, floorplan.ErrNoRooms) {
			status = http.StatusUnprocessableEntity
		}
		s.writeErrorResponse(w, fmt.Sprintf("Invalid rooms data: %v", err), status)
		return
	}

	img, err := s.decodeUploadedImage(r)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := s.pipeline.Analyze(r.Context(), img, req)
	if err != nil {
		analyzeRequestsTotal.WithLabelValues("error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Analysis failed: %v", err), http.StatusInternalServerError)
		return
	}
	analyzeRequestsTotal.WithLabelValues("ok").Inc()
	analyzeDuration.Observe(time.Since(start).Seconds())
	roomsPlaced.Observe(float64(len(result.Rooms)))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(AnalyzeResponse{Floorplan: result}); err != nil {
		slog.Error("encode analyze response", "error", err)
	}
}

// decodeUploadedImage reads the optional "image" part. A missing part is
// not an error; the pipeline falls back to synthetic geometry.
func (s *Server) decodeUploadedImage(r *http.Request) (image.Image, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid image upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		return nil, errors.New("image file too large")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}
	uploadSizeBytes.Observe(float64(len(data)))

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image format: %w", err)
	}
	return img, nil
}

// writeErrorResponse writes a JSON error with the given status.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("encode error response", "error", err)
	}
}
