package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/formstore/pkg/ingest"
)

// uploadResponse is the JSON body of POST /upload.
type uploadResponse struct {
	*ingest.RequestOutcome
	Error string `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestBytes)

	out, err := s.pipeline.ProcessRequest(r)
	if err != nil {
		if errors.Is(err, context.Canceled) || r.Context().Err() != nil {
			s.logger.Info("upload canceled by client",
				"request_id", chimw.GetReqID(r.Context()),
				"error", err,
			)
			return
		}
		writeJSON(w, ErrorStatus(err), uploadResponse{RequestOutcome: out, Error: err.Error()})
		return
	}

	writeJSON(w, StatusFor(out), uploadResponse{RequestOutcome: out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// StatusFor maps a completed request outcome to an HTTP status.
func StatusFor(out *ingest.RequestOutcome) int {
	if out == nil || len(out.Parts) == 0 {
		return http.StatusBadRequest
	}

	failed, ok := out.FirstFailure()
	if !ok {
		return http.StatusCreated
	}

	switch failed.Reason {
	case ingest.ReasonUnsupportedContentType:
		return http.StatusUnsupportedMediaType
	case ingest.ReasonSizeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case ingest.ReasonStorageIOError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// ErrorStatus maps a request-level pipeline error to an HTTP status.
func ErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ingest.ErrFieldsTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
