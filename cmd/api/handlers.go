package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stefando/wordauth/internal/token"
	"github.com/stefando/wordauth/internal/upload"
)

type presignRequest struct {
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
}

type partURLRequest struct {
	Key        string `json:"key"`
	UploadID   string `json:"upload_id"`
	PartNumber int32  `json:"part_number"`
}

type listPartsRequest struct {
	Key      string `json:"key"`
	UploadID string `json:"upload_id"`
}

type completeRequest struct {
	Key      string        `json:"key"`
	UploadID string        `json:"upload_id"`
	Parts    []upload.Part `json:"parts"`
}

type validateRequest struct {
	Words string `json:"words"`
}

func handlePresign(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req presignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := uploadService.GetPresignedURL(r.Context(), principal, req.ContentType, req.Filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handleInitiate(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req presignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := uploadService.CreateMultipartUpload(r.Context(), principal, req.ContentType, req.Filename)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func handlePartURL(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req partURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	url, err := uploadService.GetSignedURLForPart(r.Context(), principal, req.Key, req.UploadID, req.PartNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func handleListParts(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req listPartsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	parts, err := uploadService.ListParts(r.Context(), principal, req.Key, req.UploadID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parts": parts})
}

func handleComplete(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	done, err := uploadService.CompleteMultipartUpload(r.Context(), principal, req.Key, req.UploadID, req.Parts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

func handleAbort(w http.ResponseWriter, r *http.Request) {
	principal, _ := principalFrom(r.Context())

	var req listPartsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := uploadService.AbortMultipartUpload(r.Context(), principal, req.Key, req.UploadID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleValidate is the standalone validation endpoint for clients that are
// not fronted by the lambda authorizer.
func handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Words == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing words parameter"})
		return
	}

	principal, err := protocol.Validate(r.Context(), req.Words)
	if err != nil {
		var denial *token.Denial
		if errors.As(err, &denial) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"valid": false,
				"error": "code validation failed",
			})
			return
		}
		logger.Error("validation failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "validation temporarily unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"principal": principal.String(),
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, upload.ErrUnsupportedContentType):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content type not allowed"})
	case errors.Is(err, upload.ErrInvalidPartNumber):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "part number out of range"})
	case errors.Is(err, upload.ErrCompletionRejected):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "completion rejected by store"})
	case errors.Is(err, upload.ErrUpstreamUnavailable):
		logger.Error("upstream unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "upstream unavailable"})
	default:
		logger.Error("unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
