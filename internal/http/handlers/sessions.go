package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"memegen/internal/domain"
	"memegen/internal/encoder"
)

const (
	maxJSONBody       = 64 << 10
	multipartOverhead = 1 << 20
)

type styleRequest struct {
	Style string `json:"style"`
}

type noteRequest struct {
	Note string `json:"note"`
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := a.Sessions.Create()
	if err != nil {
		a.Logger.Error().Err(err).Msg("http: create session")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create session")
		return
	}
	w.Header().Set("Location", sessionPath(sess.ID))
	a.json(w, http.StatusCreated, newStateResponse(sess, sess.Controller.Snapshot()))
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, newStateResponse(sess, sess.Controller.Snapshot()))
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Delete(chi.URLParam(r, "id")); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage reads the multipart field "image" and makes it the session's
// selected file.
func (a *App) UploadImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds the upload limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "multipart form with an image field required")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("image")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image field required")
		return
	}
	defer f.Close()
	if hdr.Size > a.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds the upload limit")
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, a.MaxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read image")
		return
	}
	if int64(len(data)) > a.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "image exceeds the upload limit")
		return
	}

	mediaType := domain.NormalizeMediaType(hdr.Header.Get("Content-Type"))
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(data)
	}
	snap, err := sess.Controller.SelectFile(encoder.NewBytesFile(hdr.Filename, mediaType, data))
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			a.error(w, http.StatusUnsupportedMediaType, "unsupported_media_type", verr.Message)
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to select image")
		return
	}
	a.json(w, http.StatusOK, newStateResponse(sess, snap))
}

// Preview streams the selected file back, standing in for a local object URL.
func (a *App) Preview(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	snap := sess.Controller.Snapshot()
	if snap.Image == nil {
		a.error(w, http.StatusNotFound, "not_found", "no image selected")
		return
	}
	rc, err := snap.Image.File.Open()
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to open image")
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", snap.Image.File.MediaType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (a *App) SetStyle(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req styleRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if req.Style != "" {
		if _, known := domain.LookupStyle(req.Style); !known {
			a.error(w, http.StatusBadRequest, "unknown_style", "unknown style: "+req.Style)
			return
		}
	}
	a.json(w, http.StatusOK, newStateResponse(sess, sess.Controller.SelectStyle(req.Style)))
}

func (a *App) SetNote(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	a.json(w, http.StatusOK, newStateResponse(sess, sess.Controller.SetNote(req.Note)))
}

// Generate starts a generation and answers immediately. The pipeline is
// detached from the request so a dropped connection does not abort it.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if !a.track() {
		a.error(w, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
		return
	}
	snap, done, err := sess.Controller.Start(context.WithoutCancel(r.Context()))
	if err != nil {
		a.inflight.Done()
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr) && snap.Busy:
			a.error(w, http.StatusConflict, "busy", verr.Message)
		case errors.As(err, &verr):
			a.error(w, http.StatusBadRequest, "no_image", verr.Message)
		default:
			a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		}
		return
	}

	go func() {
		defer a.inflight.Done()
		<-done
	}()
	a.json(w, http.StatusAccepted, newStateResponse(sess, snap))
}

func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
