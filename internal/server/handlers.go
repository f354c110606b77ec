package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
)

const maxBodyBytes = 1 << 16

type apiHandlers struct {
	engine Engine
	logger *log.Logger
}

// brokenTrack records a client report from form fields youtube_id and name.
func (h *apiHandlers) brokenTrack(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	id, name := r.PostForm.Get("youtube_id"), r.PostForm.Get("name")
	if err := h.engine.MarkBroken(r.Context(), id, name); err != nil {
		if errors.Is(err, shared.ErrMissingArgument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to mark broken track", "youtube_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mark broken track")
		return
	}

	h.logger.Info("broken track reported", "youtube_id", id, "name", name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// playlist lists the playlist newest first; with shuffle=true everything after the newest item is shuffled.
func (h *apiHandlers) playlist(w http.ResponseWriter, r *http.Request) {
	list := h.engine.PlaylistList
	if r.URL.Query().Get("shuffle") == "true" {
		list = h.engine.PlaylistShuffled
	}

	hits, err := list(r.Context())
	if err != nil {
		h.logger.Error("failed to list playlist", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list playlist")
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// playlistAdd prepends the JSON hit in the request body.
func (h *apiHandlers) playlistAdd(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var hit models.Hit
	if err := shared.UnmarshalJSON(body, &hit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := hit.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.PlaylistAdd(r.Context(), hit); err != nil {
		h.logger.Error("failed to add playlist item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add playlist item")
		return
	}
	writeJSON(w, http.StatusCreated, hit)
}

func (h *apiHandlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
