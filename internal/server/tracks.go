package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/onehit/internal/shared"
)

const (
	eventSong   = "song"
	eventFinish = "finish"

	// DefaultQuery is streamed when ?q= is missing or blank.
	DefaultQuery = "pink floyd"
)

// TracksHandler streams discovered hits for ?q= as server-sent events, defaulting to [DefaultQuery].
//
// Each hit is a "song" event with a JSON payload; the stream always ends with a "finish" event.
// Hits delivered to the client are saved once the stream ends, even if the client went away.
type TracksHandler struct {
	engine Engine
	logger *log.Logger
}

// NewTracksHandler creates a [TracksHandler].
func NewTracksHandler(engine Engine, logger *log.Logger) *TracksHandler {
	return &TracksHandler{engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *TracksHandler) Routes() []string {
	return []string{"GET /tracks"}
}

func (h *TracksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		query = DefaultQuery
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	logger := shared.WithLogger(h.logger, "query", query)

	d, err := h.engine.DiscoverQuery(ctx, query, nil)
	if err != nil {
		if errors.Is(err, shared.ErrNoCandidates) {
			logger.Info("no candidates")
		} else {
			logger.Error("failed to resolve candidates", "error", err)
		}
		writeEvent(w, eventFinish, []byte(eventFinish))
		flusher.Flush()
		return
	}

	for hit := range d.Hits() {
		data, err := shared.MarshalJSON(hit)
		if err != nil {
			logger.Error("failed to encode hit", "error", err)
			continue
		}
		if err := writeEvent(w, eventSong, data); err != nil {
			logger.Warn("client went away", "error", err)
			break
		}
		flusher.Flush()
	}

	if err := writeEvent(w, eventFinish, []byte(eventFinish)); err == nil {
		flusher.Flush()
	}

	hits := d.Collected()
	if err := h.engine.SaveHits(context.WithoutCancel(ctx), hits); err != nil {
		logger.Error("failed to save hits", "error", err)
	}
	logger.Info("stream finished", "outcome", d.Outcome(), "hits", len(hits))
}

// writeEvent writes one server-sent event.
func writeEvent(w io.Writer, event string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
