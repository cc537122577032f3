package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/pipeline"
)

const defaultTraceLimit = 20

// ChatRequest is the body of both chat endpoints. Category is accepted for
// compatibility and ignored; the router decides.
type ChatRequest struct {
	Query            string `json:"query"`
	Category         string `json:"category,omitempty"`
	WebSearchEnabled bool   `json:"web_search_enabled"`
}

// CategoryInfo describes one category for the UI.
type CategoryInfo struct {
	Label           string   `json:"label"`
	SampleQuestions []string `json:"sample_questions"`
}

func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request) (ChatRequest, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}
	s.logger.Debug("chat request", zap.String("query", req.Query), zap.Bool("web", req.WebSearchEnabled))
	result, err := s.pipeline.Process(r.Context(), req.Query, req.WebSearchEnabled, false)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		s.logger.Error("chat failed", zap.Error(err))
		resp := chatError{Error: err.Error()}
		if result != nil {
			resp.Category = result.Category.String()
			entities := result.Entities
			resp.Entities = &entities
		}
		s.respondJSON(w, http.StatusInternalServerError, resp)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// chatError keeps the routing outcome of a failed run next to the error.
type chatError struct {
	Error    string           `json:"error"`
	Category string           `json:"category_detected,omitempty"`
	Entities *models.Entities `json:"entities,omitempty"`
}

type streamEvent struct {
	Type             string `json:"type"`
	Category         string `json:"category,omitempty"`
	WebSearchUsed    *bool  `json:"web_search_used,omitempty"`
	HasLocalResults  *bool  `json:"has_local_results,omitempty"`
	AutoWebTriggered *bool  `json:"auto_web_triggered,omitempty"`
	Content          string `json:"content,omitempty"`
	Message          string `json:"message,omitempty"`
}

func metaEvent(r *models.PipelineResult) streamEvent {
	web, local, auto := r.WebSearchUsed, r.HasLocalResults, r.AutoWebTriggered
	return streamEvent{
		Type:             "meta",
		Category:         r.Category.String(),
		WebSearchUsed:    &web,
		HasLocalResults:  &local,
		AutoWebTriggered: &auto,
	}
}

// handleChatStream answers as server-sent events: one meta event, chunk
// events as fragments arrive, then done. Any failure after the headers are
// written becomes a single error event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeChat(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(ev streamEvent) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	ctx := r.Context()
	result, err := s.pipeline.Process(ctx, req.Query, req.WebSearchEnabled, true)
	if err != nil {
		s.logger.Error("chat stream failed", zap.Error(err))
		_ = send(streamEvent{Type: "error", Message: err.Error()})
		return
	}
	stream := result.Stream
	if stream == nil {
		stream = models.NewStaticStream(result.Text)
	}
	defer stream.Close()

	if err := send(metaEvent(result)); err != nil {
		return
	}
	for stream.Next() {
		if err := send(streamEvent{Type: "chunk", Content: stream.Current()}); err != nil {
			s.logger.Debug("client went away", zap.Error(err))
			return
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("answer stream failed", zap.Error(err))
		_ = send(streamEvent{Type: "error", Message: err.Error()})
		return
	}
	_ = send(streamEvent{Type: "done"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "DegreeFYD assistant API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"cached_queries": s.pipeline.CachedQueries(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]CategoryInfo)
	for _, c := range models.Categories {
		if c == models.CategoryGeneral {
			continue
		}
		out[c.String()] = CategoryInfo{Label: c.Label(), SampleQuestions: models.SampleQuestions(c)}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleRAGLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultTraceLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	log := s.pipeline.Traces()
	traces := log.Recent(limit)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total_logged": log.Len(),
		"returned":     len(traces),
		"traces":       traces,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
