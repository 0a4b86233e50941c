package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/careerforge/careerforge/internal/types"
)

// generateRequest is the JSON body for the generation endpoints.
type generateRequest struct {
	Prompt          string  `json:"prompt"`
	SystemPrompt    string  `json:"system_prompt,omitempty"`
	Feature         string  `json:"feature,omitempty"`
	Tier            string  `json:"tier,omitempty"`
	Complexity      string  `json:"complexity,omitempty"`
	UserID          string  `json:"user_id,omitempty"`
	SessionID       string  `json:"session_id,omitempty"`
	Model           string  `json:"model,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	MaxTokens       int     `json:"max_tokens,omitempty"`
	BypassCache     bool    `json:"bypass_cache,omitempty"`
	CacheTTLSeconds int     `json:"cache_ttl_seconds,omitempty"`
}

func (req *generateRequest) options() types.GenerateOptions {
	return types.GenerateOptions{
		Feature:      types.Feature(req.Feature),
		Tier:         types.Tier(req.Tier),
		Complexity:   types.Complexity(req.Complexity),
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		BypassCache:  req.BypassCache,
		CacheTTL:     time.Duration(req.CacheTTLSeconds) * time.Second,
	}
}

// GenerateText handles POST /v1/generate.
func (h *Repo) GenerateText(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		types.WriteBadRequest(w, "prompt is required")
		return
	}

	resp, err := h.Service.GenerateText(r.Context(), req.Prompt, req.options())
	if err != nil {
		h.Logger.Error("generate failed", "error", err, "user_id", req.UserID)
		types.WriteError(w, err)
		return
	}

	writeJSON(w, resp, http.StatusOK)
}

// streamEvent is one SSE payload on the streaming endpoint. Content
// events carry a delta; the final event carries usage and cost.
type streamEvent struct {
	Content string          `json:"content,omitempty"`
	Done    bool            `json:"done,omitempty"`
	Final   *types.Response `json:"response,omitempty"`
}

// StreamText handles POST /v1/generate/stream using server-sent events.
func (h *Repo) StreamText(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.Prompt == "" {
		types.WriteBadRequest(w, "prompt is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	wroteHeader := false
	resp, err := h.Service.StreamText(r.Context(), req.Prompt, req.options(), func(chunk string) error {
		if !wroteHeader {
			w.WriteHeader(http.StatusOK)
			wroteHeader = true
		}
		if werr := writeSSE(w, streamEvent{Content: chunk}); werr != nil {
			return werr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		h.Logger.Error("stream failed", "error", err, "user_id", req.UserID)
		if !wroteHeader {
			types.WriteError(w, err)
			return
		}
		// Chunks already went out; signal the failure in-band.
		_ = writeSSE(w, streamEvent{Done: true})
		flusher.Flush()
		return
	}

	_ = writeSSE(w, streamEvent{Done: true, Final: resp})
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

func writeSSE(w http.ResponseWriter, event streamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

// embeddingRequest is the JSON body for POST /v1/embeddings.
type embeddingRequest struct {
	Text      string `json:"text"`
	Model     string `json:"model,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// GenerateEmbedding handles POST /v1/embeddings.
func (h *Repo) GenerateEmbedding(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.WriteBadRequest(w, "invalid JSON body")
		return
	}
	if req.Text == "" {
		types.WriteBadRequest(w, "text is required")
		return
	}

	resp, err := h.Service.GenerateEmbedding(r.Context(), req.Text, types.EmbedOptions{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Model:     req.Model,
	})
	if err != nil {
		h.Logger.Error("embedding failed", "error", err, "user_id", req.UserID)
		types.WriteError(w, err)
		return
	}

	writeJSON(w, resp, http.StatusOK)
}
