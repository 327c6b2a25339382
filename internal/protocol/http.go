package protocol

import (
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Handler serves the engine over HTTP: one JSON-RPC message per POST body,
// one response per reply. Notifications are acknowledged with 202 and an
// empty body.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger.Named("http")}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxLineBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("malformed request body", zap.Error(err))
		h.writeResponse(w, errorResponse(nil, CodeParseError, "parse error"))
		return
	}

	resp := h.engine.HandleRequest(r.Context(), &req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeResponse(w, resp)
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("write response failed", zap.Error(err))
	}
}
