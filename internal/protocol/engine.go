package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hostlink/internal/domain"
)

// Backend supplies the tool catalog and executes tool calls on behalf of
// the engine. The catalog is computed on every ListTools call so callers
// always observe the current set.
type Backend interface {
	ListTools(ctx context.Context) ([]domain.ToolDefinition, error)
	CallTool(ctx context.Context, name string, args json.RawMessage) (*domain.ToolResult, error)
}

// Engine implements the request side of the tool protocol independent of
// transport. Both the stdio loop and the HTTP handler feed it one decoded
// request at a time.
type Engine struct {
	backend Backend
	info    ServerInfo
	logger  *zap.Logger
}

func NewEngine(backend Backend, info ServerInfo, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		backend: backend,
		info:    info,
		logger:  logger.Named("protocol"),
	}
}

// HandleRequest processes a single decoded request and returns the response
// to send, or nil for notifications.
func (e *Engine) HandleRequest(ctx context.Context, req *Request) *Response {
	if req.IsNotification() {
		e.logger.Debug("dropping notification", zap.String("method", req.Method))
		return nil
	}
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, CodeInvalidRequest, "unsupported jsonrpc version")
	}

	switch req.Method {
	case "initialize":
		return e.handleInitialize(req)
	case "ping":
		return e.handlePing(req)
	case "tools/list":
		return e.handleListTools(ctx, req)
	case "tools/call":
		return e.handleCallTool(ctx, req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (e *Engine) handleInitialize(req *Request) *Response {
	result := initializeResult{
		ProtocolVersion: domain.ProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": true},
		},
		ServerInfo: e.info,
	}
	resp, err := successResponse(req.ID, result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return resp
}

// handlePing answers the liveness check with an empty result. Federating
// clients probe healthy sessions with it and treat any error as a dead
// downstream.
func (e *Engine) handlePing(req *Request) *Response {
	resp, err := successResponse(req.ID, struct{}{})
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return resp
}

func (e *Engine) handleListTools(ctx context.Context, req *Request) *Response {
	tools, err := e.backend.ListTools(ctx)
	if err != nil {
		e.logger.Error("list tools failed", zap.Error(err))
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}

	wire := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		wire = append(wire, wireTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	resp, err := successResponse(req.ID, listToolsResult{Tools: wire})
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return resp
}

func (e *Engine) handleCallTool(ctx context.Context, req *Request) *Response {
	var params callParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "invalid tool call parameters")
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := e.backend.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return e.callError(req, params.Name, err)
	}
	resp, err := successResponse(req.ID, result)
	if err != nil {
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
	return resp
}

// callError maps a backend failure onto the wire. Application faults such
// as an unknown tool or a failed execution stay inside a successful
// envelope with isError set; routing and infrastructure faults surface as
// protocol errors.
func (e *Engine) callError(req *Request, name string, err error) *Response {
	switch {
	case errors.Is(err, domain.ErrNamespaceNotFound):
		return errorResponse(req.ID, CodeMethodNotFound, err.Error())
	case errors.Is(err, domain.ErrDownstreamUnavailable):
		return errorResponse(req.ID, CodeInternalError, err.Error())
	case errors.Is(err, domain.ErrInvalidParams):
		return errorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	code, _ := domain.CodeFrom(err)
	switch code {
	case domain.CodeNotFound, domain.CodeInvalidArgument, domain.CodeExecution:
		e.logger.Debug("tool call failed",
			zap.String("tool", name),
			zap.Error(err))
		resp, mErr := successResponse(req.ID, domain.ErrorResult(err.Error()))
		if mErr != nil {
			return errorResponse(req.ID, CodeInternalError, mErr.Error())
		}
		return resp
	default:
		e.logger.Error("tool call failed",
			zap.String("tool", name),
			zap.Error(err))
		return errorResponse(req.ID, CodeInternalError, err.Error())
	}
}
