package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single request line read from stdin.
const maxLineBytes = 4 * 1024 * 1024

// StdioServer serves the engine over newline-delimited JSON on an
// io.Reader / io.Writer pair, one message per line.
type StdioServer struct {
	engine *Engine
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

func NewStdioServer(engine *Engine, in io.Reader, out io.Writer, logger *zap.Logger) *StdioServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StdioServer{
		engine: engine,
		in:     in,
		out:    out,
		logger: logger.Named("stdio"),
	}
}

// Run reads requests until EOF or context cancellation. Malformed lines
// produce a parse error response with a null id; the loop keeps going.
func (s *StdioServer) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("malformed request line", zap.Error(err))
			if wErr := s.write(errorResponse(nil, CodeParseError, "parse error")); wErr != nil {
				return wErr
			}
			continue
		}

		resp := s.engine.HandleRequest(ctx, &req)
		if resp == nil {
			continue
		}
		if err := s.write(resp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func (s *StdioServer) write(resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	raw = append(raw, '\n')
	if _, err := s.out.Write(raw); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}
