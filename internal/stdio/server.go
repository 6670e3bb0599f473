// Package stdio adapts the dispatcher to a newline-delimited JSON
// transport: one request object per line on stdin, one response
// envelope per line on stdout.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tooldesk/tooldesk/internal/core"
)

const maxLineBytes = 1 << 20

// Server pumps requests from in to out until EOF.
type Server struct {
	dispatcher *core.Dispatcher
	in         io.Reader
	out        io.Writer
	logger     *slog.Logger
}

func NewServer(dispatcher *core.Dispatcher, in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	return &Server{dispatcher: dispatcher, in: in, out: out, logger: logger}
}

// Serve reads one JSON request per line and answers each with a
// newline-terminated envelope, flushed immediately. Blank lines are
// skipped and malformed lines get an error envelope; the loop stops at
// EOF or a scanner failure (an oversized line).
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("stdio server starting")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	w := bufio.NewWriter(s.out)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := writeLine(w, s.handleLine(ctx, line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Error("stdio read failed", "err", err)
		writeLine(w, core.ErrorResponse("Server error: "+err.Error()))
		return err
	}
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) core.Response {
	var req core.Request
	if err := json.Unmarshal(line, &req); err != nil {
		return core.ErrorResponse("Invalid JSON: " + err.Error())
	}

	switch req.Type {
	case core.TypeInitialize:
		return s.dispatcher.Initialize()
	case core.TypeListTools:
		return s.dispatcher.ListTools()
	case core.TypeExecuteTool:
		if req.Name == "" {
			return core.ErrorResponse("Tool name not provided")
		}
		callCtx := core.WithTraceID(ctx, uuid.New().String())
		return s.dispatcher.ExecuteTool(callCtx, req.Name, req.Arguments)
	default:
		return core.ErrorResponse(fmt.Sprintf("Unknown request type: %s", req.Type))
	}
}

func writeLine(w *bufio.Writer, resp core.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(core.ErrorResponse("Server error: " + err.Error()))
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
