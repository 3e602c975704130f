// Package stdio runs a MiniMCP instance over line-delimited JSON on stdin
// and stdout: one JSON-RPC message per line in, one response line out.
// Grounded on the teacher's internal/server.stdioSession (bufio.Reader over
// stdin, a goroutine-backed cancelable readLine, write-with-trailing-newline
// to stdout) and the original minimcp stdio.py's line-oriented framing.
package stdio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sreenaths/minimcp-go"
	"github.com/sreenaths/minimcp-go/internal/log"
)

// Session reads JSON-RPC messages from in and writes responses to out, one
// per line. Every line is dispatched concurrently (the original spawns one
// task per message too), so a slow tool call on line 1 never blocks line 2
// from being read and processed.
type Session struct {
	server *minimcp.MiniMCP
	reader *bufio.Reader
	writer io.Writer
	logger log.Logger
}

// New builds a stdio Session. logger must route to stderr only -- stdout is
// reserved for protocol frames, matching the ambient-stack constraint every
// transport here is built against.
func New(server *minimcp.MiniMCP, in io.Reader, out io.Writer, logger log.Logger) *Session {
	return &Session{server: server, reader: bufio.NewReader(in), writer: out, logger: logger}
}

// Run reads lines until in is closed (io.EOF) or ctx is canceled, dispatching
// each to the server and writing back its response line. A malformed line
// produces a JSON-RPC error response rather than stopping the session.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.readLine(ctx)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		go s.handleLine(ctx, line)
	}
}

func (s *Session) handleLine(ctx context.Context, line []byte) {
	send := func(ctx context.Context, raw []byte) error { return s.writeLine(raw) }
	resp, err := s.server.Handle(ctx, line, send, nil)
	if err != nil {
		var protoErr *minimcp.ProtocolError
		if errors.As(err, &protoErr) {
			// line never reached dispatch (bad JSON or a malformed envelope);
			// protoErr.Body is already the ErrorResponse frame to send back.
			if werr := s.writeLine(protoErr.Body); werr != nil {
				s.logger.ErrorContext(ctx, "writing stdio response failed", "error", werr.Error())
			}
			return
		}
		s.logger.ErrorContext(ctx, "stdio message processing failed", "error", err.Error())
		return
	}
	if resp == nil {
		return // notification: no response expected
	}
	if err := s.writeLine(resp); err != nil {
		s.logger.ErrorContext(ctx, "writing stdio response failed", "error", err.Error())
	}
}

// readLine reads one line, aborting early if ctx is canceled while blocked
// on the underlying reader -- bufio.Reader.ReadString has no context
// support, so the read runs in its own goroutine exactly as the teacher's
// stdioSession.readLine does.
func (s *Session) readLine(ctx context.Context) ([]byte, error) {
	type result struct {
		line []byte
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		line, err := s.reader.ReadString('\n')
		resultCh <- result{line: []byte(line), err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil && r.err != io.EOF {
			return nil, r.err
		}
		if len(r.line) == 0 && r.err == io.EOF {
			return nil, io.EOF
		}
		return r.line, nil
	}
}

// writeLine writes raw followed by a single newline. A single writer is
// shared by every concurrently dispatched line, so writes are serialized
// through the underlying io.Writer's own synchronization (os.Stdout's writes
// are already safe for concurrent use).
func (s *Session) writeLine(raw []byte) error {
	_, err := fmt.Fprintf(s.writer, "%s\n", raw)
	return err
}
