// Package mcpquic serves MCP JSON-RPC over a QUIC stream: one bidirectional
// stream per connection, opened with the MCP1 preamble, then newline-delimited
// JSON messages in both directions.
package mcpquic

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/judgefinder/pkg/kit"
)

// Handler runs MCP sessions on connections accepted by someone else's
// listener. The chassis hands it every connection that negotiated
// ALPNProtocolMCP.
type Handler struct {
	mcpServer  *server.MCPServer
	logger     *slog.Logger
	maxMessage int
}

// NewHandler creates a connection handler backed by mcpSrv.
func NewHandler(mcpSrv *server.MCPServer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{mcpServer: mcpSrv, logger: logger, maxMessage: MaxMessageSize}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ServeConn runs one MCP session on the first stream the peer opens.
func (h *Handler) ServeConn(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		h.logger.Warn("mcp: accept stream failed", "remote", remote, "error", err)
		conn.CloseWithError(ConnErrorProtocolViolation, "stream accept failed")
		return
	}

	id := "quic_" + randomHex(4)
	err = h.serveStream(ctx, id, stream)
	switch {
	case errors.Is(err, ErrInvalidMagicBytes):
		stream.CancelRead(StreamErrorProtocolConfusion)
		stream.CancelWrite(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "invalid magic bytes")
	case errors.Is(err, ErrMessageTooLarge):
		stream.CancelRead(StreamErrorMessageTooLarge)
		conn.CloseWithError(ConnErrorProtocolViolation, "message too large")
	default:
		stream.Close()
		conn.CloseWithError(ConnErrorNoError, "session ended")
	}
	if err != nil && ctx.Err() == nil {
		h.logger.Warn("mcp: session failed", "session", id, "remote", remote, "error", err)
	}
}

// serveStream validates the preamble and answers JSON-RPC lines until the
// peer closes its side. It returns nil on a clean EOF.
func (h *Handler) serveStream(ctx context.Context, id string, rw io.ReadWriter) error {
	if err := ValidateMagicBytes(rw); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &lockedWriter{w: rw}
	sess := newSession(id)
	if err := h.mcpServer.RegisterSession(ctx, sess); err != nil {
		return fmt.Errorf("register session: %w", err)
	}
	defer h.mcpServer.UnregisterSession(ctx, id)

	h.logger.Info("mcp: session started", "session", id)
	defer h.logger.Info("mcp: session ended", "session", id)

	ctx = kit.WithTransport(ctx, "mcp_quic")
	ctx = h.mcpServer.WithContext(ctx, sess)
	go sess.forward(ctx, out)

	sc := bufio.NewScanner(rw)
	sc.Buffer(make([]byte, 0, min(4096, h.maxMessage)), h.maxMessage)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := h.mcpServer.HandleMessage(ctx, json.RawMessage(line))
		if resp == nil {
			continue
		}
		if err := out.writeJSON(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("%w (%d bytes)", ErrMessageTooLarge, h.maxMessage)
		}
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// lockedWriter serialises responses and server-initiated notifications on
// the one stream.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err = lw.w.Write(data)
	return err
}

// session implements server.ClientSession for one QUIC stream.
type session struct {
	id            string
	notifications chan mcp.JSONRPCNotification
	initialized   atomic.Bool
}

func newSession(id string) *session {
	return &session{id: id, notifications: make(chan mcp.JSONRPCNotification, 100)}
}

func (s *session) SessionID() string                                   { return s.id }
func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }
func (s *session) Initialize()                                         { s.initialized.Store(true) }
func (s *session) Initialized() bool                                   { return s.initialized.Load() }

func (s *session) forward(ctx context.Context, out *lockedWriter) {
	for {
		select {
		case n := <-s.notifications:
			if err := out.writeJSON(n); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
