// Package chassis serves the judgefinder API on one port over two transports.
//
//   - TCP: HTTP/1.1 and HTTP/2 over TLS.
//   - UDP: QUIC, demultiplexed by ALPN. "h3" is HTTP/3 with the same handler,
//     "judgefinder-mcp-v1" is MCP JSON-RPC on a QUIC stream.
//
// HTTP responses advertise HTTP/3 with Alt-Svc. Without configured
// certificates a self-signed one is generated. In plain mode the chassis
// serves cleartext HTTP on TCP only, for use behind a TLS-terminating proxy.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/judgefinder/pkg/mcpquic"
)

// Config holds configuration for the chassis server.
type Config struct {
	Addr      string // TCP and UDP listen address, e.g. ":8443"
	Plain     bool   // cleartext HTTP on TCP, no QUIC
	CertFile  string
	KeyFile   string
	Handler   http.Handler
	MCPServer *server.MCPServer // nil disables MCP over QUIC
	Logger    *slog.Logger
}

// Server is the dual-transport chassis.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	tlsCfg     *tls.Config
	mcpHandler *mcpquic.Handler

	mu        sync.Mutex
	tcpLn     net.Listener
	quicLn    *quic.Listener
	tcpServer *http.Server
	h3Server  *http3.Server
}

// New prepares a server. Certificates are loaded (or generated) here so
// configuration errors surface before any socket is bound.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler == nil {
		return nil, errors.New("chassis: nil handler")
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	if cfg.Plain {
		return s, nil
	}

	tlsCfg, selfSigned, err := TLSConfig(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("chassis: %w", err)
	}
	if selfSigned {
		s.logger.Warn("chassis: using self-signed development certificate")
	}
	s.tlsCfg = tlsCfg
	if cfg.MCPServer != nil {
		s.mcpHandler = mcpquic.NewHandler(cfg.MCPServer, cfg.Logger)
	}
	return s, nil
}

// Listen binds the TCP listener and, unless plain, the UDP listener on the
// same port. A zero port in Addr is resolved by the TCP bind.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	handler := securityHeaders(s.cfg.Handler)
	if s.cfg.Plain {
		ln, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("tcp listen: %w", err)
		}
		s.tcpLn = ln
		s.tcpServer = &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
		return nil
	}

	tcpTLS := s.tlsCfg.Clone()
	tcpTLS.NextProtos = []string{"h2", "http/1.1"}
	ln, err := tls.Listen("tcp", s.cfg.Addr, tcpTLS)
	if err != nil {
		return fmt.Errorf("tcp listen: %w", err)
	}

	host, _, _ := net.SplitHostPort(s.cfg.Addr)
	port := ln.Addr().(*net.TCPAddr).Port
	udpAddr := net.JoinHostPort(host, strconv.Itoa(port))
	qln, err := quic.ListenAddr(udpAddr, s.tlsCfg, mcpquic.QUICConfig())
	if err != nil {
		ln.Close()
		return fmt.Errorf("quic listen: %w", err)
	}

	handler = altSvc(port, handler)
	s.tcpLn = ln
	s.quicLn = qln
	s.tcpServer = &http.Server{Handler: handler, TLSConfig: tcpTLS, ReadHeaderTimeout: 10 * time.Second}
	s.h3Server = &http3.Server{Handler: handler}
	return nil
}

// Addr returns the bound TCP address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tcpLn == nil {
		return nil
	}
	return s.tcpLn.Addr()
}

// Serve runs until ctx is canceled or a listener fails. It calls Listen
// first if needed. Callers shut down with Stop.
func (s *Server) Serve(ctx context.Context) error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info("chassis started", "addr", s.Addr().String(), "plain", s.cfg.Plain, "mcp", s.mcpHandler != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.tcpServer.Serve(s.tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("tcp: %w", err)
		}
		return nil
	})
	if s.quicLn != nil {
		g.Go(func() error { return s.acceptQUIC(gctx) })
	}

	errCh := make(chan error, 1)
	go func() { errCh <- g.Wait() }()
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// acceptQUIC demultiplexes QUIC connections by negotiated ALPN.
func (s *Server) acceptQUIC(ctx context.Context) error {
	for {
		conn, err := s.quicLn.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}

		switch alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn {
		case http3.NextProtoH3:
			go func() {
				if err := s.h3Server.ServeQUICConn(conn); err != nil {
					s.logger.Debug("http3 conn done", "remote", conn.RemoteAddr(), "error", err)
				}
			}()
		case mcpquic.ALPNProtocolMCP:
			if s.mcpHandler == nil {
				conn.CloseWithError(mcpquic.ConnErrorMCPDisabled, "MCP not enabled")
				continue
			}
			go s.mcpHandler.ServeConn(ctx, conn)
		default:
			s.logger.Warn("unknown ALPN, closing", "alpn", alpn, "remote", conn.RemoteAddr())
			conn.CloseWithError(mcpquic.ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
		}
	}
}

// Stop shuts down every listener, draining in-flight HTTP requests until
// ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.tcpServer != nil {
		errs = append(errs, s.tcpServer.Shutdown(ctx))
	}
	if s.h3Server != nil {
		errs = append(errs, s.h3Server.Close())
	}
	if s.quicLn != nil {
		errs = append(errs, s.quicLn.Close())
	}
	s.logger.Info("chassis stopped")
	return errors.Join(errs...)
}

// securityHeaders adds the standard hardening headers. The API serves JSON
// only, so the content policy forbids everything.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// altSvc advertises HTTP/3 on the same port.
func altSvc(port int, next http.Handler) http.Handler {
	v := fmt.Sprintf(`h3=":%d"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", v)
		next.ServeHTTP(w, r)
	})
}
