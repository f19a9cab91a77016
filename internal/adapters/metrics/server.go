package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a metrics handler over HTTP.
type Server struct {
	address string
	handler http.Handler
	logger  ports.Logger
	ready   chan struct{}
	addr    net.Addr
}

// NewServer creates a server for handler on address. Call Serve to start it.
func NewServer(address string, handler http.Handler, logger ports.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &Server{
		address: address,
		handler: mux,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. It is valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen for metrics"), "address", s.address)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("serving metrics on http://" + s.addr.String() + "/metrics")

	done := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
		}
		close(done)
	}()

	select {
	case err := <-done:
		if err != nil {
			return zerr.Wrap(err, "metrics server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "failed to shut down metrics server")
	}
	return nil
}
