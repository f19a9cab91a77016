package metrics_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stencil/internal/adapters/metrics"
	"go.trai.ch/stencil/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestServer_ServesUntilCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).Times(1)

	m := metrics.NewPrometheus()
	m.PublicationDropped()
	srv := metrics.NewServer("127.0.0.1:0", m.Handler(), logger)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	<-srv.Ready()

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "stencil_publications_dropped_total 1")

	resp, err = http.Get("http://" + srv.Addr().String() + "/other")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
}

func TestServer_ListenError(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv := metrics.NewServer("256.0.0.1:bad", metrics.NewPrometheus().Handler(), mocks.NewMockLogger(ctrl))

	err := srv.Serve(t.Context())
	require.ErrorContains(t, err, "failed to listen for metrics")
}
