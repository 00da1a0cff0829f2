package util

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type trackedCloser struct {
	io.Reader
	closed bool
}

func (c *trackedCloser) Close() error {
	c.closed = true
	return nil
}

func TestCtxReadCloserPassesThrough(t *testing.T) {
	inner := &trackedCloser{Reader: strings.NewReader("some bytes")}
	r := NewCtxReadCloser(context.Background(), inner)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "some bytes", string(b))

	require.NoError(t, r.Close())
	require.True(t, inner.closed)
}

func TestCtxReadCloserStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &trackedCloser{Reader: strings.NewReader("some bytes")}
	r := NewCtxReadCloser(ctx, inner)

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	cancel()

	_, err = r.Read(buf)
	require.ErrorIs(t, err, context.Canceled)
}
