package util

import (
	"context"
	"io"
)

type readCloserCtx struct {
	c context.Context
	r io.ReadCloser
}

func (r *readCloserCtx) Read(p []byte) (n int, err error) {
	if err := r.c.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func (r *readCloserCtx) Close() error {
	return r.r.Close()
}

// NewCtxReadCloser will wrap an io.ReadCloser and return a context-aware
// reader to allow for context cancellation
func NewCtxReadCloser(c context.Context, r io.ReadCloser) io.ReadCloser {
	return &readCloserCtx{
		c: c,
		r: r,
	}
}
