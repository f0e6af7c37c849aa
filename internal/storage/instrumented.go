package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// instrumented counts blob operations by name and outcome.
type instrumented struct {
	next Storage
	ops  *prometheus.CounterVec
}

// NewInstrumented wraps s so every call increments blob_operations_total.
func NewInstrumented(s Storage, reg prometheus.Registerer) (Storage, error) {
	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_operations_total",
			Help: "Total number of blob store operations by outcome.",
		},
		[]string{"op", "result"},
	)
	if err := reg.Register(ops); err != nil {
		return nil, err
	}
	return &instrumented{next: s, ops: ops}, nil
}

func (i *instrumented) observe(op string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrObjectNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	i.ops.WithLabelValues(op, result).Inc()
}

func (i *instrumented) Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	info, err := i.next.Put(ctx, key, r, opt)
	i.observe("put", err)
	return info, err
}

func (i *instrumented) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	rc, info, err := i.next.Get(ctx, key)
	i.observe("get", err)
	return rc, info, err
}

func (i *instrumented) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := i.next.Stat(ctx, key)
	i.observe("stat", err)
	return info, err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	err := i.next.Delete(ctx, key)
	i.observe("delete", err)
	return err
}

func (i *instrumented) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	out, err := i.next.List(ctx, prefix)
	i.observe("list", err)
	return out, err
}

func (i *instrumented) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := i.next.PresignGet(ctx, key, expiry)
	i.observe("presign", err)
	return u, err
}
