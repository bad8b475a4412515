package stage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type LocalOption func(*Local)

// Local writes staged files under a base directory.
type Local struct {
	basePath string
	prefix   string
	logger   *zap.Logger
}

func LocalWithPrefix(prefix string) LocalOption {
	return func(r *Local) {
		r.prefix = prefix
	}
}

func LocalWithLogger(logger *zap.Logger) LocalOption {
	return func(r *Local) {
		r.logger = logger
	}
}

func NewLocal(basePath string, opts ...LocalOption) *Local {
	r := &Local{
		basePath: basePath,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Local) Write(ctx context.Context, key string, reader io.Reader) error {
	fullPath := filepath.Join(
		r.basePath,
		r.prefix,
		key,
	)
	r.logger.Info("writing file", zap.String("path", fullPath))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, reader)
	return err
}
