package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/stage"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// FileConfig is the file sink config block.
type FileConfig struct {
	Filename string `json:"filename"`
}

// File buffers records as JSON lines and writes a single staged file on
// close, through whichever stage repository the workflow configured.
type File struct {
	filename   string
	repository stage.Repository
	logger     *zap.Logger
	status     *workflow.SinkStatus

	buf bytes.Buffer
}

type FileOption func(*File)

func FileWithLogger(logger *zap.Logger) FileOption {
	return func(s *File) {
		s.logger = logger
	}
}

func NewFile(config FileConfig, repository stage.Repository, opts ...FileOption) (*File, error) {
	if repository == nil {
		return nil, fmt.Errorf("file sink requires a stage repository")
	}
	filename := config.Filename
	if filename == "" {
		filename = "ingest.jsonl"
	}
	s := &File{
		filename:   filename,
		repository: repository,
		logger:     zap.NewNop(),
		status:     &workflow.SinkStatus{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *File) Status() *workflow.SinkStatus {
	return s.status
}

func (s *File) Open(ctx context.Context) error {
	return nil
}

func (s *File) Write(ctx context.Context, rec entity.Record) error {
	bs, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.buf.Write(bs)
	s.buf.WriteByte('\n')
	s.status.RecordWritten(rec.Name())
	return nil
}

func (s *File) Close(ctx context.Context) error {
	if s.buf.Len() == 0 {
		return nil
	}
	s.logger.Info("staging ingest output",
		zap.String("filename", s.filename),
		zap.Int("bytes", s.buf.Len()))
	return s.repository.Write(ctx, s.filename, &s.buf)
}
