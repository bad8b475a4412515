package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/ometa"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// Rest is the default sink. It publishes records to the metadata server
// through the REST client.
type Rest struct {
	client *ometa.Client
	logger *zap.Logger
	status *workflow.SinkStatus
}

type RestOption func(*Rest)

func RestWithLogger(logger *zap.Logger) RestOption {
	return func(s *Rest) {
		s.logger = logger
	}
}

func NewRest(client *ometa.Client, opts ...RestOption) *Rest {
	s := &Rest{
		client: client,
		logger: zap.NewNop(),
		status: &workflow.SinkStatus{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Rest) Status() *workflow.SinkStatus {
	return s.status
}

func (s *Rest) Open(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}

func (s *Rest) Write(ctx context.Context, rec entity.Record) error {
	var err error
	switch rec.Kind {
	case entity.KindDatabase:
		_, err = s.client.CreateOrUpdateDatabase(ctx, rec.Database)
	case entity.KindTable:
		_, err = s.client.CreateOrUpdateTable(ctx, rec.Table)
	case entity.KindLineage:
		err = s.client.AddLineage(ctx, rec.Lineage)
	case entity.KindTestResult:
		err = s.client.AddTestResult(ctx, rec.TestResult)
	default:
		return fmt.Errorf("unsupported record kind: %s", rec.Kind)
	}
	if err != nil {
		return err
	}
	s.status.RecordWritten(rec.Name())
	return nil
}

func (s *Rest) Close(ctx context.Context) error {
	return nil
}
