package workflow

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
)

var (
	// ErrMissingSource is returned when a workflow is run without a source.
	ErrMissingSource = errors.New("workflow requires a source")
	// ErrMissingSink is returned when a workflow is run without a sink.
	ErrMissingSink = errors.New("workflow requires a sink")
)

// Source produces entity records. Next returns io.EOF once the source is
// exhausted.
type Source interface {
	Open(ctx context.Context) error
	Next(ctx context.Context) (entity.Record, error)
	Close(ctx context.Context) error
	Status() *SourceStatus
}

// Sink consumes entity records produced by a Source. A sink owns its
// success accounting: Write calls SinkStatus.RecordWritten once the record
// is accepted, or RecordSkipped when it deliberately drops one. The workflow
// only records synchronous write failures.
type Sink interface {
	Open(ctx context.Context) error
	Write(ctx context.Context, rec entity.Record) error
	Close(ctx context.Context) error
	Status() *SinkStatus
}

type Workflow struct {
	ID     string
	State  *FSM
	source Source
	sink   Sink
	logger *zap.Logger

	mu     sync.Mutex
	report Report
}

type Option func(*Workflow)

func WithID(id string) Option {
	return func(w *Workflow) {
		w.ID = id
	}
}

func WithSource(source Source) Option {
	return func(w *Workflow) {
		w.source = source
	}
}

func WithSink(sink Sink) Option {
	return func(w *Workflow) {
		w.sink = sink
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

func New(opts ...Option) *Workflow {
	w := &Workflow{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.State = NewFSM(
		FSMWithInitialState(StateCreated),
		FSMWithLogger(w.logger.Named("fsm")),
	)
	return w
}

// Run pulls every record from the source and writes it to the sink. A sink
// write failure is recorded and the run continues; a source failure aborts.
func (w *Workflow) Run(ctx context.Context) error {
	if w.source == nil {
		return ErrMissingSource
	}
	if w.sink == nil {
		return ErrMissingSink
	}

	if err := w.State.Transition(StateRunning); err != nil {
		return err
	}

	w.mu.Lock()
	w.report = Report{
		WorkflowID: w.ID,
		StartTime:  time.Now(),
	}
	w.mu.Unlock()

	w.logger.Info("workflow started", zap.String("workflow_id", w.ID))

	if err := w.sink.Open(ctx); err != nil {
		w.State.Transition(StateFailed)
		return err
	}
	defer w.sink.Close(ctx)

	if err := w.source.Open(ctx); err != nil {
		w.State.Transition(StateFailed)
		return err
	}
	defer w.source.Close(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("context cancelled, stopping workflow")
			w.State.Transition(StateStopped)
			return ctx.Err()
		default:
		}

		rec, err := w.source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			w.State.Transition(StateFailed)
			return err
		}

		if err := w.sink.Write(ctx, rec); err != nil {
			w.logger.Warn("sink write failed",
				zap.String("record", rec.Name()),
				zap.Error(err))
			w.sink.Status().Failure(rec.Name(), err.Error())
			continue
		}
	}

	w.mu.Lock()
	w.report.Completed = true
	w.report.EndTime = time.Now()
	w.mu.Unlock()
	w.State.Transition(StateStopped)

	sink := w.sink.Status().Snapshot()
	w.logger.Info("workflow finished",
		zap.String("workflow_id", w.ID),
		zap.Int("records_written", len(sink.Records)),
		zap.Int("records_skipped", len(sink.Skipped)),
		zap.Int("sink_failures", len(sink.Failures)),
	)
	return nil
}

// Report returns the run summary. The source and sink statuses are
// snapshots, safe to marshal while the run is still in flight.
func (w *Workflow) Report() Report {
	w.mu.Lock()
	r := w.report
	w.mu.Unlock()

	if r.EndTime.IsZero() {
		r.EndTime = time.Now()
	}
	if w.source != nil {
		r.Source = w.source.Status().Snapshot()
	}
	if w.sink != nil {
		r.Sink = w.sink.Status().Snapshot()
	}
	return r
}
