package workflow

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// SourceStatus tracks what a source produced over a run.
type SourceStatus struct {
	mu       sync.Mutex
	Success  []string          `json:"success"`
	Warnings map[string]string `json:"warnings,omitempty"`
	Failures map[string]string `json:"failures,omitempty"`
}

func (s *SourceStatus) Scanned(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Success = append(s.Success, name)
}

func (s *SourceStatus) Warning(name, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Warnings == nil {
		s.Warnings = make(map[string]string)
	}
	s.Warnings[name] = reason
}

func (s *SourceStatus) Failure(name, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failures == nil {
		s.Failures = make(map[string]string)
	}
	s.Failures[name] = reason
}

// Snapshot returns a copy safe to read and marshal while the run keeps
// mutating the live status.
func (s *SourceStatus) Snapshot() *SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &SourceStatus{
		Success:  append([]string(nil), s.Success...),
		Warnings: copyMap(s.Warnings),
		Failures: copyMap(s.Failures),
	}
}

// SinkStatus tracks what a sink wrote over a run. Sinks own their success
// accounting: a sink calls RecordWritten once a record is durably accepted,
// and RecordSkipped for records it deliberately drops.
type SinkStatus struct {
	mu       sync.Mutex
	Records  []string          `json:"records"`
	Skipped  []string          `json:"skipped,omitempty"`
	Failures map[string]string `json:"failures,omitempty"`
}

func (s *SinkStatus) RecordWritten(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, name)
}

func (s *SinkStatus) RecordSkipped(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Skipped = append(s.Skipped, name)
}

func (s *SinkStatus) Failure(name, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failures == nil {
		s.Failures = make(map[string]string)
	}
	s.Failures[name] = reason
}

// Snapshot returns a copy safe to read and marshal while the run keeps
// mutating the live status.
func (s *SinkStatus) Snapshot() *SinkStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &SinkStatus{
		Records:  append([]string(nil), s.Records...),
		Skipped:  append([]string(nil), s.Skipped...),
		Failures: copyMap(s.Failures),
	}
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Report is the end-of-run summary printed by the ingest command. It is the
// audit record of what was scanned and what was published.
type Report struct {
	WorkflowID string        `json:"workflow_id"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Source     *SourceStatus `json:"source"`
	Sink       *SinkStatus   `json:"sink"`
	Completed  bool          `json:"completed"`
}

// Failed reports whether the run produced any failures.
func (r Report) Failed() bool {
	if !r.Completed {
		return true
	}
	if r.Source != nil && len(r.Source.Failures) > 0 {
		return true
	}
	if r.Sink != nil && len(r.Sink.Failures) > 0 {
		return true
	}
	return false
}

// Summary renders a short human readable report.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Workflow %s finished in %s\n",
		r.WorkflowID, r.EndTime.Sub(r.StartTime).Round(time.Millisecond))
	if r.Source != nil {
		fmt.Fprintf(&b, "Source: %d scanned, %d warnings, %d failures\n",
			len(r.Source.Success), len(r.Source.Warnings), len(r.Source.Failures))
		for name, reason := range r.Source.Failures {
			fmt.Fprintf(&b, "  source failure %s: %s\n", name, reason)
		}
	}
	if r.Sink != nil {
		fmt.Fprintf(&b, "Sink: %d written, %d skipped, %d failures\n",
			len(r.Sink.Records), len(r.Sink.Skipped), len(r.Sink.Failures))
		for name, reason := range r.Sink.Failures {
			fmt.Fprintf(&b, "  sink failure %s: %s\n", name, reason)
		}
	}
	if r.Failed() {
		b.WriteString("Workflow finished with failures\n")
	} else {
		b.WriteString("Workflow finished successfully\n")
	}
	return b.String()
}
