package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegisterer(registry)

	m.ObserveCommit("credit", 2, 15*time.Millisecond)
	m.IncConflict("credit")
	m.IncFailure("debit", "insufficient_funds")
	m.ObserveHTTP("POST", "/api/v1/transfers", 201, time.Millisecond)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestLedgerCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.ObserveCommit("credit", 1, time.Millisecond)
	m.ObserveCommit("credit", 3, time.Millisecond)
	m.IncConflict("transfer")
	m.IncConflict("transfer")
	m.IncFailure("debit", "insufficient_funds")

	if got := testutil.ToFloat64(m.Commits.WithLabelValues("credit")); got != 2 {
		t.Fatalf("commits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Conflicts.WithLabelValues("transfer")); got != 2 {
		t.Fatalf("conflicts = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Failures.WithLabelValues("debit", "insufficient_funds")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.CommitAttempts); got != 1 {
		t.Fatalf("attempt series = %d, want 1", got)
	}
}

func TestObserveHTTPLabelsStatus(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())
	m.ObserveHTTP("GET", "/health", 200, time.Millisecond)
	m.ObserveHTTP("GET", "/health", 503, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/health", "503")); got != 1 {
		t.Fatalf("503 requests = %v, want 1", got)
	}
}
