package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func delta(t *testing.T, collector prometheus.Collector, observe func()) float64 {
	t.Helper()

	before := testutil.ToFloat64(collector)
	observe()
	after := testutil.ToFloat64(collector)
	return after - before
}

func TestChainRecords(t *testing.T) {
	var m Chain
	start := time.Now().Add(-time.Second)

	if inc := delta(t, mineTotal.WithLabelValues(StatusSuccess), func() {
		m.ObserveMine(StatusSuccess, 300, 2, start)
	}); inc != 1 {
		t.Fatalf("expected mine success increment, got %v", inc)
	}

	if inc := delta(t, mineTotal.WithLabelValues(StatusEmpty), func() {
		m.ObserveMine(StatusEmpty, 0, 0, start)
	}); inc != 1 {
		t.Fatalf("expected mine empty increment, got %v", inc)
	}

	m.SetHeight(12)
	if got := testutil.ToFloat64(chainHeight); got != 12 {
		t.Fatalf("expected height 12, got %v", got)
	}

	if inc := delta(t, validateTotal.WithLabelValues(StatusInvalid), func() {
		m.ObserveValidate(StatusInvalid, 3, start)
	}); inc != 1 {
		t.Fatalf("expected validate invalid increment, got %v", inc)
	}
	if got := testutil.ToFloat64(validateErrors); got != 3 {
		t.Fatalf("expected 3 validation errors, got %v", got)
	}

	if inc := delta(t, rebuildBlocks, func() {
		m.ObserveRebuild(StatusSuccess, 4)
	}); inc != 4 {
		t.Fatalf("expected 4 rebuilt blocks, got %v", inc)
	}

	if inc := delta(t, tamperTotal.WithLabelValues(KindBlock), func() {
		m.ObserveTamper(KindBlock)
	}); inc != 1 {
		t.Fatalf("expected tamper increment, got %v", inc)
	}
}
