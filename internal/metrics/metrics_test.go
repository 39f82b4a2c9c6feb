package metrics

import (
	"errors"
	"testing"
	"time"
)

type call struct {
	name   string
	value  float64
	labels Labels
}

type fakeBackend struct {
	counters   []call
	histograms []call
	flushed    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.flushed++
	return nil
}

func withBackend(t *testing.T, b Backend) {
	t.Helper()
	prev := backend
	SetBackend(b)
	t.Cleanup(func() { backend = prev })
}

func TestRecordStageSuccess(t *testing.T) {
	fb := &fakeBackend{}
	withBackend(t, fb)

	RecordStage("nightly", "songs", nil, 250*time.Millisecond)

	if len(fb.counters) != 1 || len(fb.histograms) != 1 {
		t.Fatalf("counters=%d histograms=%d, want 1 each", len(fb.counters), len(fb.histograms))
	}
	c := fb.counters[0]
	if c.name != "songlake_stage_total" || c.labels["status"] != "success" || c.labels["stage"] != "songs" {
		t.Fatalf("unexpected counter: %#v", c)
	}
	h := fb.histograms[0]
	if h.name != "songlake_stage_duration_seconds" || h.value != 0.25 {
		t.Fatalf("unexpected histogram: %#v", h)
	}
}

func TestRecordStageFailure(t *testing.T) {
	fb := &fakeBackend{}
	withBackend(t, fb)

	RecordStage("nightly", "plays", errors.New("boom"), time.Second)

	if fb.counters[0].labels["status"] != "failure" {
		t.Fatalf("unexpected status: %#v", fb.counters[0])
	}
}

func TestRecordRowsSkipsNonPositive(t *testing.T) {
	fb := &fakeBackend{}
	withBackend(t, fb)

	RecordRows("nightly", "songs", 0)
	RecordRows("nightly", "songs", -3)
	RecordRows("nightly", "songs", 42)

	if len(fb.counters) != 1 {
		t.Fatalf("got %d counter calls, want 1", len(fb.counters))
	}
	if fb.counters[0].value != 42 || fb.counters[0].labels["table"] != "songs" {
		t.Fatalf("unexpected call: %#v", fb.counters[0])
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	fb := &fakeBackend{}
	withBackend(t, fb)

	SetBackend(nil)
	RecordFiles("nightly", "songs", 2)

	if len(fb.counters) != 1 {
		t.Fatal("nil SetBackend must keep the installed backend")
	}
}

func TestFlushDelegates(t *testing.T) {
	fb := &fakeBackend{}
	withBackend(t, fb)

	if err := Flush(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fb.flushed != 1 {
		t.Fatalf("flushed=%d, want 1", fb.flushed)
	}
}
