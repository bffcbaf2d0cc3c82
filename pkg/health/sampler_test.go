package health

import (
	"testing"
	"time"
)

// fixedClock lets tests move time forward explicitly.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSampler() (*Sampler, *fixedClock) {
	clock := &fixedClock{t: time.Unix(1_700_000_000, 0)}
	s := NewSampler()
	s.now = clock.now
	return s, clock
}

func TestMetricsEmptyChannel(t *testing.T) {
	s, _ := newTestSampler()
	m := s.Metrics(ChannelRoundTrip, 30*time.Second)
	if m.P95 != 0 || m.Mean != 0 {
		t.Errorf("empty channel metrics = %+v, want zeros", m)
	}
}

func TestMetricsP95AndMean(t *testing.T) {
	s, _ := newTestSampler()
	// 100 samples: 1ms..100ms. p95 index = floor(100*0.95) = 95 -> the
	// 96th value = 96ms. Mean = 50.5ms.
	for i := 1; i <= 100; i++ {
		s.Report(ChannelScript, time.Duration(i)*time.Millisecond)
	}

	m := s.Metrics(ChannelScript, time.Minute)
	if m.P95 != 96*time.Millisecond {
		t.Errorf("P95 = %v, want 96ms", m.P95)
	}
	if m.Mean != 50500*time.Microsecond {
		t.Errorf("Mean = %v, want 50.5ms", m.Mean)
	}
}

func TestMetricsSingleSampleClamped(t *testing.T) {
	s, _ := newTestSampler()
	s.Report(ChannelTemplate, 7*time.Millisecond)

	m := s.Metrics(ChannelTemplate, time.Minute)
	if m.P95 != 7*time.Millisecond {
		t.Errorf("P95 = %v, want the only sample", m.P95)
	}
}

func TestMetricsWindowExcludesOldSamples(t *testing.T) {
	s, clock := newTestSampler()
	s.Report(ChannelRoundTrip, 100*time.Millisecond)
	clock.advance(45 * time.Second)
	s.Report(ChannelRoundTrip, 10*time.Millisecond)

	m := s.Metrics(ChannelRoundTrip, 30*time.Second)
	if m.P95 != 10*time.Millisecond || m.Mean != 10*time.Millisecond {
		t.Errorf("30s window metrics = %+v, old sample leaked in", m)
	}

	// The old sample is still inside the one-minute window.
	m = s.Metrics(ChannelRoundTrip, time.Minute)
	if m.Mean != 55*time.Millisecond {
		t.Errorf("1m mean = %v, want 55ms", m.Mean)
	}
}

func TestPruningDropsBeyondHorizon(t *testing.T) {
	s, clock := newTestSampler()
	s.Report(ChannelRoundTrip, time.Millisecond)
	clock.advance(6 * time.Minute)
	s.Metrics(ChannelRoundTrip, time.Minute) // triggers lazy prune

	s.mu.Lock()
	n := len(s.channels[ChannelRoundTrip])
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("samples after horizon = %d, want 0", n)
	}
}

func TestSnapshotPercentageOfRTT(t *testing.T) {
	s, _ := newTestSampler()
	s.Report(ChannelRoundTrip, 10*time.Millisecond)
	s.Report(ChannelScript, 5*time.Millisecond)
	s.Report(ChannelTemplate, 2*time.Millisecond)

	snap := s.Snapshot()
	w := snap.ThirtySeconds
	if w.RoundTrip.MeanMs != 10 {
		t.Errorf("rtt mean = %v", w.RoundTrip.MeanMs)
	}
	if w.Script.PercentageOfRTT == nil || *w.Script.PercentageOfRTT != 50 {
		t.Errorf("script %%rtt = %v, want 50", w.Script.PercentageOfRTT)
	}
	if w.Template.PercentageOfRTT == nil || *w.Template.PercentageOfRTT != 20 {
		t.Errorf("template %%rtt = %v, want 20", w.Template.PercentageOfRTT)
	}
}

func TestSnapshotNoRTTSamplesOmitsPercentage(t *testing.T) {
	s, _ := newTestSampler()
	s.Report(ChannelScript, 5*time.Millisecond)

	snap := s.Snapshot()
	if snap.ThirtySeconds.Script.PercentageOfRTT != nil {
		t.Error("percentage_of_rtt should be omitted without rtt samples")
	}
}
