// Package health tracks windowed latency percentiles for the render
// pipeline stages and feeds the admission controller and the health
// endpoint.
package health

import (
	"sort"
	"sync"
	"time"
)

// Metric channel names reported by the pipeline.
const (
	ChannelRoundTrip = "rtt"      // whole-request latency
	ChannelScript    = "script"   // logic invocation latency
	ChannelTemplate  = "template" // template render latency
)

// retentionHorizon is how long samples are kept; it is the largest
// reporting window.
const retentionHorizon = 5 * time.Minute

type sample struct {
	at time.Time
	d  time.Duration
}

// Metrics is the computed view of one channel over one window.
type Metrics struct {
	P95  time.Duration
	Mean time.Duration
}

// Sampler holds time-ordered samples per metric channel, pruned lazily
// on read.
type Sampler struct {
	mu       sync.Mutex
	channels map[string][]sample
	now      func() time.Time
}

// NewSampler creates an empty Sampler.
func NewSampler() *Sampler {
	return &Sampler{
		channels: make(map[string][]sample),
		now:      time.Now,
	}
}

// Report appends one sample to the named channel.
func (s *Sampler) Report(channel string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel] = append(s.channels[channel], sample{at: s.now(), d: d})
}

// Metrics computes p95 and mean over the trailing window. Samples older
// than the retention horizon are dropped while we are here.
func (s *Sampler) Metrics(channel string, window time.Duration) Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(channel, now)

	var durations []time.Duration
	for _, smp := range s.channels[channel] {
		if now.Sub(smp.at) < window {
			durations = append(durations, smp.d)
		}
	}
	if len(durations) == 0 {
		return Metrics{}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	idx := int(float64(len(durations)) * 0.95)
	if idx > len(durations)-1 {
		idx = len(durations) - 1
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return Metrics{
		P95:  durations[idx],
		Mean: total / time.Duration(len(durations)),
	}
}

func (s *Sampler) pruneLocked(channel string, now time.Time) {
	samples := s.channels[channel]
	keep := samples[:0]
	for _, smp := range samples {
		if now.Sub(smp.at) < retentionHorizon {
			keep = append(keep, smp)
		}
	}
	s.channels[channel] = keep
}

// ChannelSnapshot is the JSON view of one channel within one window.
type ChannelSnapshot struct {
	P95Ms           float64  `json:"p95_ms"`
	MeanMs          float64  `json:"mean_ms"`
	PercentageOfRTT *float64 `json:"percentage_of_rtt,omitempty"`
}

// WindowSnapshot groups the channels for one trailing window.
type WindowSnapshot struct {
	RoundTrip ChannelSnapshot `json:"rtt"`
	Script    ChannelSnapshot `json:"script"`
	Template  ChannelSnapshot `json:"template"`
}

// Snapshot is the payload of the health endpoint.
type Snapshot struct {
	ThirtySeconds WindowSnapshot `json:"thirty_seconds"`
	OneMinute     WindowSnapshot `json:"one_minute"`
	FiveMinutes   WindowSnapshot `json:"five_minutes"`
}

// Snapshot computes the full health view over 30s, 1m and 5m windows.
func (s *Sampler) Snapshot() Snapshot {
	return Snapshot{
		ThirtySeconds: s.window(30 * time.Second),
		OneMinute:     s.window(time.Minute),
		FiveMinutes:   s.window(5 * time.Minute),
	}
}

func (s *Sampler) window(w time.Duration) WindowSnapshot {
	rtt := s.Metrics(ChannelRoundTrip, w)
	script := s.Metrics(ChannelScript, w)
	template := s.Metrics(ChannelTemplate, w)

	out := WindowSnapshot{
		RoundTrip: ChannelSnapshot{P95Ms: ms(rtt.P95), MeanMs: ms(rtt.Mean)},
		Script:    ChannelSnapshot{P95Ms: ms(script.P95), MeanMs: ms(script.Mean)},
		Template:  ChannelSnapshot{P95Ms: ms(template.P95), MeanMs: ms(template.Mean)},
	}
	if rtt.Mean > 0 {
		sp := ms(script.Mean) / ms(rtt.Mean) * 100
		tp := ms(template.Mean) / ms(rtt.Mean) * 100
		out.Script.PercentageOfRTT = &sp
		out.Template.PercentageOfRTT = &tp
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
