/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package daemon runs one frame-requesting session: it drives a requester
// from a rendering-rate ticker and a physics-rate ticker, computes the
// applied interpolation delay, and publishes monitoring counters.
package daemon

import (
	"context"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/sensortime/correlator"
	"github.com/facebook/sensortime/requester"
	"github.com/facebook/sensortime/stats"
)

// Daemon is a component that runs continuously, ticks the requester at the
// configured rendering and physics rates, does the math and publishes
// counters for monitoring.
type Daemon struct {
	cfg   *Config
	state *daemonState
	stats stats.Server
	l     Logger
	req   *requester.Requester

	// the requester is not safe for concurrent use, the two tick loops
	// serialize access here
	mu sync.Mutex

	// function to read the local clock, µs since session start
	localTime func() int64
}

// minRingSize calculates how many data points we need to have in a ring
// buffer in order to provide aggregate values over 1 minute
func minRingSize(configuredRingSize int, interval time.Duration) int {
	size := configuredRingSize
	if time.Duration(size)*interval < time.Minute {
		size = int(math.Ceil(float64(time.Minute) / float64(interval)))
	}
	return size
}

// New creates a new session daemon around the given frame source
func New(cfg *Config, source requester.FrameSource, statsServer stats.Server, l Logger) *Daemon {
	corr := correlator.NewCorrelator(correlator.Config{
		SmoothingTimeConstant: cfg.SmoothingTimeConstant,
		SnapThresholdUS:       cfg.SnapThreshold.Microseconds(),
	})
	// we need at least 1m of samples for aggregate values
	effectiveRingSize := minRingSize(cfg.RingSize, cfg.Interval)
	start := time.Now()
	s := &Daemon{
		cfg:       cfg,
		state:     newDaemonState(effectiveRingSize),
		stats:     statsServer,
		l:         l,
		req:       requester.New(corr, source),
		localTime: func() int64 { return time.Since(start).Microseconds() },
	}
	// correlation values
	s.stats.SetCounter("offset_us", 0)
	s.stats.SetCounter("drift_ppm", 0)
	s.stats.SetCounter("residual_stddev_us", 0)
	s.stats.SetCounter("applied_delay_us", 0)
	s.stats.SetCounter("tracking", 0)
	s.stats.SetCounter("sample_count", 0)
	s.stats.SetCounter("snap_count", 0)
	// tick accounting
	s.stats.SetCounter("frame_ticks", 0)
	s.stats.SetCounter("fixed_ticks", 0)
	s.stats.SetCounter("frame_misses", 0)
	s.stats.SetCounter("fixed_misses", 0)
	// error counters
	s.stats.SetCounter("math_error", 0)
	// aggregated values
	s.stats.SetCounter("offset_us.60.abs_max", 0)
	s.stats.SetCounter("residual_us.60.abs_max", 0)
	return s
}

// effectiveDelayUS computes the interpolation delay to apply this tick:
// either the configured base delay, or the adaptive delay expression over
// recent correlation history, clamped to [0, MaxDelay].
func (s *Daemon) effectiveDelayUS() int64 {
	base := float64(s.cfg.InterpolationDelay.Microseconds())
	if s.cfg.Math.delayExpr == nil {
		return int64(base)
	}
	lastN := s.state.takeDataPoint(s.cfg.RingSize)
	if len(lastN) == 0 {
		return int64(base)
	}
	raw, err := s.cfg.Math.delayExpr.Evaluate(prepareMathParameters(lastN, base))
	if err != nil {
		log.Errorf("evaluating delay expression: %v", err)
		s.stats.UpdateCounterBy("math_error", 1)
		return int64(base)
	}
	d, ok := raw.(float64)
	if !ok {
		log.Errorf("delay expression produced %T, want float64", raw)
		s.stats.UpdateCounterBy("math_error", 1)
		return int64(base)
	}
	if d < 0 {
		d = 0
	}
	if maxUS := float64(s.cfg.MaxDelay.Microseconds()); d > maxUS {
		d = maxUS
	}
	return int64(d)
}

// frameTick runs the rendering-rate path once
func (s *Daemon) frameTick() {
	localUS := s.localTime()
	delayUS := s.effectiveDelayUS()

	s.mu.Lock()
	frame, ok := s.req.OnFrameTick(localUS, s.cfg.Interpolation, delayUS)
	s.mu.Unlock()

	corr := s.req.Correlator()
	s.state.pushDataPoint(&dataPoint{
		offsetUS:       float64(corr.OffsetUS()),
		residualUS:     corr.LastResidualUS(),
		appliedDelayUS: float64(delayUS),
	})

	s.stats.UpdateCounterBy("frame_ticks", 1)
	if !ok {
		s.stats.UpdateCounterBy("frame_misses", 1)
	}
	s.stats.SetCounter("offset_us", corr.OffsetUS())
	s.stats.SetCounter("drift_ppm", int64(corr.DriftPPM()))
	s.stats.SetCounter("residual_stddev_us", int64(corr.ResidualStddevUS()))
	s.stats.SetCounter("applied_delay_us", delayUS)
	s.stats.SetCounter("sample_count", int64(corr.SampleCount()))
	s.stats.SetCounter("snap_count", int64(corr.SnapCount()))
	if corr.State() == correlator.StateTracking {
		s.stats.SetCounter("tracking", 1)
	}

	// aggregated stats over 1 minute
	maxDp := s.state.aggregateDataPointsMax(minRingSize(s.cfg.RingSize, s.cfg.Interval))
	s.stats.SetCounter("offset_us.60.abs_max", int64(maxDp.offsetUS))
	s.stats.SetCounter("residual_us.60.abs_max", int64(maxDp.residualUS))

	lastN := s.state.takeDataPoint(s.cfg.RingSize)
	params := prepareMathParameters(lastN, float64(delayUS))
	sample := &LogSample{
		LocalTimeUS:        localUS,
		OffsetUS:           float64(corr.OffsetUS()),
		OffsetMeanUS:       mean(params["offset"].([]float64)),
		OffsetStddevUS:     stddev(params["offset"].([]float64)),
		DriftPPM:           corr.DriftPPM(),
		ResidualStddevUS:   corr.ResidualStddevUS(),
		AppliedDelayUS:     float64(delayUS),
		TargetDeviceTimeUS: corr.DeviceTime(localUS - delayUS),
		FrameDeviceTimeUS:  frame.DeviceTimeUS,
	}
	if err := s.l.Log(sample); err != nil {
		log.Errorf("failed to log sample: %v", err)
	}
}

// fixedTick runs the physics-rate path once. It bypasses interpolation and
// clock conversion entirely.
func (s *Daemon) fixedTick() {
	s.mu.Lock()
	_, ok := s.req.OnFixedTick()
	s.mu.Unlock()
	s.stats.UpdateCounterBy("fixed_ticks", 1)
	if !ok {
		s.stats.UpdateCounterBy("fixed_misses", 1)
	}
}

// Run ticks the session until the context is cancelled
func (s *Daemon) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.frameTick()
			}
		}
	})
	if s.cfg.FixedInterval > 0 {
		eg.Go(func() error {
			ticker := time.NewTicker(s.cfg.FixedInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					s.fixedTick()
				}
			}
		})
	}
	return eg.Wait()
}

// Requester exposes the session requester, for inspection in tests and tools
func (s *Daemon) Requester() *requester.Requester {
	return s.req
}
