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

// Package correlator maintains a smoothed statistical mapping between two
// independent clock domains: the local clock of the consuming tick loop and
// the clock reported by a sensor device. It knows nothing about frames or
// devices, it only turns (local, device) timestamp pairs into a running
// offset estimate and converts local timestamps on demand.
package correlator

import (
	"math"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"
)

// Defaults used by NewCorrelator when config values are left at zero.
const (
	// DefaultSmoothingTimeConstant is the EMA time constant in seconds.
	DefaultSmoothingTimeConstant = 0.1
	// DefaultSnapThresholdUS is how far an instantaneous offset may deviate
	// from the prediction before we treat it as a clock discontinuity.
	DefaultSnapThresholdUS = 100000
)

// drift estimation needs at least this many samples before extrapolation
const driftWarmupSamples = 2

// State describes the warm-up state of the correlator.
type State uint8

// All the states of the correlator. There is no way back to StateCold within
// a session; a new session gets a new correlator.
const (
	StateCold State = iota
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "COLD"
	case StateTracking:
		return "TRACKING"
	}
	return "UNSUPPORTED"
}

// Config holds correlator tunables
type Config struct {
	// SmoothingTimeConstant is the EMA time constant in seconds. Larger
	// values give the estimate more inertia and less jitter at the cost of
	// slower reaction to real changes.
	SmoothingTimeConstant float64
	// SnapThresholdUS is the deviation, in microseconds, above which a fresh
	// sample is treated as a clock discontinuity and adopted outright
	// instead of blended.
	SnapThresholdUS int64
}

// DefaultConfig returns config with default smoothing and snap values
func DefaultConfig() Config {
	return Config{
		SmoothingTimeConstant: DefaultSmoothingTimeConstant,
		SnapThresholdUS:       DefaultSnapThresholdUS,
	}
}

// Correlator is a smoothed estimator of the local→device clock mapping.
// It is driven from a single tick callback path and performs no locking:
// updates are plain scalar overwrites, reads are pure.
type Correlator struct {
	cfg   Config
	state State

	// offsetUS is the running estimate of (device − local), µs.
	// Kept as float64 of the delta only, never of raw timestamps, so
	// multi-hour sessions stay well within float64 precision.
	offsetUS float64
	// driftRate is d(offset)/d(local), dimensionless (µs per µs)
	driftRate float64

	lastUpdateLocalUS int64   // local time of the last update of any kind
	lastSampleLocalUS int64   // local time of the last fresh device sample
	lastResidualUS    float64 // prediction residual of the last accepted sample
	sampleCount       uint64
	snapCount         uint64

	residuals     *welford.Stats // prediction residuals of accepted samples, µs
	residualCount uint64
}

// NewCorrelator creates a cold correlator. Zero config fields fall back to
// defaults.
func NewCorrelator(cfg Config) *Correlator {
	if cfg.SmoothingTimeConstant <= 0 {
		cfg.SmoothingTimeConstant = DefaultSmoothingTimeConstant
	}
	if cfg.SnapThresholdUS <= 0 {
		cfg.SnapThresholdUS = DefaultSnapThresholdUS
	}
	return &Correlator{
		cfg:       cfg,
		state:     StateCold,
		residuals: welford.New(),
	}
}

// blendWeight derives the EMA weight for a sample that arrived dtUS
// microseconds after the previous update. Weight adapts to irregular tick
// spacing instead of assuming a fixed tick rate.
func (c *Correlator) blendWeight(dtUS int64) float64 {
	if dtUS <= 0 {
		return 0
	}
	dtSec := float64(dtUS) / 1e6
	return 1.0 - math.Exp(-dtSec/c.cfg.SmoothingTimeConstant)
}

// Sample feeds a fresh (local, device) timestamp pair captured at the same
// physical instant. First sample warms the correlator up and is adopted
// as-is; later samples are blended, unless the deviation from the prediction
// exceeds the snap threshold, in which case the estimate snaps to the new
// instantaneous value.
func (c *Correlator) Sample(localUS, deviceUS int64) {
	instant := float64(deviceUS - localUS)

	if c.state == StateCold {
		c.offsetUS = instant
		c.state = StateTracking
		c.lastUpdateLocalUS = localUS
		c.lastSampleLocalUS = localUS
		c.sampleCount = 1
		log.Debugf("correlator warmed up, offset %dus", int64(instant))
		return
	}

	dtUpdate := localUS - c.lastUpdateLocalUS
	dtSample := localUS - c.lastSampleLocalUS
	if dtSample <= 0 || dtUpdate < 0 {
		// non-monotonic local time, nothing sane to blend against
		log.Warningf("correlator got non-monotonic sample, local %dus is not after %dus", localUS, c.lastSampleLocalUS)
		return
	}

	// the offset is current as of the last update: intermediate Ticks have
	// already extrapolated it, only the remaining span needs the drift term
	predicted := c.offsetUS + c.driftRate*float64(dtUpdate)
	residual := instant - predicted

	if math.Abs(residual) > float64(c.cfg.SnapThresholdUS) {
		// clock discontinuity: device reconnect or a stepped clock. A slow
		// blend towards the new value would be visibly wrong for seconds,
		// so adopt it outright and restart drift and jitter tracking.
		log.Warningf("correlator detected clock discontinuity: offset jumped from %dus to %dus", int64(predicted), int64(instant))
		c.offsetUS = instant
		c.driftRate = 0
		c.sampleCount = 1
		c.snapCount++
		c.lastResidualUS = 0
		c.residuals = welford.New()
		c.residualCount = 0
		c.lastUpdateLocalUS = localUS
		c.lastSampleLocalUS = localUS
		return
	}

	w := c.blendWeight(dtUpdate)
	c.offsetUS = predicted + w*residual
	if c.sampleCount >= driftWarmupSamples-1 {
		// residual/dtSample is how much the drift estimate was off per µs.
		// The drift gain is second order relative to the offset gain so the
		// drift estimate does not chase per-sample jitter.
		c.driftRate += 0.5 * w * w * residual / float64(dtSample)
	}
	c.residuals.Add(residual)
	c.residualCount++
	c.lastResidualUS = residual
	c.sampleCount++
	c.lastUpdateLocalUS = localUS
	c.lastSampleLocalUS = localUS
}

// Tick advances the estimate to localUS without a fresh device sample.
// With drift tracking warmed up the offset is extrapolated forward,
// otherwise it is left as is.
func (c *Correlator) Tick(localUS int64) {
	if c.state == StateCold {
		return
	}
	dt := localUS - c.lastUpdateLocalUS
	if dt <= 0 {
		return
	}
	if c.sampleCount >= driftWarmupSamples {
		c.offsetUS += c.driftRate * float64(dt)
	}
	c.lastUpdateLocalUS = localUS
}

// DeviceTime converts a local-clock timestamp into the device clock domain.
// Pure read of the current estimate: it never fetches samples. Before any
// sample has been observed it returns the input unchanged, so downstream
// time-ordered queries always get a sane timestamp.
func (c *Correlator) DeviceTime(localUS int64) int64 {
	if c.state == StateCold {
		return localUS
	}
	return localUS + int64(math.Round(c.offsetUS))
}

// State returns the current warm-up state
func (c *Correlator) State() State {
	return c.state
}

// OffsetUS returns the current offset estimate in microseconds, 0 when cold.
func (c *Correlator) OffsetUS() int64 {
	return int64(math.Round(c.offsetUS))
}

// DriftPPM returns the estimated drift of the device clock relative to the
// local clock, in parts per million.
func (c *Correlator) DriftPPM() float64 {
	return c.driftRate * 1e6
}

// SampleCount returns how many device-clock samples were accepted since the
// last snap reset.
func (c *Correlator) SampleCount() uint64 {
	return c.sampleCount
}

// SnapCount returns how many discontinuity snaps happened this session
func (c *Correlator) SnapCount() uint64 {
	return c.snapCount
}

// ResidualStddevUS returns the standard deviation of prediction residuals of
// accepted samples, in microseconds. It is the jitter measure used to widen
// the interpolation delay.
func (c *Correlator) ResidualStddevUS() float64 {
	if c.residualCount < 2 {
		return 0
	}
	return c.residuals.Stddev()
}

// LastResidualUS returns the prediction residual of the last accepted sample
func (c *Correlator) LastResidualUS() float64 {
	return c.lastResidualUS
}

// ResidualMeanUS returns the mean prediction residual of accepted samples
func (c *Correlator) ResidualMeanUS() float64 {
	if c.residualCount == 0 {
		return 0
	}
	return c.residuals.Mean()
}
