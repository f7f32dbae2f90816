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

// Package simulator provides a synthetic sensor device with its own drifting
// clock domain. It implements requester.FrameSource and is what sensortimed
// runs against: real device transports are a separate concern.
package simulator

import (
	"math"
	"math/rand"

	"github.com/facebook/sensortime/requester"
)

// Config describes the simulated device and its clock domain
type Config struct {
	// InitialOffsetUS is device clock minus local clock at local time 0
	InitialOffsetUS int64
	// DriftPPM is how fast the device clock runs relative to the local
	// clock, in parts per million. Positive means the device clock is fast.
	DriftPPM float64
	// FrameIntervalUS is the spacing of real frames in device time
	FrameIntervalUS int64
	// ClockJitterUS is the max absolute jitter applied to device clock reads
	ClockJitterUS int64
	// BufferSize is how many real frames the device keeps for interpolation
	BufferSize int
	// Seed seeds the jitter generator, 0 means unseeded deterministic zero jitter
	Seed int64
}

// DefaultConfig returns a 250Hz device with a 2s clock skew and mild drift
func DefaultConfig() Config {
	return Config{
		InitialOffsetUS: 2000000,
		DriftPPM:        30,
		FrameIntervalUS: 4000,
		ClockJitterUS:   0,
		BufferSize:      64,
	}
}

// Device is a synthetic frame source. The local clock is injected as a
// closure so tests and the daemon can drive simulated time explicitly.
type Device struct {
	cfg       Config
	localNow  func() int64
	rng       *rand.Rand
	connected bool

	frames []requester.Frame // ring of real frames, oldest first
	nextID int64             // index of the next frame to produce
}

// New creates a connected simulated device on top of the given local clock
func New(cfg Config, localNow func() int64) *Device {
	if cfg.FrameIntervalUS <= 0 {
		cfg.FrameIntervalUS = 4000
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	d := &Device{
		cfg:       cfg,
		localNow:  localNow,
		connected: true,
	}
	if cfg.ClockJitterUS > 0 {
		d.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return d
}

// SetConnected flips the simulated link state. While disconnected the device
// reports no clock and no frames, and its frame buffer goes stale.
func (d *Device) SetConnected(connected bool) {
	d.connected = connected
}

// deviceTimeAt maps a local timestamp into the simulated device clock domain
func (d *Device) deviceTimeAt(localUS int64) int64 {
	return localUS + int64(d.cfg.DriftPPM*1e-6*float64(localUS)) + d.cfg.InitialOffsetUS
}

// CurrentDeviceClockTime implements requester.FrameSource
func (d *Device) CurrentDeviceClockTime() (int64, bool) {
	if !d.connected {
		return 0, false
	}
	t := d.deviceTimeAt(d.localNow())
	if d.rng != nil {
		t += int64(d.rng.Intn(int(2*d.cfg.ClockJitterUS+1))) - d.cfg.ClockJitterUS
	}
	return t, true
}

// poseAt returns the synthetic trajectory at a device timestamp: a slow
// circular sweep with a rotating orientation, smooth enough that linear
// interpolation between adjacent frames is nearly exact.
func poseAt(deviceUS int64) ([3]float64, [4]float64) {
	t := float64(deviceUS) / 1e6
	pos := [3]float64{
		0.5 * math.Cos(0.4*t),
		1.2 + 0.1*math.Sin(0.9*t),
		0.5 * math.Sin(0.4*t),
	}
	half := 0.2 * t
	quat := [4]float64{0, math.Sin(half), 0, math.Cos(half)}
	return pos, quat
}

// produceFrames appends real frames up to the current device time,
// dropping the oldest ones past the buffer size.
func (d *Device) produceFrames() {
	deviceNow := d.deviceTimeAt(d.localNow())
	for d.nextID*d.cfg.FrameIntervalUS <= deviceNow {
		ts := d.nextID * d.cfg.FrameIntervalUS
		pos, quat := poseAt(ts)
		d.frames = append(d.frames, requester.Frame{
			DeviceTimeUS: ts,
			Position:     pos,
			Orientation:  quat,
		})
		d.nextID++
	}
	if excess := len(d.frames) - d.cfg.BufferSize; excess > 0 {
		d.frames = d.frames[excess:]
	}
}

// LatestFrame implements requester.FrameSource
func (d *Device) LatestFrame() (requester.Frame, bool) {
	if !d.connected {
		return requester.Frame{}, false
	}
	d.produceFrames()
	if len(d.frames) == 0 {
		return requester.Frame{}, false
	}
	return d.frames[len(d.frames)-1], true
}

// InterpolatedFrameAt implements requester.FrameSource. Queries inside the
// buffered interval interpolate between the two bracketing real frames;
// queries past the newest frame extrapolate from the last two.
func (d *Device) InterpolatedFrameAt(deviceTimeUS int64) (requester.Frame, bool) {
	if !d.connected {
		return requester.Frame{}, false
	}
	d.produceFrames()
	n := len(d.frames)
	if n == 0 {
		return requester.Frame{}, false
	}
	if n == 1 || deviceTimeUS <= d.frames[0].DeviceTimeUS {
		return d.frames[0], true
	}
	if deviceTimeUS >= d.frames[n-1].DeviceTimeUS {
		// extrapolate past the buffer from the newest pair
		return lerpFrames(d.frames[n-2], d.frames[n-1], deviceTimeUS), true
	}
	// frames are evenly spaced, locate the bracketing pair directly
	i := int((deviceTimeUS - d.frames[0].DeviceTimeUS) / d.cfg.FrameIntervalUS)
	if i >= n-1 {
		i = n - 2
	}
	return lerpFrames(d.frames[i], d.frames[i+1], deviceTimeUS), true
}

// lerpFrames linearly interpolates (or extrapolates) position and
// orientation between two frames at the given device timestamp. Orientation
// uses normalized lerp, fine for the small angular steps between frames.
func lerpFrames(a, b requester.Frame, deviceTimeUS int64) requester.Frame {
	span := b.DeviceTimeUS - a.DeviceTimeUS
	if span == 0 {
		return b
	}
	f := float64(deviceTimeUS-a.DeviceTimeUS) / float64(span)
	out := requester.Frame{DeviceTimeUS: deviceTimeUS}
	for i := range 3 {
		out.Position[i] = a.Position[i] + f*(b.Position[i]-a.Position[i])
	}
	var norm float64
	for i := range 4 {
		out.Orientation[i] = a.Orientation[i] + f*(b.Orientation[i]-a.Orientation[i])
		norm += out.Orientation[i] * out.Orientation[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range 4 {
			out.Orientation[i] /= norm
		}
	}
	return out
}
