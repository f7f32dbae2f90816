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

package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/sensortime/correlator"
	"github.com/facebook/sensortime/requester"
)

// manual clock lets tests drive simulated local time explicitly
type manualClock struct {
	nowUS int64
}

func (m *manualClock) now() int64 { return m.nowUS }

func TestDeviceClockMapping(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{InitialOffsetUS: 5000, FrameIntervalUS: 4000, BufferSize: 16}, clock.now)

	clock.nowUS = 0
	got, ok := d.CurrentDeviceClockTime()
	require.True(t, ok)
	require.Equal(t, int64(5000), got)

	clock.nowUS = 10000
	got, ok = d.CurrentDeviceClockTime()
	require.True(t, ok)
	require.Equal(t, int64(15000), got)
}

func TestDeviceClockDrift(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{InitialOffsetUS: 0, DriftPPM: 100, FrameIntervalUS: 4000}, clock.now)
	clock.nowUS = 10000000 // 10s in: 100ppm adds 1000us
	got, ok := d.CurrentDeviceClockTime()
	require.True(t, ok)
	require.Equal(t, int64(10001000), got)
}

func TestDeviceLatestFrame(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{FrameIntervalUS: 4000, BufferSize: 8}, clock.now)

	clock.nowUS = 10000
	f, ok := d.LatestFrame()
	require.True(t, ok)
	require.Equal(t, int64(8000), f.DeviceTimeUS)

	clock.nowUS = 20000
	f, ok = d.LatestFrame()
	require.True(t, ok)
	require.Equal(t, int64(20000), f.DeviceTimeUS)
}

func TestDeviceInterpolatesBetweenFrames(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{FrameIntervalUS: 4000, BufferSize: 16}, clock.now)
	clock.nowUS = 40000

	f, ok := d.InterpolatedFrameAt(10000)
	require.True(t, ok)
	require.Equal(t, int64(10000), f.DeviceTimeUS)

	a, _ := d.InterpolatedFrameAt(8000)
	b, _ := d.InterpolatedFrameAt(12000)
	mid, _ := d.InterpolatedFrameAt(10000)
	for i := range 3 {
		require.InDelta(t, (a.Position[i]+b.Position[i])/2, mid.Position[i], 1e-9)
	}
	// orientation stays a unit quaternion through interpolation
	var norm float64
	for i := range 4 {
		norm += mid.Orientation[i] * mid.Orientation[i]
	}
	require.InDelta(t, 1.0, norm, 1e-9)
}

func TestDeviceExtrapolatesPastNewestFrame(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{FrameIntervalUS: 4000, BufferSize: 8}, clock.now)
	clock.nowUS = 41000 // newest real frame at 40000

	f, ok := d.InterpolatedFrameAt(41000)
	require.True(t, ok)
	require.Equal(t, int64(41000), f.DeviceTimeUS)

	// extrapolation continues the last segment linearly
	prev, _ := d.InterpolatedFrameAt(36000)
	last, _ := d.InterpolatedFrameAt(40000)
	for i := range 3 {
		want := last.Position[i] + (last.Position[i]-prev.Position[i])/4
		require.InDelta(t, want, f.Position[i], 1e-9)
	}
}

func TestDeviceDisconnected(t *testing.T) {
	clock := &manualClock{nowUS: 100000}
	d := New(DefaultConfig(), clock.now)
	d.SetConnected(false)

	_, ok := d.CurrentDeviceClockTime()
	require.False(t, ok)
	_, ok = d.LatestFrame()
	require.False(t, ok)
	_, ok = d.InterpolatedFrameAt(50000)
	require.False(t, ok)
}

func TestDeviceBufferEviction(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{FrameIntervalUS: 1000, BufferSize: 4}, clock.now)
	clock.nowUS = 100000

	// oldest frames are gone: queries clamp to the oldest buffered frame
	f, ok := d.InterpolatedFrameAt(0)
	require.True(t, ok)
	require.Equal(t, int64(97000), f.DeviceTimeUS)
}

// end to end: requester driving the simulated device converges on its clock
func TestDeviceWithRequester(t *testing.T) {
	clock := &manualClock{}
	d := New(Config{InitialOffsetUS: 700000, DriftPPM: 20, FrameIntervalUS: 4000, BufferSize: 64}, clock.now)
	r := requester.New(correlator.NewCorrelator(correlator.DefaultConfig()), d)

	var ok bool
	for ts := int64(0); ts <= 3000000; ts += 16000 { // ~60Hz for 3s
		clock.nowUS = ts
		_, ok = r.OnFrameTick(ts, true, requester.DefaultInterpolationDelayUS)
	}
	require.True(t, ok)
	require.InDelta(t, 700000+20e-6*3000000, float64(r.Correlator().OffsetUS()), 100)
}
