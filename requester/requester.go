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

// Package requester decides, once per tick, which device-clock instant to
// ask the frame source for. It trades a small fixed delay for interpolation
// accuracy: querying slightly in the past keeps the query bracketed by two
// real frames instead of forcing the source to extrapolate.
package requester

import (
	log "github.com/sirupsen/logrus"

	"github.com/facebook/sensortime/correlator"
)

// DefaultInterpolationDelayUS is the default query delay, 15ms. Enough to
// bracket queries with real frames at typical sensor rates without adding
// perceptible lag.
const DefaultInterpolationDelayUS = 15000

// Requester owns one correlator and one frame source for the duration of a
// session. Construct one per session and drop it at session end; there is no
// ambient singleton and the correlation estimate is never persisted.
type Requester struct {
	corr   *correlator.Correlator
	source FrameSource

	last     Frame
	haveLast bool
	misses   uint64
}

// New creates a Requester around the given correlator and frame source
func New(corr *correlator.Correlator, source FrameSource) *Requester {
	return &Requester{
		corr:   corr,
		source: source,
	}
}

// OnFrameTick runs once per rendering tick. It feeds the current local-clock
// reading into the correlator, then requests the source's best frame for a
// delayed, clock-converted target instant. With interpolation disabled it
// requests the latest real frame directly, with no clock conversion.
// A source miss is not an error: the previous frame is retained and the
// second return value says whether any frame was ever delivered.
func (r *Requester) OnFrameTick(localUS int64, interpolate bool, delayUS int64) (Frame, bool) {
	if deviceNow, ok := r.source.CurrentDeviceClockTime(); ok {
		r.corr.Sample(localUS, deviceNow)
	} else {
		r.corr.Tick(localUS)
	}

	if !interpolate {
		return r.remember(r.source.LatestFrame())
	}

	targetDeviceUS := r.corr.DeviceTime(localUS - delayUS)
	return r.remember(r.source.InterpolatedFrameAt(targetDeviceUS))
}

// OnFixedTick runs once per physics tick. It bypasses the correlator and
// interpolation entirely: physics consumers want the newest real sample and
// feed no clock samples of their own.
func (r *Requester) OnFixedTick() (Frame, bool) {
	return r.remember(r.source.LatestFrame())
}

func (r *Requester) remember(f Frame, ok bool) (Frame, bool) {
	if !ok {
		r.misses++
		if !r.haveLast {
			log.Debug("no frame available and none retained yet")
		}
		return r.last, r.haveLast
	}
	r.last = f
	r.haveLast = true
	return r.last, true
}

// Correlator exposes the session's correlator for monitoring
func (r *Requester) Correlator() *correlator.Correlator {
	return r.corr
}

// Misses returns how many ticks yielded no fresh frame from the source
func (r *Requester) Misses() uint64 {
	return r.misses
}
