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

package requester

// Frame is a single pose sample from the sensor device. The payload is
// opaque to the timing logic here; coordinate transforms are the caller's
// business.
type Frame struct {
	// DeviceTimeUS is the frame timestamp in the device clock domain, µs
	DeviceTimeUS int64
	// Position is the sensor position, device coordinate space
	Position [3]float64
	// Orientation is the sensor orientation as a unit quaternion (x,y,z,w)
	Orientation [4]float64
}

// FrameSource is the device-side collaborator supplying frames and
// best-effort device clock readings. All methods are non-blocking and report
// availability with a bool instead of an error: a missing reading or frame
// is normal during connection churn and must not break the tick loop.
type FrameSource interface {
	// CurrentDeviceClockTime returns a fresh device-clock reading in µs,
	// or false if none is available this tick.
	CurrentDeviceClockTime() (int64, bool)
	// InterpolatedFrameAt returns the source's best frame estimate at the
	// given device timestamp, interpolating between buffered real frames or
	// extrapolating past the newest one.
	InterpolatedFrameAt(deviceTimeUS int64) (Frame, bool)
	// LatestFrame returns the most recent real frame, with no time
	// alignment applied.
	LatestFrame() (Frame, bool)
}
