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

package daemon

import (
	"container/ring"
	"math"
	"sync"
)

// dataPoint is what we store in the ring buffer, one per frame tick
type dataPoint struct {
	offsetUS       float64
	residualUS     float64
	appliedDelayUS float64
}

// state of the daemon, guarded by mutex
type daemonState struct {
	sync.Mutex

	dataPoints *ring.Ring // correlation data points we collected per tick
}

func newDaemonState(ringSize int) *daemonState {
	s := &daemonState{
		dataPoints: ring.New(ringSize),
	}
	// init ring buffer with nils
	for i := 0; i < ringSize; i++ {
		s.dataPoints.Value = nil
		s.dataPoints = s.dataPoints.Next()
	}
	return s
}

func (s *daemonState) pushDataPoint(data *dataPoint) {
	s.Lock()
	defer s.Unlock()
	s.dataPoints.Value = data
	s.dataPoints = s.dataPoints.Next()
}

// takeDataPoint returns up to n most recent data points, newest first
func (s *daemonState) takeDataPoint(n int) []*dataPoint {
	s.Lock()
	defer s.Unlock()
	result := []*dataPoint{}
	r := s.dataPoints.Prev()
	for j := 0; j < n; j++ {
		if r.Value == nil {
			continue
		}
		result = append(result, r.Value.(*dataPoint))
		r = r.Prev()
	}
	return result
}

// aggregateDataPointsMax returns per-field abs max over the last n points
func (s *daemonState) aggregateDataPointsMax(n int) *dataPoint {
	s.Lock()
	defer s.Unlock()
	d := &dataPoint{}
	r := s.dataPoints.Prev()
	for j := 0; j < n; j++ {
		if r.Value == nil {
			continue
		}
		dp := r.Value.(*dataPoint)
		if math.Abs(dp.offsetUS) > d.offsetUS {
			d.offsetUS = math.Abs(dp.offsetUS)
		}
		if math.Abs(dp.residualUS) > d.residualUS {
			d.residualUS = math.Abs(dp.residualUS)
		}
		if math.Abs(dp.appliedDelayUS) > d.appliedDelayUS {
			d.appliedDelayUS = math.Abs(dp.appliedDelayUS)
		}
		r = r.Prev()
	}
	return d
}
