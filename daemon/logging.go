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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// LogSample has all the measurements we may want to log per frame tick
type LogSample struct {
	LocalTimeUS        int64
	OffsetUS           float64
	OffsetMeanUS       float64
	OffsetStddevUS     float64
	DriftPPM           float64
	ResidualStddevUS   float64
	AppliedDelayUS     float64
	TargetDeviceTimeUS int64
	FrameDeviceTimeUS  int64
}

var header = []string{
	"local_time",
	"offset",
	"offset_mean",
	"offset_stddev",
	"drift_ppm",
	"residual_stddev",
	"applied_delay",
	"target_device_time",
	"frame_device_time",
}

// CSVRecords returns all data from this sample as CSV. Must be synced with `header` variable.
func (s *LogSample) CSVRecords() []string {
	return []string{
		strconv.FormatInt(s.LocalTimeUS, 10),
		strconv.FormatFloat(s.OffsetUS, 'f', -1, 64),
		strconv.FormatFloat(s.OffsetMeanUS, 'f', -1, 64),
		strconv.FormatFloat(s.OffsetStddevUS, 'f', -1, 64),
		strconv.FormatFloat(s.DriftPPM, 'f', -1, 64),
		strconv.FormatFloat(s.ResidualStddevUS, 'f', -1, 64),
		strconv.FormatFloat(s.AppliedDelayUS, 'f', -1, 64),
		strconv.FormatInt(s.TargetDeviceTimeUS, 10),
		strconv.FormatInt(s.FrameDeviceTimeUS, 10),
	}
}

// Logger is something that can store LogSample somewhere
type Logger interface {
	Log(*LogSample) error
}

// CSVLogger logs Sample as CSV into given writer
type CSVLogger struct {
	csvwriter     *csv.Writer
	printedHeader bool
}

// NewCSVLogger returns new CSVLogger
func NewCSVLogger(w io.Writer) *CSVLogger {
	return &CSVLogger{
		csvwriter: csv.NewWriter(w),
	}
}

// Log implements Logger interface
func (l *CSVLogger) Log(s *LogSample) error {
	if !l.printedHeader {
		if err := l.csvwriter.Write(header); err != nil {
			return err
		}
		l.printedHeader = true
	}
	csv := s.CSVRecords()
	if err := l.csvwriter.Write(csv); err != nil {
		return err
	}
	l.csvwriter.Flush()
	return nil
}

// DummyLogger logs offset and applied delay to given writer
type DummyLogger struct {
	w io.Writer
}

// NewDummyLogger returns new DummyLogger
func NewDummyLogger(w io.Writer) *DummyLogger {
	return &DummyLogger{w: w}
}

// Log implements Logger interface
func (l *DummyLogger) Log(s *LogSample) error {
	_, err := fmt.Fprintf(l.w, "offset = %vus, delay = %vus\n", s.OffsetUS, s.AppliedDelayUS)
	return err
}
