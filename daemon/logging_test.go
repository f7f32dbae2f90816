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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSVLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewCSVLogger(buf)

	sample := &LogSample{
		LocalTimeUS:        16000,
		OffsetUS:           5000,
		OffsetMeanUS:       5000,
		OffsetStddevUS:     12.5,
		DriftPPM:           30,
		ResidualStddevUS:   8,
		AppliedDelayUS:     15000,
		TargetDeviceTimeUS: 6000,
		FrameDeviceTimeUS:  4000,
	}
	require.NoError(t, l.Log(sample))
	require.NoError(t, l.Log(sample))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3) // header printed once
	require.Equal(t, strings.Join(header, ","), lines[0])
	require.Equal(t, "16000,5000,5000,12.5,30,8,15000,6000,4000", lines[1])
	require.Equal(t, lines[1], lines[2])
}

func TestCSVRecordsMatchHeader(t *testing.T) {
	s := &LogSample{}
	require.Len(t, s.CSVRecords(), len(header))
}

func TestDummyLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewDummyLogger(buf)
	require.NoError(t, l.Log(&LogSample{OffsetUS: 5000, AppliedDelayUS: 15000}))
	require.Equal(t, "offset = 5000us, delay = 15000us\n", buf.String())
}
