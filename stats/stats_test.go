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

package stats

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.SetCounter("offset_us", 5000)
	s.UpdateCounterBy("misses", 1)
	s.UpdateCounterBy("misses", 2)

	got := s.Get()
	require.Equal(t, Counters{"offset_us": 5000, "misses": 3}, got)

	s.Reset()
	got = s.Get()
	require.Equal(t, Counters{"offset_us": 0, "misses": 0}, got)
}

func TestStatsGetIsCopy(t *testing.T) {
	s := NewStats()
	s.SetCounter("offset_us", 1)
	got := s.Get()
	got["offset_us"] = 42
	require.Equal(t, Counters{"offset_us": 1}, s.Get())
}

func TestJSONStatsHandler(t *testing.T) {
	s := NewJSONStats()
	s.SetCounter("offset_us", -200)
	s.SetCounter("drift_ppm", 31)

	srv := httptest.NewServer(http.HandlerFunc(s.handleRequest))
	defer srv.Close()

	counters, err := FetchCounters(srv.URL)
	require.NoError(t, err)
	require.Equal(t, Counters{"offset_us": -200, "drift_ppm": 31}, counters)
}

func TestFlattenKey(t *testing.T) {
	require.Equal(t, "correlator_offset_us", flattenKey("correlator.offset us"))
	require.Equal(t, "a_b_c", flattenKey("a-b/c"))
}
