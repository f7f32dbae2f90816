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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.EvalAndValidate())
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"negative fixed interval", func(c *Config) { c.FixedInterval = -time.Second }},
		{"negative delay", func(c *Config) { c.InterpolationDelay = -time.Millisecond }},
		{"max delay below base", func(c *Config) { c.MaxDelay = c.InterpolationDelay / 2 }},
		{"zero smoothing", func(c *Config) { c.SmoothingTimeConstant = 0 }},
		{"zero ring", func(c *Config) { c.RingSize = 0 }},
		{"bad expression", func(c *Config) { c.Math.Delay = "nope(" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.EvalAndValidate())
		})
	}
}

func TestReadConfig(t *testing.T) {
	// durations are nanosecond values, as yaml decodes time.Duration as int64
	content := `interval: 16000000
fixedinterval: 8000000
interpolation: true
interpolationdelay: 15000000
maxdelay: 50000000
smoothingtimeconstant: 0.2
snapthreshold: 100000000
ringsize: 50
math:
  delay: "base + 2.0 * stddev(residual, 40)"
`
	path := filepath.Join(t.TempDir(), "sensortimed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.EvalAndValidate())
	require.Equal(t, 16*time.Millisecond, cfg.Interval)
	require.Equal(t, 0.2, cfg.SmoothingTimeConstant)
	require.Equal(t, 50, cfg.RingSize)
	require.NotNil(t, cfg.Math.delayExpr)
}

func TestReadConfigUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensortimed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nosuchfield: 1\n"), 0644))
	_, err := ReadConfig(path)
	require.Error(t, err)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
