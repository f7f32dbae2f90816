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
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config represents configuration we expect to read from file
type Config struct {
	Interval              time.Duration // rendering tick interval
	FixedInterval         time.Duration // physics tick interval, 0 disables the fixed loop
	Interpolation         bool          // query interpolated frames instead of latest real ones
	InterpolationDelay    time.Duration // base delay subtracted from the query instant
	MaxDelay              time.Duration // upper clamp for the applied delay
	SmoothingTimeConstant float64       // correlator EMA time constant, seconds
	SnapThreshold         time.Duration // correlator discontinuity threshold
	RingSize              int           // must be at least the size of N samples used in the delay expression
	Math                  Math          // adaptive delay configuration
}

// DefaultConfig returns daemon config with sane defaults
func DefaultConfig() *Config {
	return &Config{
		Interval:              16 * time.Millisecond,
		FixedInterval:         8 * time.Millisecond,
		Interpolation:         true,
		InterpolationDelay:    15 * time.Millisecond,
		MaxDelay:              100 * time.Millisecond,
		SmoothingTimeConstant: 0.1,
		SnapThreshold:         100 * time.Millisecond,
		RingSize:              MathDefaultHistory,
	}
}

// EvalAndValidate makes sure config is valid and evaluates expressions for further use.
func (c *Config) EvalAndValidate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("bad config: 'interval' must be >0")
	}
	if c.FixedInterval < 0 {
		return fmt.Errorf("bad config: 'fixedinterval' must be >=0")
	}
	if c.InterpolationDelay < 0 {
		return fmt.Errorf("bad config: 'interpolationdelay' must be >=0")
	}
	if c.MaxDelay < c.InterpolationDelay {
		return fmt.Errorf("bad config: 'maxdelay' must be >= 'interpolationdelay'")
	}
	if c.SmoothingTimeConstant <= 0 {
		return fmt.Errorf("bad config: 'smoothingtimeconstant' must be >0")
	}
	if c.RingSize <= 0 {
		return fmt.Errorf("bad config: 'ringsize' must be >0")
	}
	if err := c.Math.Prepare(); err != nil {
		return err
	}
	return nil
}

// ReadConfig reads config and unmarshals it from yaml into Config
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	err = yaml.UnmarshalStrict(data, c)
	return c, err
}
