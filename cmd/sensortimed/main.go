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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/sensortime/daemon"
	"github.com/facebook/sensortime/simulator"
	"github.com/facebook/sensortime/stats"
)

func main() {
	var (
		cfg            = daemon.DefaultConfig()
		err            error
		cfgPath        string
		csvLog         bool
		csvPath        string
		verbose        bool
		monitoringPort int
		simCfg         = simulator.DefaultConfig()
		simOffset      time.Duration
		simJitter      time.Duration
		simFrameEvery  time.Duration
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "sensortime session daemon running against a simulated sensor device\n")
		fmt.Fprintf(flag.CommandLine.Output(), "%s\n\nFlags:\n", daemon.MathHelp)
		flag.PrintDefaults()
	}

	flag.DurationVar(&cfg.Interval, "i", cfg.Interval, "Rendering tick interval")
	flag.DurationVar(&cfg.FixedInterval, "fixedinterval", cfg.FixedInterval, "Physics tick interval, 0 disables the fixed loop")
	flag.BoolVar(&cfg.Interpolation, "interpolation", cfg.Interpolation, "Query interpolated frames at a delayed instant instead of latest real frames")
	flag.DurationVar(&cfg.InterpolationDelay, "delay", cfg.InterpolationDelay, "Base delay subtracted from the query instant")
	flag.DurationVar(&cfg.MaxDelay, "maxdelay", cfg.MaxDelay, "Upper clamp for the applied delay")
	flag.Float64Var(&cfg.SmoothingTimeConstant, "smoothing", cfg.SmoothingTimeConstant, "Correlator EMA time constant, seconds")
	flag.DurationVar(&cfg.SnapThreshold, "snapthreshold", cfg.SnapThreshold, "Offset discontinuity threshold triggering a snap reset")
	flag.IntVar(&cfg.RingSize, "buffer", cfg.RingSize, "Size of ring buffers, must be at least size of largest num of samples used in the delay formula")
	flag.StringVar(&cfg.Math.Delay, "delayformula", "", "Math expression for the applied delay, empty means the base delay as is")
	flag.IntVar(&monitoringPort, "monitoringport", 21040, "Port to run monitoring server on")

	flag.DurationVar(&simOffset, "simoffset", 2*time.Second, "Simulated device clock offset at session start")
	flag.Float64Var(&simCfg.DriftPPM, "simdrift", simCfg.DriftPPM, "Simulated device clock drift, PPM")
	flag.DurationVar(&simFrameEvery, "simframeinterval", 4*time.Millisecond, "Simulated device frame interval")
	flag.DurationVar(&simJitter, "simjitter", 0, "Max absolute jitter on simulated device clock reads")

	flag.StringVar(&cfgPath, "cfg", "", "Path to config")
	flag.BoolVar(&csvLog, "csvlog", true, "Log all the measurements as CSV to log")
	flag.StringVar(&csvPath, "csvpath", "", "write CSV log into this file")
	flag.BoolVar(&verbose, "verbose", false, "Verbose logging")

	flag.Parse()

	log.SetReportCaller(true)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	if csvPath != "" && !csvLog {
		log.Fatalf("'csvpath' flag requires 'csvlog' flag")
	}
	if cfgPath != "" {
		log.Warningf("using config from %s, flag values are ignored", cfgPath)
		cfg, err = daemon.ReadConfig(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
	}
	if err := cfg.EvalAndValidate(); err != nil {
		log.Fatal(err)
	}
	log.Debugf("Config: %+v", *cfg)

	simCfg.InitialOffsetUS = simOffset.Microseconds()
	simCfg.FrameIntervalUS = simFrameEvery.Microseconds()
	simCfg.ClockJitterUS = simJitter.Microseconds()

	// set up sample logging
	w := log.StandardLogger().Writer()
	defer w.Close()
	var l daemon.Logger = daemon.NewDummyLogger(w)
	if csvLog {
		csvW := io.Writer(w)
		// set up logging of CSV samples to file
		if csvPath != "" {
			f, err := os.Create(csvPath)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
			// write both to stderr and file
			csvW = io.MultiWriter(w, f)
		}
		l = daemon.NewCSVLogger(csvW)
	}

	start := time.Now()
	device := simulator.New(simCfg, func() int64 { return time.Since(start).Microseconds() })

	jsonStats := stats.NewJSONStats()
	go jsonStats.Start(monitoringPort)

	s := daemon.New(cfg, device, jsonStats, l)
	ctx := context.Background()
	if err := s.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
