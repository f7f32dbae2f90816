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

package cmd

import (
	"fmt"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/sensortime/stats"
)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

// residual stddev above this many microseconds means correlation is noisy
var offsetWarnResidualUS int64

func init() {
	RootCmd.AddCommand(offsetCmd)
	offsetCmd.Flags().Int64Var(&offsetWarnResidualUS, "warnresidual", 500, "residual stddev (us) above which correlation is reported as noisy")
}

func offsetHealth(counters stats.Counters) (string, string) {
	if counters["tracking"] == 0 {
		return failString, "correlator is cold, no device clock samples observed"
	}
	if counters["residual_stddev_us"] > offsetWarnResidualUS {
		return warnString, fmt.Sprintf("correlation is noisy, residual stddev %s",
			color.YellowString("%dus", counters["residual_stddev_us"]))
	}
	return okString, fmt.Sprintf("tracking device clock, offset %s, drift %s",
		color.BlueString("%dus", counters["offset_us"]),
		color.BlueString("%dppm", counters["drift_ppm"]))
}

var offsetCmd = &cobra.Command{
	Use:   "offset",
	Short: "Report clock correlation health of a running sensortimed",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		counters, err := stats.FetchCounters(rootMonitoringURLFlag)
		if err != nil {
			log.Fatalf("fetching counters from %s: %v", rootMonitoringURLFlag, err)
		}
		status, msg := offsetHealth(counters)
		fmt.Printf("%s %s\n", status, msg)
	},
}
