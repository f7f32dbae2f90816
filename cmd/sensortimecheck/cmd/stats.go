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
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/sensortime/stats"
)

func init() {
	RootCmd.AddCommand(statsCmd)
}

func printStatsTable(w io.Writer, counters stats.Counters) {
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("counter", "value")
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%d", counters[k])})
	}
	table.Render()
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print monitoring counters of a running sensortimed",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		counters, err := stats.FetchCounters(rootMonitoringURLFlag)
		if err != nil {
			log.Fatalf("fetching counters from %s: %v", rootMonitoringURLFlag, err)
		}
		printStatsTable(os.Stdout, counters)
	},
}
