/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package qldet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	pkgqldet "jinr.ru/greenlab/go-qldet/pkg/qldet"
)

func NewTraceCommand(cfg *config.Config) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "trace <device-map> <sample-rate>",
		Short: "Print statistics of the last acquisition, optionally dump it to CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseSampleRate(args[1])
			if err != nil {
				return err
			}
			return withSession(cfg, args[0], func(s *pkgqldet.Session) error {
				traces, err := s.Traces(fs)
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), traces)
				if csvPath == "" {
					return nil
				}
				return writeCsvFile(csvPath, traces)
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, CsvOptionName, "", "Write the traces to this CSV file")
	return cmd
}

func printSummary(w io.Writer, traces *pkgqldet.ScaledTraces) {
	det, hbw := traces.Summary()
	fmt.Fprintf(w, "Samples: %d\n", traces.Len())
	for _, line := range []struct {
		label string
		s     pkgqldet.TraceSummary
	}{
		{"Detuning (Hz)", det},
		{"Half bandwidth (Hz)", hbw},
	} {
		fmt.Fprintf(w, "%s: mean=%s std=%s min=%s max=%s\n", line.label,
			formatFloat(line.s.Mean), formatFloat(line.s.StdDev), formatFloat(line.s.Min), formatFloat(line.s.Max))
	}
}

func writeCsv(w io.Writer, traces *pkgqldet.ScaledTraces) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sample", "detuning_hz", "half_bandwidth_hz"}); err != nil {
		return err
	}
	for i := 0; i < traces.Len(); i++ {
		record := []string{
			strconv.Itoa(i),
			formatFloat(traces.DetuningHz[i]),
			formatFloat(traces.HalfBandwidthHz[i]),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeCsvFile(path string, traces *pkgqldet.ScaledTraces) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeCsv(f, traces); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
