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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/log"
	"jinr.ru/greenlab/go-qldet/pkg/plot"
	pkgqldet "jinr.ru/greenlab/go-qldet/pkg/qldet"
)

const (
	plotExample = `
Plot the last acquisition to qldet.png
# go-qldet plot devices.dmap 9.027e6

Refresh an interactive page every second until Ctrl-C
# go-qldet plot devices.dmap 9.027e6 --continuous --output=qldet.html --det-limits=-100,100
`
)

func NewPlotCommand(cfg *config.Config) *cobra.Command {
	var bwLimits, detLimits, output, format, interval string
	var continuous bool
	cmd := &cobra.Command{
		Use:     "plot <device-map> <sample-rate>",
		Short:   "Plot the half bandwidth and detuning traces",
		Example: plotExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseSampleRate(args[1])
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Plot.Output = output
				if format == "" {
					cfg.Plot.Format = plot.FormatFromPath(output)
				}
			}
			if format != "" {
				cfg.Plot.Format = format
				if output == "" {
					// keep the default file name in line with the format
					cfg.Plot.Output = strings.TrimSuffix(cfg.Plot.Output, filepath.Ext(cfg.Plot.Output)) + "." + format
				}
			}
			if interval != "" {
				cfg.Plot.Interval = interval
			}
			o, err := plotOptions(cfg, bwLimits, detLimits)
			if err != nil {
				return err
			}
			period, err := cfg.PlotInterval()
			if err != nil {
				return err
			}

			return withSession(cfg, args[0], func(s *pkgqldet.Session) error {
				render := func() error {
					traces, err := s.Traces(fs)
					if err != nil {
						return err
					}
					o.Title = fmt.Sprintf("%s %s", cfg.Device.Alias, time.Now().Format(time.RFC3339))
					if err := plot.WriteFile(cfg.Plot.Output, cfg.Plot.Format, traces, o); err != nil {
						return err
					}
					log.Info("Plotted %d samples to %s", traces.Len(), cfg.Plot.Output)
					return nil
				}
				if !continuous {
					return render()
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				ticker := time.NewTicker(period)
				defer ticker.Stop()
				for {
					if err := render(); err != nil {
						return err
					}
					select {
					case <-ctx.Done():
						log.Info("Plotting stopped")
						return nil
					case <-ticker.C:
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&bwLimits, BwLimitsOptionName, "", "Half bandwidth axis limits lo,hi in Hz (default 0,500)")
	cmd.Flags().StringVar(&detLimits, DetLimitsOptionName, "", "Detuning axis limits lo,hi in Hz (default -500,500)")
	cmd.Flags().BoolVar(&continuous, ContinuousOptionName, false, "Re-read the traces and update the plot until interrupted")
	cmd.Flags().StringVar(&output, OutputOptionName, "", fmt.Sprintf("Output file (default %s)", config.DefaultPlotFile))
	cmd.Flags().StringVar(&format, FormatOptionName, "", "Output format: png or html (default from the output file extension)")
	cmd.Flags().StringVar(&interval, IntervalOptionName, "", fmt.Sprintf("Polling interval of the continuous mode (default %s)", config.DefaultInterval))
	return cmd
}

// plotOptions merges the limit flags over the config values
func plotOptions(cfg *config.Config, bwLimits, detLimits string) (*plot.Options, error) {
	o := &plot.Options{
		Width:  cfg.Plot.Width,
		Height: cfg.Plot.Height,
	}
	var err error
	if bwLimits != "" {
		o.BwLimits, err = plot.ParseLimits(bwLimits)
	} else {
		o.BwLimits, err = plot.LimitsFromSlice(cfg.Plot.BwLimits)
	}
	if err != nil {
		return nil, err
	}
	if detLimits != "" {
		o.DetLimits, err = plot.ParseLimits(detLimits)
	} else {
		o.DetLimits, err = plot.LimitsFromSlice(cfg.Plot.DetLimits)
	}
	if err != nil {
		return nil, err
	}
	if !(o.Width > 0) || !(o.Height > 0) {
		return nil, config.ErrInvalidConfig{Field: "plot.width/height", What: fmt.Sprintf("%gx%g", o.Width, o.Height)}
	}
	return o, nil
}
