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
	"io"
	"strconv"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
	"jinr.ru/greenlab/go-qldet/pkg/log"
	pkgqldet "jinr.ru/greenlab/go-qldet/pkg/qldet"
)

const (
	HalfBandwidthOptionName = "half-bandwidth"
	DiffGainOptionName      = "diff-gain"
	EnableSvaOptionName     = "enable-sva"
	BwLimitsOptionName      = "bw-limits"
	DetLimitsOptionName     = "det-limits"
	ContinuousOptionName    = "continuous"
	OutputOptionName        = "output"
	FormatOptionName        = "format"
	IntervalOptionName      = "interval"
	CsvOptionName           = "csv"
)

// parseSampleRate parses and validates the sample rate argument
func parseSampleRate(s string) (float64, error) {
	fs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("Wrong sample rate %q. Must be a number in Hz", s)
	}
	if err := pkgqldet.ValidateSampleRate(fs); err != nil {
		return 0, err
	}
	return fs, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// withSession opens the device and runs f with a QLDET session on it.
// The device is closed when f returns.
func withSession(cfg *config.Config, dmap string, f func(s *pkgqldet.Session) error) (err error) {
	timeout, err := cfg.DeviceTimeout()
	if err != nil {
		return err
	}
	log.Debug("Opening device %s from %s", cfg.Device.Alias, dmap)
	dev, err := device.Open(dmap, cfg.Device.Alias, timeout)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dev.Close(); err == nil {
			err = closeErr
		}
	}()
	return f(pkgqldet.NewSession(dev))
}

// printStatus prints one labelled line per decoded value
func printStatus(w io.Writer, status pkgqldet.DecodedStatus) {
	fmt.Fprintf(w, "Traces quantization (Hz): %s\n", formatFloat(status.FreqQuantizationHz))
	fmt.Fprintf(w, "Traces range (Hz): %s\n", formatFloat(status.FreqRangeHz))
	fmt.Fprintf(w, "External half bandwidth (Hz): %s\n", formatFloat(status.HalfBandwidthHz))
	fmt.Fprintf(w, "Differential gain: %d\n", status.DiffGain)
	fmt.Fprintf(w, "SVA enabled: %t\n", status.Sva)
	fmt.Fprintf(w, "Sample rate (Hz): %s\n", formatFloat(status.SampleRateHz))
}
