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

package srv

import (
	"fmt"
	"math"

	"jinr.ru/greenlab/go-qldet/pkg/device"
	"jinr.ru/greenlab/go-qldet/pkg/log"
	"jinr.ru/greenlab/go-qldet/pkg/qldet"
)

// SeedParams describe a synthetic acquisition: a sine detuning on top of a
// constant half bandwidth
type SeedParams struct {
	qldet.TuningParameters
	Samples             int
	DetuningAmplitudeHz float64
	Periods             float64
}

func DefaultSeedParams() *SeedParams {
	return &SeedParams{
		TuningParameters: qldet.TuningParameters{
			SampleRateHz:    1e6,
			HalfBandwidthHz: 130,
			DiffGain:        qldet.DiffGainMax,
		},
		Samples:             2048,
		DetuningAmplitudeHz: 200,
		Periods:             3,
	}
}

// clampWord keeps a raw trace value inside the 16-bit detector word
func clampWord(v float64) int32 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int32(v)
}

// Seed initializes the QLDET block of the device with the tuning parameters
// and fills the DAQ buffer with the synthetic acquisition. It needs write
// access to the read only DAQ registers, so the device is used privileged.
func Seed(dev *device.Device, p *SeedParams) error {
	session := qldet.NewSession(dev)
	img, err := session.Apply(p.TuningParameters)
	if err != nil {
		return err
	}
	dfq, err := qldet.FreqQuantization(p.SampleRateHz, p.DiffGain)
	if err != nil {
		return err
	}

	buf, err := dev.Registers().Get(qldet.RegDaqBuffer)
	if err != nil {
		return err
	}
	if buf.Channels < qldet.MinTraceChannels {
		return fmt.Errorf("DAQ buffer has %d channels, need %d", buf.Channels, qldet.MinTraceChannels)
	}
	if p.Samples < 0 || uint32(p.Samples) > buf.Elements {
		return qldet.ErrBufferBounds{What: "valid sample count", Index: p.Samples, Limit: int(buf.Elements)}
	}

	matrix := make([][]int32, buf.Channels)
	for ch := range matrix {
		matrix[ch] = make([]int32, buf.Elements)
	}
	hbwWord := clampWord(p.HalfBandwidthHz / dfq)
	for i := 0; i < p.Samples; i++ {
		det := p.DetuningAmplitudeHz * math.Sin(2*math.Pi*p.Periods*float64(i)/float64(p.Samples))
		// the firmware reports detuning with inverted sign
		matrix[qldet.DetuningChannel][i] = clampWord(-det / dfq)
		matrix[qldet.HalfBandwidthChannel][i] = hbwWord
	}

	privileged := dev.Privileged
	dev.Privileged = true
	defer func() { dev.Privileged = privileged }()

	if err := dev.WriteMatrix(qldet.RegDaqBuffer, matrix); err != nil {
		return err
	}
	counts, err := dev.ReadVector(qldet.RegDaqSamples)
	if err != nil {
		return err
	}
	if len(counts) <= qldet.TraceSampleGroup {
		return qldet.ErrBufferBounds{What: "sample count group", Index: qldet.TraceSampleGroup, Limit: len(counts) - 1}
	}
	counts[qldet.TraceSampleGroup] = int32(p.Samples)
	if err := dev.WriteVector(qldet.RegDaqSamples, counts); err != nil {
		return err
	}
	log.Info("Seeded %s: k=%d diff_gain=%d samples=%d dfq=%g Hz", dev.Alias, img.K, img.DiffGain, p.Samples, dfq)
	return nil
}
