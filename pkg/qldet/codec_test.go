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
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeExample(t *testing.T) {
	t.Parallel()

	img, err := Encode(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: 7})
	require.NoError(t, err)
	// 4*pi*100/1e6 * 2^31 = 2698607.54...
	assert.Equal(t, int32(2698607), img.K)
	assert.Equal(t, int32(7), img.DiffGain)
	assert.Equal(t, int32(0), img.Sva)

	img, err = Encode(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 250, DiffGain: 3, Sva: true})
	require.NoError(t, err)
	assert.Equal(t, int32(421657), img.K)
	assert.Equal(t, int32(1), img.Sva)
}

func TestEncodeValidation(t *testing.T) {
	t.Parallel()

	valid := TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: 3}
	tests := []struct {
		name   string
		modify func(p *TuningParameters)
		field  string
	}{
		{"zero sample rate", func(p *TuningParameters) { p.SampleRateHz = 0 }, "sample rate"},
		{"negative sample rate", func(p *TuningParameters) { p.SampleRateHz = -1 }, "sample rate"},
		{"NaN sample rate", func(p *TuningParameters) { p.SampleRateHz = math.NaN() }, "sample rate"},
		{"zero half bandwidth", func(p *TuningParameters) { p.HalfBandwidthHz = 0 }, "half bandwidth"},
		{"negative half bandwidth", func(p *TuningParameters) { p.HalfBandwidthHz = -5 }, "half bandwidth"},
		{"gain below range", func(p *TuningParameters) { p.DiffGain = -1 }, "differential gain"},
		{"gain above range", func(p *TuningParameters) { p.DiffGain = 8 }, "differential gain"},
		{"K overflow", func(p *TuningParameters) { p.HalfBandwidthHz = 80000; p.DiffGain = 7 }, "half bandwidth"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tc.modify(&p)
			img, err := Encode(p)
			var invalid ErrInvalidParameter
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tc.field, invalid.Name)
			assert.Equal(t, RegisterImage{}, img)
		})
	}
}

func TestEncodeGainBoundsAccepted(t *testing.T) {
	t.Parallel()

	for _, dg := range []int{DiffGainMin, DiffGainMax} {
		_, err := Encode(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: dg})
		assert.NoError(t, err, "diff gain %d", dg)
	}
}

func TestDecodeExample(t *testing.T) {
	t.Parallel()

	status, err := Decode(RegisterImage{K: 421657, DiffGain: 3, Sva: 1}, 1e6)
	require.NoError(t, err)
	// 1e6 / (pi * 2^19)
	assert.InDelta(t, 0.6071279262, status.FreqQuantizationHz, 1e-9)
	assert.InDelta(t, 39788.735773, status.FreqRangeHz, 1e-5)
	assert.InDelta(t, 250.0, status.HalfBandwidthHz, status.FreqQuantizationHz)
	assert.Equal(t, 3, status.DiffGain)
	assert.True(t, status.Sva)
	assert.Equal(t, 1e6, status.SampleRateHz)
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	var invalid ErrInvalidParameter
	_, err := Decode(RegisterImage{K: 1, DiffGain: 3}, 0)
	assert.True(t, errors.As(err, &invalid))

	_, err = Decode(RegisterImage{K: 1, DiffGain: 9}, 1e6)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "differential gain", invalid.Name)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	overflows := 0
	for _, fs := range []float64{1e6, 9.027e6, 81.25e6} {
		for dg := DiffGainMin; dg <= DiffGainMax; dg++ {
			for _, hbw := range []float64{0.5, 65, 130, 400, 780, 80000} {
				p := TuningParameters{SampleRateHz: fs, HalfBandwidthHz: hbw, DiffGain: dg, Sva: dg%2 == 0}
				img, err := Encode(p)
				if err != nil {
					// only K overflow may fail for valid inputs
					var invalid ErrInvalidParameter
					require.True(t, errors.As(err, &invalid))
					k := 4 * math.Pi * hbw / fs * math.Ldexp(1, kScaleExp+dg)
					assert.Greater(t, k, float64(math.MaxInt32), "fs=%g dg=%d hbw=%g", fs, dg, hbw)
					overflows++
					continue
				}
				status, err := Decode(img, fs)
				require.NoError(t, err)
				// one K step is smaller than one quantization step
				assert.InDelta(t, hbw, status.HalfBandwidthHz, status.FreqQuantizationHz,
					"fs=%g dg=%d hbw=%g", fs, dg, hbw)
				assert.Equal(t, p.Sva, status.Sva)
				assert.Equal(t, p.DiffGain, status.Parameters().DiffGain)
			}
		}
	}
	// fs=1e6 hbw=80000 overflows at dg=7 only
	assert.Equal(t, 1, overflows)
}

func TestGainHalvesQuantization(t *testing.T) {
	t.Parallel()

	prev, err := Decode(RegisterImage{DiffGain: 0}, 1e6)
	require.NoError(t, err)
	for dg := int32(1); dg <= DiffGainMax; dg++ {
		cur, err := Decode(RegisterImage{DiffGain: dg}, 1e6)
		require.NoError(t, err)
		assert.InDelta(t, prev.FreqQuantizationHz/2, cur.FreqQuantizationHz, 1e-12)
		assert.InDelta(t, prev.FreqRangeHz/2, cur.FreqRangeHz, 1e-7)
		assert.InDelta(t, cur.FreqQuantizationHz*65536, cur.FreqRangeHz, 1e-7)
		prev = cur
	}
}
