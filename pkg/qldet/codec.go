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
	"math"
)

// TuningParameters are the physical settings of the QLDET block
type TuningParameters struct {
	SampleRateHz    float64
	HalfBandwidthHz float64
	DiffGain        int
	Sva             bool
}

// RegisterImage is what the QLDET block stores in its registers
type RegisterImage struct {
	K        int32
	DiffGain int32
	Sva      int32
}

// DecodedStatus is a RegisterImage expressed in physical units.
// The hardware does not store the sample rate, it is supplied by the caller.
type DecodedStatus struct {
	FreqQuantizationHz float64
	FreqRangeHz        float64
	HalfBandwidthHz    float64
	DiffGain           int
	Sva                bool
	SampleRateHz       float64
}

// ValidateSampleRate ...
func ValidateSampleRate(fs float64) error {
	if !(fs > 0) || math.IsInf(fs, 0) {
		return ErrInvalidParameter{Name: "sample rate", Value: fs, Reason: "must be positive"}
	}
	return nil
}

func validateDiffGain(dg int) error {
	if dg < DiffGainMin || dg > DiffGainMax {
		return ErrInvalidParameter{Name: "differential gain", Value: dg, Reason: "must be in [0, 7]"}
	}
	return nil
}

// Validate checks the parameters without computing anything
func (p TuningParameters) Validate() error {
	if err := ValidateSampleRate(p.SampleRateHz); err != nil {
		return err
	}
	if !(p.HalfBandwidthHz > 0) || math.IsInf(p.HalfBandwidthHz, 0) {
		return ErrInvalidParameter{Name: "half bandwidth", Value: p.HalfBandwidthHz, Reason: "must be positive"}
	}
	return validateDiffGain(p.DiffGain)
}

// Encode converts the tuning parameters into the register image of the
// differentiator filter. K is truncated toward zero.
func Encode(p TuningParameters) (RegisterImage, error) {
	if err := p.Validate(); err != nil {
		return RegisterImage{}, err
	}

	k := math.Trunc(4 * math.Pi * p.HalfBandwidthHz / p.SampleRateHz * math.Ldexp(1, kScaleExp+p.DiffGain))
	if k > math.MaxInt32 {
		return RegisterImage{}, ErrInvalidParameter{
			Name:   "half bandwidth",
			Value:  p.HalfBandwidthHz,
			Reason: "K coefficient does not fit 32 bits, lower the differential gain",
		}
	}

	img := RegisterImage{
		K:        int32(k),
		DiffGain: int32(p.DiffGain),
	}
	if p.Sva {
		img.Sva = 1
	}
	return img, nil
}

// FreqQuantization is the size of one detuning trace step in Hz
func FreqQuantization(fs float64, diffGain int) (float64, error) {
	if err := ValidateSampleRate(fs); err != nil {
		return 0, err
	}
	if err := validateDiffGain(diffGain); err != nil {
		return 0, err
	}
	return fs / (math.Pi * math.Ldexp(1, quantScaleExp+diffGain)), nil
}

// Decode is the inverse of Encode. A stored differential gain outside
// [0, 7] means the register content is not usable and is rejected.
func Decode(img RegisterImage, fs float64) (DecodedStatus, error) {
	dg := int(img.DiffGain)
	dfq, err := FreqQuantization(fs, dg)
	if err != nil {
		return DecodedStatus{}, err
	}

	return DecodedStatus{
		FreqQuantizationHz: dfq,
		FreqRangeHz:        dfq * math.Ldexp(1, rangeExp),
		HalfBandwidthHz:    float64(img.K) * fs / math.Ldexp(1, kScaleExp+dg) / (4 * math.Pi),
		DiffGain:           dg,
		Sva:                img.Sva != 0,
		SampleRateHz:       fs,
	}, nil
}

// Parameters returns the tuning parameters the status was decoded from
func (s DecodedStatus) Parameters() TuningParameters {
	return TuningParameters{
		SampleRateHz:    s.SampleRateHz,
		HalfBandwidthHz: s.HalfBandwidthHz,
		DiffGain:        s.DiffGain,
		Sva:             s.Sva,
	}
}
