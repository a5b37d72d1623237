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

	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

// Session drives the QLDET block of one open device.
// The device is owned by the caller, Session never closes it.
type Session struct {
	dev      deviceifc.Device
	prepared bool
}

// Overrides are the settings given on the command line, nil means keep
type Overrides struct {
	HalfBandwidthHz *float64
	DiffGain        *int
	Sva             *bool
}

// Validate checks the overrides that do not depend on the stored values
func (o Overrides) Validate() error {
	if o.HalfBandwidthHz == nil {
		return ErrInvalidParameter{Name: "half bandwidth", Reason: "is required"}
	}
	if !(*o.HalfBandwidthHz > 0) || math.IsInf(*o.HalfBandwidthHz, 0) {
		return ErrInvalidParameter{Name: "half bandwidth", Value: *o.HalfBandwidthHz, Reason: "must be positive"}
	}
	if o.DiffGain != nil {
		return validateDiffGain(*o.DiffGain)
	}
	return nil
}

type regWrite struct {
	path  string
	value int32
}

// NewSession binds a session to an open device. Nothing is written until
// the first Params, Apply, Update or Traces call.
func NewSession(dev deviceifc.Device) *Session {
	return &Session{dev: dev}
}

// prepare routes probe, forward and reflected signals to the piezo selectors
// and switches the beam compensation (source, B coefficient, external I/Q)
// off. It runs once per session.
func (s *Session) prepare() error {
	if s.prepared {
		return nil
	}
	ops := []regWrite{
		{RegProbeSel, ProbeChannel},
		{RegForwardSel, ForwardChannel},
		{RegReflectedSel, ReflectedChannel},
		{RegBeamSrc, 0},
		{RegB, 0},
		{RegBeamExtI, 0},
		{RegBeamExtQ, 0},
	}
	if err := s.write(ops); err != nil {
		return err
	}
	s.prepared = true
	return nil
}

func (s *Session) write(ops []regWrite) error {
	for _, op := range ops {
		log.Debug("Writing register %s = %d", op.path, op.value)
		if err := s.dev.WriteScalar(op.path, op.value); err != nil {
			return err
		}
	}
	return nil
}

// ReadImage reads the raw QLDET registers
func (s *Session) ReadImage() (RegisterImage, error) {
	var img RegisterImage
	var err error
	if img.K, err = s.dev.ReadScalar(RegK); err != nil {
		return img, err
	}
	if img.DiffGain, err = s.dev.ReadScalar(RegDiffGain); err != nil {
		return img, err
	}
	if img.Sva, err = s.dev.ReadScalar(RegSva); err != nil {
		return img, err
	}
	return img, nil
}

// Params reads and decodes the current settings
func (s *Session) Params(fs float64) (DecodedStatus, error) {
	if err := ValidateSampleRate(fs); err != nil {
		return DecodedStatus{}, err
	}
	if err := s.prepare(); err != nil {
		return DecodedStatus{}, err
	}
	img, err := s.ReadImage()
	if err != nil {
		return DecodedStatus{}, err
	}
	return Decode(img, fs)
}

// Apply encodes the parameters and writes K, differential gain and SVA.
// Nothing is written if the parameters are invalid.
func (s *Session) Apply(p TuningParameters) (RegisterImage, error) {
	img, err := Encode(p)
	if err != nil {
		return RegisterImage{}, err
	}
	if err := s.prepare(); err != nil {
		return RegisterImage{}, err
	}
	log.Info("Applying QLDET settings: hbw=%g Hz fs=%g Hz diff_gain=%d sva=%t k=%d",
		p.HalfBandwidthHz, p.SampleRateHz, p.DiffGain, p.Sva, img.K)
	err = s.write([]regWrite{
		{RegK, img.K},
		{RegDiffGain, img.DiffGain},
		{RegSva, img.Sva},
	})
	if err != nil {
		return RegisterImage{}, err
	}
	return img, nil
}

// Update overlays the given overrides on the stored differential gain and
// SVA flag and applies the result. The half bandwidth must always be given.
// The stored values are only read before encoding, so a rejected update
// leaves the device untouched.
func (s *Session) Update(fs float64, o Overrides) (DecodedStatus, error) {
	if err := ValidateSampleRate(fs); err != nil {
		return DecodedStatus{}, err
	}
	if err := o.Validate(); err != nil {
		return DecodedStatus{}, err
	}

	img, err := s.ReadImage()
	if err != nil {
		return DecodedStatus{}, err
	}
	p := TuningParameters{
		SampleRateHz:    fs,
		HalfBandwidthHz: *o.HalfBandwidthHz,
		DiffGain:        int(img.DiffGain),
		Sva:             img.Sva != 0,
	}
	if o.DiffGain != nil {
		p.DiffGain = *o.DiffGain
	}
	if o.Sva != nil {
		p.Sva = *o.Sva
	}

	img, err = s.Apply(p)
	if err != nil {
		return DecodedStatus{}, err
	}
	return Decode(img, fs)
}

// Traces reads the last DAQ snapshot and scales the QLDET channels
func (s *Session) Traces(fs float64) (*ScaledTraces, error) {
	status, err := s.Params(fs)
	if err != nil {
		return nil, err
	}
	counts, err := s.dev.ReadVector(RegDaqSamples)
	if err != nil {
		return nil, err
	}
	if len(counts) <= TraceSampleGroup {
		return nil, ErrBufferBounds{What: "sample count group", Index: TraceSampleGroup, Limit: len(counts) - 1}
	}
	buffer, err := s.dev.ReadMatrix(RegDaqBuffer)
	if err != nil {
		return nil, err
	}
	log.Debug("Extracting %d samples with quantization %g Hz", counts[TraceSampleGroup], status.FreqQuantizationHz)
	return ExtractTraces(buffer, int(counts[TraceSampleGroup]), status.FreqQuantizationHz)
}
