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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFakeDevice = errors.New("device gone")

// fakeDevice keeps scalars, vectors and matrices in maps
type fakeDevice struct {
	scalars  map[string]int32
	vectors  map[string][]int32
	matrices map[string][][]int32
	writes   []string
	failOn   string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		scalars:  map[string]int32{},
		vectors:  map[string][]int32{},
		matrices: map[string][][]int32{},
	}
}

func (d *fakeDevice) ReadScalar(path string) (int32, error) {
	if path == d.failOn {
		return 0, errFakeDevice
	}
	return d.scalars[path], nil
}

func (d *fakeDevice) WriteScalar(path string, value int32) error {
	if path == d.failOn {
		return errFakeDevice
	}
	d.writes = append(d.writes, path)
	d.scalars[path] = value
	return nil
}

func (d *fakeDevice) ReadVector(path string) ([]int32, error) {
	if path == d.failOn {
		return nil, errFakeDevice
	}
	return d.vectors[path], nil
}

func (d *fakeDevice) WriteVector(path string, values []int32) error {
	d.vectors[path] = values
	return nil
}

func (d *fakeDevice) ReadMatrix(path string) ([][]int32, error) {
	if path == d.failOn {
		return nil, errFakeDevice
	}
	return d.matrices[path], nil
}

func (d *fakeDevice) WriteMatrix(path string, values [][]int32) error {
	d.matrices[path] = values
	return nil
}

func (d *fakeDevice) Close() error {
	return nil
}

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }
func boolPtr(v bool) *bool          { return &v }

func TestFirstAccessRoutesInputs(t *testing.T) {
	dev := newFakeDevice()
	dev.scalars[RegBeamSrc] = 1
	dev.scalars[RegB] = 77
	dev.scalars[RegBeamExtI] = 5
	dev.scalars[RegBeamExtQ] = -5

	s := NewSession(dev)
	assert.Empty(t, dev.writes)

	_, err := s.Params(1e6)
	require.NoError(t, err)
	assert.Equal(t, int32(ProbeChannel), dev.scalars[RegProbeSel])
	assert.Equal(t, int32(ForwardChannel), dev.scalars[RegForwardSel])
	assert.Equal(t, int32(ReflectedChannel), dev.scalars[RegReflectedSel])
	for _, path := range []string{RegBeamSrc, RegB, RegBeamExtI, RegBeamExtQ} {
		assert.Equal(t, int32(0), dev.scalars[path], path)
	}

	// routing happens once per session
	dev.writes = nil
	_, err = s.Params(1e6)
	require.NoError(t, err)
	assert.Empty(t, dev.writes)
}

func TestRoutingDeviceError(t *testing.T) {
	dev := newFakeDevice()
	dev.failOn = RegB

	_, err := NewSession(dev).Params(1e6)
	assert.ErrorIs(t, err, errFakeDevice)
}

func TestApplyAndParams(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	img, err := s.Apply(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: 7, Sva: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2698607), dev.scalars[RegK])
	assert.Equal(t, int32(7), dev.scalars[RegDiffGain])
	assert.Equal(t, int32(1), dev.scalars[RegSva])
	assert.Equal(t, img.K, dev.scalars[RegK])

	status, err := s.Params(1e6)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, status.HalfBandwidthHz, status.FreqQuantizationHz)
	assert.Equal(t, 7, status.DiffGain)
	assert.True(t, status.Sva)
}

func TestApplyInvalidWritesNothing(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	_, err := s.Apply(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: 8})
	var invalid ErrInvalidParameter
	assert.True(t, errors.As(err, &invalid))
	assert.Empty(t, dev.writes)
}

func TestUpdateOverlaysStoredValues(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)
	_, err := s.Apply(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: 5, Sva: true})
	require.NoError(t, err)

	status, err := s.Update(1e6, Overrides{HalfBandwidthHz: float64Ptr(200)})
	require.NoError(t, err)
	assert.Equal(t, 5, status.DiffGain)
	assert.True(t, status.Sva)
	assert.InDelta(t, 200.0, status.HalfBandwidthHz, status.FreqQuantizationHz)

	status, err = s.Update(1e6, Overrides{HalfBandwidthHz: float64Ptr(200), DiffGain: intPtr(2), Sva: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, 2, status.DiffGain)
	assert.False(t, status.Sva)
	assert.Equal(t, int32(0), dev.scalars[RegSva])
}

func TestUpdateValidation(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)

	tests := []struct {
		name string
		fs   float64
		o    Overrides
	}{
		{"missing half bandwidth", 1e6, Overrides{DiffGain: intPtr(3)}},
		{"gain out of range", 1e6, Overrides{HalfBandwidthHz: float64Ptr(100), DiffGain: intPtr(-1)}},
		{"zero half bandwidth", 1e6, Overrides{HalfBandwidthHz: float64Ptr(0)}},
		{"zero sample rate", 0, Overrides{HalfBandwidthHz: float64Ptr(100)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Update(tc.fs, tc.o)
			var invalid ErrInvalidParameter
			assert.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Empty(t, dev.writes)
		})
	}
}

func TestUpdateOverflowWritesNothing(t *testing.T) {
	dev := newFakeDevice()
	dev.scalars[RegDiffGain] = DiffGainMax
	s := NewSession(dev)

	// K overflows only with the stored gain of 7
	_, err := s.Update(1e6, Overrides{HalfBandwidthHz: float64Ptr(80000)})
	var invalid ErrInvalidParameter
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Empty(t, dev.writes)

	status, err := s.Update(1e6, Overrides{HalfBandwidthHz: float64Ptr(80000), DiffGain: intPtr(6)})
	require.NoError(t, err)
	assert.Equal(t, 6, status.DiffGain)
	assert.Contains(t, dev.writes, RegProbeSel)
}

func TestTraces(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)
	_, err := s.Apply(TuningParameters{SampleRateHz: 1e6, HalfBandwidthHz: 100, DiffGain: 3})
	require.NoError(t, err)

	buf := makeBuffer(16, 5)
	buf[DetuningChannel] = []int32{1, 2, 3, 4, 5}
	buf[HalfBandwidthChannel] = []int32{10, 10, 10, 10, 10}
	dev.matrices[RegDaqBuffer] = buf
	dev.vectors[RegDaqSamples] = []int32{5, 3, 5, 5}

	traces, err := s.Traces(1e6)
	require.NoError(t, err)
	dfq, err := FreqQuantization(1e6, 3)
	require.NoError(t, err)
	require.Equal(t, 3, traces.Len())
	assert.InDelta(t, -3*dfq, traces.DetuningHz[2], 1e-12)
	assert.InDelta(t, 10*dfq, traces.HalfBandwidthHz[0], 1e-12)
}

func TestTracesErrors(t *testing.T) {
	dev := newFakeDevice()
	s := NewSession(dev)
	dev.matrices[RegDaqBuffer] = makeBuffer(12, 4)

	var bounds ErrBufferBounds
	dev.vectors[RegDaqSamples] = []int32{4}
	_, err := s.Traces(1e6)
	assert.True(t, errors.As(err, &bounds), "got %v", err)

	dev.vectors[RegDaqSamples] = []int32{0, 9}
	_, err = s.Traces(1e6)
	assert.True(t, errors.As(err, &bounds), "got %v", err)

	dev.vectors[RegDaqSamples] = []int32{0, 4}
	dev.failOn = RegDaqBuffer
	_, err = s.Traces(1e6)
	assert.ErrorIs(t, err, errFakeDevice)
}
