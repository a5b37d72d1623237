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

package device

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("link down")

// memBackend is a sparse word memory
type memBackend struct {
	words  map[uint32]uint32
	fail   bool
	closed bool
}

func newMemBackend() *memBackend {
	return &memBackend{words: map[uint32]uint32{}}
}

func (b *memBackend) ReadArea(addr uint32, size uint32) ([]uint32, error) {
	if b.fail {
		return nil, errBackend
	}
	data := make([]uint32, size)
	for i := range data {
		data[i] = b.words[addr+uint32(i)]
	}
	return data, nil
}

func (b *memBackend) WriteArea(addr uint32, data []uint32) error {
	if b.fail {
		return errBackend
	}
	for i, w := range data {
		b.words[addr+uint32(i)] = w
	}
	return nil
}

func (b *memBackend) Close() error {
	b.closed = true
	return nil
}

func TestScalarRoundTrip(t *testing.T) {
	b := newMemBackend()
	d := NewDevice("CtrlBoard", b, nil)

	require.NoError(t, d.WriteScalar("/LLRF_QLDET/WORD_K", -42))
	assert.Equal(t, uint32(0xffffffd6), b.words[0x202])
	v, err := d.ReadScalar("/LLRF_QLDET/WORD_K")
	require.NoError(t, err)
	assert.Equal(t, int32(-42), v)
}

func TestVector(t *testing.T) {
	b := newMemBackend()
	b.words[0x301] = 17
	d := NewDevice("CtrlBoard", b, nil)

	v, err := d.ReadVector("/DAQ/WORD_SAMPLES")
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 17, 0, 0}, v)

	// read only for a normal session
	err = d.WriteVector("/DAQ/WORD_SAMPLES", []int32{1, 2})
	var readOnly ErrReadOnly
	assert.True(t, errors.As(err, &readOnly), "got %v", err)

	d.Privileged = true
	require.NoError(t, d.WriteVector("/DAQ/WORD_SAMPLES", []int32{1, 2}))
	assert.Equal(t, uint32(2), b.words[0x301])

	err = d.WriteVector("/DAQ/WORD_SAMPLES", make([]int32, 5))
	var shape ErrShape
	assert.True(t, errors.As(err, &shape), "got %v", err)
}

func TestMatrixMultiplexing(t *testing.T) {
	b := newMemBackend()
	regs, err := NewRegMap([]*Register{{Path: "/BUF", Addr: 0x100, Elements: 3, Channels: 2}})
	require.NoError(t, err)
	d := NewDevice("CtrlBoard", b, regs)

	require.NoError(t, d.WriteMatrix("/BUF", [][]int32{{1, 2, 3}, {-1, -2, -3}}))
	// sample 1 of channel 0 is at 0x100 + 1*2 + 0
	assert.Equal(t, uint32(2), b.words[0x102])
	assert.Equal(t, uint32(0xfffffffd), b.words[0x105])

	m, err := d.ReadMatrix("/BUF")
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{1, 2, 3}, {-1, -2, -3}}, m)

	var shape ErrShape
	err = d.WriteMatrix("/BUF", [][]int32{{1}})
	assert.True(t, errors.As(err, &shape), "got %v", err)
	err = d.WriteMatrix("/BUF", [][]int32{{1, 2}, {1}})
	assert.True(t, errors.As(err, &shape), "got %v", err)
	_, err = d.ReadScalar("/BUF")
	assert.True(t, errors.As(err, &shape), "got %v", err)
	_, err = d.ReadMatrix("/BUF2")
	var notFound ErrRegisterNotFound
	assert.True(t, errors.As(err, &notFound), "got %v", err)
}

func TestDefaultDaqBufferShape(t *testing.T) {
	b := newMemBackend()
	b.words[DaqBufferAddr+5*DaqBufferChannels+10] = 99
	d := NewDevice("CtrlBoard", b, nil)

	m, err := d.ReadMatrix("/app_daq/DAQ_FD_BUF0")
	require.NoError(t, err)
	require.Len(t, m, int(DaqBufferChannels))
	require.Len(t, m[10], int(DaqBufferSamples))
	assert.Equal(t, int32(99), m[10][5])
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	b := newMemBackend()
	b.fail = true
	d := NewDevice("CtrlBoard", b, nil)

	_, err := d.ReadScalar("/LLRF_QLDET/WORD_K")
	var devErr ErrDevice
	require.True(t, errors.As(err, &devErr))
	assert.Equal(t, "/LLRF_QLDET/WORD_K", devErr.Path)
	assert.ErrorIs(t, err, errBackend)

	err = d.WriteScalar("/LLRF_QLDET/WORD_K", 1)
	assert.ErrorIs(t, err, errBackend)

	require.NoError(t, d.Close())
	assert.True(t, b.closed)
}

func TestRegMapValidation(t *testing.T) {
	_, err := NewRegMap([]*Register{{Path: "/A", Addr: 0, Elements: 2}, {Path: "/B", Addr: 1, Elements: 1}})
	assert.Error(t, err)
	_, err = NewRegMap([]*Register{{Path: "/A", Addr: 0, Elements: 1}, {Path: "/A", Addr: 4, Elements: 1}})
	assert.Error(t, err)
	_, err = NewRegMap([]*Register{{Path: "/A", Addr: 0}})
	assert.Error(t, err)

	all := DefaultRegMap().All()
	require.Len(t, all, len(DefaultRegisters))
	assert.Equal(t, "/APP/WORD_PIEZO_PRO_SEL", all[0].Path)
	assert.Equal(t, "/app_daq/DAQ_FD_BUF0", all[len(all)-1].Path)
}

func TestLoadRegMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llrf.yaml")
	data := `registers:
- path: /LLRF_QLDET/WORD_K
  addr: 16
  elements: 1
- path: /app_daq/DAQ_FD_BUF0
  addr: 256
  elements: 8
  channels: 12
  readOnly: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	regs, err := LoadRegMap(path)
	require.NoError(t, err)
	reg, err := regs.Get("/app_daq/DAQ_FD_BUF0")
	require.NoError(t, err)
	assert.Equal(t, uint32(96), reg.Words())
	assert.True(t, reg.ReadOnly)
}

func TestOpenSdm(t *testing.T) {
	dir := t.TempDir()
	dmap := filepath.Join(dir, "devices.dmap")
	require.NoError(t, os.WriteFile(dmap, []byte("CtrlBoard sdm://registers.db\n"), 0644))

	d, err := Open(dmap, "CtrlBoard", time.Second)
	require.NoError(t, err)
	require.NoError(t, d.WriteScalar("/LLRF_QLDET/WORD_DIFF_GAIN", 7))
	require.NoError(t, d.Close())
	assert.FileExists(t, filepath.Join(dir, "registers.db"))

	d, err = Open(dmap, "CtrlBoard", time.Second)
	require.NoError(t, err)
	defer d.Close()
	v, err := d.ReadScalar("/LLRF_QLDET/WORD_DIFF_GAIN")
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	dmap := filepath.Join(dir, "devices.dmap")
	require.NoError(t, os.WriteFile(dmap, []byte("Other sdm://registers.db\nPci pci://llrfs0\n"), 0644))

	var devErr ErrDevice
	_, err := Open(dmap, "CtrlBoard", time.Second)
	require.True(t, errors.As(err, &devErr))
	var notFound ErrAliasNotFound
	assert.True(t, errors.As(err, &notFound))

	_, err = Open(dmap, "Pci", time.Second)
	var unsupported ErrUnsupportedURI
	assert.True(t, errors.As(err, &unsupported), "got %v", err)

	_, err = Open(filepath.Join(dir, "missing.dmap"), "CtrlBoard", time.Second)
	assert.True(t, errors.As(err, &devErr))
}
