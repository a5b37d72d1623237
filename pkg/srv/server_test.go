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
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device"
	"jinr.ru/greenlab/go-qldet/pkg/device/dummy"
	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/layers"
	"jinr.ru/greenlab/go-qldet/pkg/qldet"
)

func newTestServer(t *testing.T) (*RegServer, context.CancelFunc) {
	t.Helper()
	store, err := dummy.Open(filepath.Join(t.TempDir(), "regs.db"), "CtrlBoard", time.Second)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		store.Close()
	})
	cfg := &config.ServerConfig{Alias: "CtrlBoard"}
	return NewRegServerWithStore(ctx, cfg, store), cancel
}

func TestHandleMemFrame(t *testing.T) {
	s, _ := newTestServer(t)

	req, err := layers.MemOpToBytes(layers.MLinkTypeMemRequest, &layers.MemOp{Addr: 0x202, Size: 2, Data: []uint32{5, 6}}, 11)
	require.NoError(t, err)
	resp, err := s.HandleMemFrame(req)
	require.NoError(t, err)
	ml, mem, err := layers.DecodeMemFrame(resp)
	require.NoError(t, err)
	assert.Equal(t, layers.MLinkTypeMemResponse, ml.Type)
	assert.Equal(t, uint16(11), ml.Seq)
	assert.Empty(t, mem.Data)

	req, err = layers.MemOpToBytes(layers.MLinkTypeMemRequest, &layers.MemOp{Read: true, Addr: 0x201, Size: 3}, 12)
	require.NoError(t, err)
	resp, err = s.HandleMemFrame(req)
	require.NoError(t, err)
	ml, mem, err = layers.DecodeMemFrame(resp)
	require.NoError(t, err)
	assert.Equal(t, uint16(12), ml.Seq)
	assert.Equal(t, []uint32{0, 5, 6}, mem.Data)
}

func TestHandleMemFrameRejects(t *testing.T) {
	s, _ := newTestServer(t)

	// responses are never answered
	resp, err := layers.MemOpToBytes(layers.MLinkTypeMemResponse, &layers.MemOp{Read: true, Addr: 1, Size: 1, Data: []uint32{1}}, 1)
	require.NoError(t, err)
	_, err = s.HandleMemFrame(resp)
	var unexpected ErrUnexpectedFrame
	assert.ErrorAs(t, err, &unexpected)

	_, err = s.HandleMemFrame([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestServeUDP(t *testing.T) {
	s, cancel := newTestServer(t)

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.ServeUDP(conn) }()

	client, err := net.Dial("udp", conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	req, err := layers.MemOpToBytes(layers.MLinkTypeMemRequest, &layers.MemOp{Addr: 0x206, Size: 1, Data: []uint32{7}}, 3)
	require.NoError(t, err)
	_, err = client.Write(req)
	require.NoError(t, err)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, err := client.Read(buf)
	require.NoError(t, err)
	ml, _, err := layers.DecodeMemFrame(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, uint16(3), ml.Seq)

	data, err := s.store.ReadArea(0x206, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7}, data)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeUDP did not stop")
	}
}

func TestApi(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/mem/CtrlBoard", "application/json",
		strings.NewReader(`{"addr": 514, "data": [2698607]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/mem/CtrlBoard/0x000201/2")
	require.NoError(t, err)
	area := &deviceifc.MemArea{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(area))
	resp.Body.Close()
	assert.Equal(t, uint32(0x201), area.Addr)
	assert.Equal(t, []uint32{0, 2698607}, area.Data)

	resp, err = http.Get(ts.URL + "/api/reg/CtrlBoard")
	require.NoError(t, err)
	var regs []*deviceifc.RegHex
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regs))
	resp.Body.Close()
	require.Len(t, regs, 1)
	assert.Equal(t, "0x000202", regs[0].Addr)

	for url, code := range map[string]int{
		"/api/mem/Other/0x000201/2":              http.StatusNotFound,
		"/api/mem/CtrlBoard/0x000201/abc":        http.StatusNotFound,
		"/api/mem/CtrlBoard/0x000201/9999999999": http.StatusBadRequest,
	} {
		resp, err = http.Get(ts.URL + url)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, code, resp.StatusCode, url)
	}

	resp, err = http.Post(ts.URL+"/api/mem/CtrlBoard", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSeed(t *testing.T) {
	s, _ := newTestServer(t)
	dev := device.NewDevice("CtrlBoard", s.store, nil)

	p := DefaultSeedParams()
	p.Samples = 400
	require.NoError(t, Seed(dev, p))
	assert.False(t, dev.Privileged)

	session := qldet.NewSession(dev)
	traces, err := session.Traces(p.SampleRateHz)
	require.NoError(t, err)
	require.Equal(t, 400, traces.Len())

	status, err := session.Params(p.SampleRateHz)
	require.NoError(t, err)
	det, hbw := traces.Summary()
	assert.InDelta(t, p.HalfBandwidthHz, hbw.Mean, status.FreqQuantizationHz)
	assert.InDelta(t, p.DetuningAmplitudeHz, det.Max, 0.5)
	assert.InDelta(t, -p.DetuningAmplitudeHz, det.Min, 0.5)
	assert.InDelta(t, 0, traces.DetuningHz[0], status.FreqQuantizationHz)

	p.Samples = int(device.DaqBufferSamples) + 1
	var bounds qldet.ErrBufferBounds
	assert.ErrorAs(t, Seed(dev, p), &bounds)
}
