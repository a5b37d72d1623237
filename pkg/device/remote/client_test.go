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

package remote_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-qldet/pkg/config"
	"jinr.ru/greenlab/go-qldet/pkg/device/dummy"
	"jinr.ru/greenlab/go-qldet/pkg/device/remote"
	"jinr.ru/greenlab/go-qldet/pkg/srv"
)

func newApiServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := dummy.Open(filepath.Join(t.TempDir(), "regs.db"), "CtrlBoard", time.Second)
	require.NoError(t, err)
	s := srv.NewRegServerWithStore(context.Background(), &config.ServerConfig{Alias: "CtrlBoard"}, store)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return ts
}

func TestReadWriteArea(t *testing.T) {
	ts := newApiServer(t)
	c := remote.NewApiClient(ts.URL+"/", "CtrlBoard", time.Second)
	defer c.Close()

	require.NoError(t, c.WriteArea(0x200, []uint32{1, 0, 2698607}))
	data, err := c.ReadArea(0x200, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 0, 2698607, 0}, data)

	regs, err := c.Dump()
	require.NoError(t, err)
	require.Len(t, regs, 3)
	assert.Equal(t, "0x000202", regs[2].Addr)
	assert.Equal(t, "0x00292d6f", regs[2].Value)
}

func TestUnknownDevice(t *testing.T) {
	ts := newApiServer(t)
	c := remote.NewApiClient(ts.URL, "Other", time.Second)

	_, err := c.ReadArea(0x200, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Error(t, c.WriteArea(0x200, []uint32{1}))
	_, err = c.Dump()
	assert.Error(t, err)
}

func TestServerDown(t *testing.T) {
	ts := newApiServer(t)
	url := ts.URL
	ts.Close()

	c := remote.NewApiClient(url, "CtrlBoard", 200*time.Millisecond)
	_, err := c.ReadArea(0x200, 1)
	assert.Error(t, err)
}
