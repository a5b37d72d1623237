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

package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req"

	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
)

// ApiClient reads and writes device memory through the register server API
type ApiClient struct {
	ApiPrefix string
	Alias     string
	r         *req.Req
}

var _ deviceifc.Backend = &ApiClient{}

// NewApiClient ...
func NewApiClient(baseUrl, alias string, timeout time.Duration) *ApiClient {
	r := req.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &ApiClient{
		ApiPrefix: fmt.Sprintf("%s/api", strings.TrimSuffix(baseUrl, "/")),
		Alias:     alias,
		r:         r,
	}
}

func (c *ApiClient) memReadUrl(addr, size uint32) string {
	return fmt.Sprintf("%s/mem/%s/0x%06x/%d", c.ApiPrefix, c.Alias, addr, size)
}

func (c *ApiClient) memWriteUrl() string {
	return fmt.Sprintf("%s/mem/%s", c.ApiPrefix, c.Alias)
}

func (c *ApiClient) regDumpUrl() string {
	return fmt.Sprintf("%s/reg/%s", c.ApiPrefix, c.Alias)
}

func checkStatus(r *req.Resp) error {
	if r.Response().StatusCode != http.StatusOK {
		msg := strings.TrimSpace(r.String())
		if msg == "" {
			return errors.New(r.Response().Status)
		}
		return fmt.Errorf("%s: %s", r.Response().Status, msg)
	}
	return nil
}

// ReadArea sends request to get a memory area of a device
func (c *ApiClient) ReadArea(addr uint32, size uint32) ([]uint32, error) {
	r, err := c.r.Get(c.memReadUrl(addr, size))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	area := &deviceifc.MemArea{}
	if err = r.ToJSON(area); err != nil {
		return nil, err
	}
	if area.Addr != addr || uint32(len(area.Data)) != size {
		return nil, fmt.Errorf("Unexpected area 0x%x+%d, requested 0x%x+%d", area.Addr, len(area.Data), addr, size)
	}
	return area.Data, nil
}

// WriteArea sends request to write data to a memory area of a device
func (c *ApiClient) WriteArea(addr uint32, data []uint32) error {
	area := &deviceifc.MemArea{
		Addr: addr,
		Data: data,
	}
	r, err := c.r.Post(c.memWriteUrl(), req.BodyJSON(area))
	if err != nil {
		return err
	}
	return checkStatus(r)
}

// Dump sends request to get all written registers of a device
func (c *ApiClient) Dump() ([]*deviceifc.RegHex, error) {
	r, err := c.r.Get(c.regDumpUrl())
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	var regs []*deviceifc.RegHex
	if err = r.ToJSON(&regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// Close ...
func (c *ApiClient) Close() error {
	return nil
}
