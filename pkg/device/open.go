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
	"time"

	"jinr.ru/greenlab/go-qldet/pkg/device/dummy"
	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/device/mlink"
	"jinr.ru/greenlab/go-qldet/pkg/device/remote"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

// Open looks up the alias in the device map and connects to the device.
// The caller owns the returned device and must close it.
func Open(dmapPath, alias string, timeout time.Duration) (*Device, error) {
	dmap, err := LoadDMap(dmapPath)
	if err != nil {
		return nil, ErrDevice{Op: "open", Err: err}
	}
	entry, err := dmap.Get(alias)
	if err != nil {
		return nil, ErrDevice{Op: "open", Err: err}
	}
	return OpenEntry(entry, timeout)
}

// OpenEntry connects to the device described by one device map entry
func OpenEntry(entry *DMapEntry, timeout time.Duration) (*Device, error) {
	regs := DefaultRegMap()
	if entry.MapFile != "" {
		var err error
		if regs, err = LoadRegMap(entry.MapFile); err != nil {
			return nil, ErrDevice{Op: "open", Err: err}
		}
	}
	backend, err := openBackend(entry, timeout)
	if err != nil {
		return nil, ErrDevice{Op: "open", Err: err}
	}
	log.Debug("Opened device %s: %s", entry.Alias, entry.URI)
	return NewDevice(entry.Alias, backend, regs), nil
}

func openBackend(entry *DMapEntry, timeout time.Duration) (deviceifc.Backend, error) {
	scheme, rest, err := entry.Scheme()
	if err != nil {
		return nil, err
	}
	switch scheme {
	case SchemeSdm:
		return dummy.Open(rest, entry.Alias, timeout)
	case SchemeHttp:
		return remote.NewApiClient(entry.URI, entry.Alias, timeout), nil
	case SchemeUdp:
		return mlink.Dial(rest, timeout)
	}
	return nil, ErrUnsupportedURI{URI: entry.URI}
}
