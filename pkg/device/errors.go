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
	"fmt"
)

// ErrDevice wraps every failure of the register access layer.
// The cause is kept unmodified and is reachable with errors.Unwrap.
type ErrDevice struct {
	Op   string
	Path string
	Err  error
}

func (e ErrDevice) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("Device error: %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("Device error: %s %s: %s", e.Op, e.Path, e.Err)
}

func (e ErrDevice) Unwrap() error {
	return e.Err
}

// ErrRegisterNotFound returned when a path is missing from the register map
type ErrRegisterNotFound struct {
	Path string
}

func (e ErrRegisterNotFound) Error() string {
	return fmt.Sprintf("Register not found: %s", e.Path)
}

// ErrAliasNotFound returned when the device map has no entry for an alias
type ErrAliasNotFound struct {
	Alias string
	DMap  string
}

func (e ErrAliasNotFound) Error() string {
	return fmt.Sprintf("Device alias %s not found in %s", e.Alias, e.DMap)
}

// ErrReadOnly returned on writes to registers the firmware owns
type ErrReadOnly struct {
	Path string
}

func (e ErrReadOnly) Error() string {
	return fmt.Sprintf("Register is read only: %s", e.Path)
}

// ErrShape returned when a register is accessed with the wrong dimensions
type ErrShape struct {
	Path string
	What string
}

func (e ErrShape) Error() string {
	return fmt.Sprintf("Wrong register shape %s: %s", e.Path, e.What)
}

// ErrUnsupportedURI returned for device map URIs without a backend
type ErrUnsupportedURI struct {
	URI string
}

func (e ErrUnsupportedURI) Error() string {
	return fmt.Sprintf("Unsupported device URI: %s. Must be one of sdm://, http://, udp://", e.URI)
}
