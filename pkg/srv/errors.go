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
	"fmt"
)

// ErrGetAddr returned when we can not get the address of the peer that sent a packet
type ErrGetAddr struct{}

func (e ErrGetAddr) Error() string {
	return "Error while getting peer address"
}

// ErrUnknownDevice returned when a request names a device the server does not serve
type ErrUnknownDevice struct {
	Alias string
}

func (e ErrUnknownDevice) Error() string {
	return fmt.Sprintf("Device %s not found", e.Alias)
}

// ErrUnexpectedFrame returned when a received frame is not a memory request
type ErrUnexpectedFrame struct {
	What string
}

func (e ErrUnexpectedFrame) Error() string {
	return fmt.Sprintf("Unexpected frame: %s", e.What)
}
