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
	"fmt"
)

// ErrInvalidParameter returned when a tuning parameter is out of its valid range.
// Nothing has been written to the device when it is returned.
type ErrInvalidParameter struct {
	Name   string
	Value  interface{}
	Reason string
}

func (e ErrInvalidParameter) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("Invalid parameter %s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("Invalid parameter %s = %v: %s", e.Name, e.Value, e.Reason)
}

// ErrBufferBounds returned when a trace would be read beyond the acquired data
type ErrBufferBounds struct {
	What  string
	Index int
	Limit int
}

func (e ErrBufferBounds) Error() string {
	return fmt.Sprintf("Buffer bounds exceeded: %s: %d not in [0, %d]", e.What, e.Index, e.Limit)
}
