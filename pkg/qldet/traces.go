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
)

// ScaledTraces holds one acquisition in Hz, index 0 is the earliest sample
type ScaledTraces struct {
	DetuningHz      []float64
	HalfBandwidthHz []float64
}

// Len returns the number of samples in each trace
func (t *ScaledTraces) Len() int {
	return len(t.DetuningHz)
}

// ExtractTraces scales the detuning and half bandwidth channels of a DAQ
// buffer indexed [channel][sample]. The detuning word is reported with
// inverted sign by the firmware, so channel 10 is negated.
func ExtractTraces(buffer [][]int32, validSamples int, dfq float64) (*ScaledTraces, error) {
	if !(dfq > 0) || math.IsInf(dfq, 0) {
		return nil, ErrInvalidParameter{Name: "frequency quantization", Value: dfq, Reason: "must be positive"}
	}
	if len(buffer) < MinTraceChannels {
		return nil, ErrBufferBounds{What: "channel", Index: HalfBandwidthChannel, Limit: len(buffer) - 1}
	}
	capacity := len(buffer[DetuningChannel])
	if n := len(buffer[HalfBandwidthChannel]); n < capacity {
		capacity = n
	}
	if validSamples < 0 || validSamples > capacity {
		return nil, ErrBufferBounds{What: "valid sample count", Index: validSamples, Limit: capacity}
	}

	traces := &ScaledTraces{
		DetuningHz:      make([]float64, validSamples),
		HalfBandwidthHz: make([]float64, validSamples),
	}
	det := buffer[DetuningChannel]
	hbw := buffer[HalfBandwidthChannel]
	for i := 0; i < validSamples; i++ {
		traces.DetuningHz[i] = -float64(det[i]) * dfq
		traces.HalfBandwidthHz[i] = float64(hbw[i]) * dfq
	}
	return traces, nil
}
