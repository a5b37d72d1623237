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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type TraceSummary struct {
	Samples int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summarize computes the sample statistics of a trace.
// An empty trace gives a zero summary.
func Summarize(values []float64) TraceSummary {
	s := TraceSummary{Samples: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if len(values) == 1 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}

// Summary returns the statistics of the detuning and half bandwidth traces
func (t *ScaledTraces) Summary() (detuning, halfBandwidth TraceSummary) {
	return Summarize(t.DetuningHz), Summarize(t.HalfBandwidthHz)
}
