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

// Register paths of the LLRF controller firmware
const (
	RegProbeSel     = "/APP/WORD_PIEZO_PRO_SEL"
	RegForwardSel   = "/APP/WORD_PIEZO_FOR_SEL"
	RegReflectedSel = "/APP/WORD_PIEZO_REF_SEL"

	RegSva        = "/LLRF_QLDET/BIT_SVA"
	RegBeamSrc    = "/LLRF_QLDET/BIT_BEAM_SRC"
	RegK          = "/LLRF_QLDET/WORD_K"
	RegB          = "/LLRF_QLDET/WORD_B"
	RegBeamExtI   = "/LLRF_QLDET/WORD_BEAM_EXT_I"
	RegBeamExtQ   = "/LLRF_QLDET/WORD_BEAM_EXT_Q"
	RegDiffGain   = "/LLRF_QLDET/WORD_DIFF_GAIN"
	RegDaqSamples = "/DAQ/WORD_SAMPLES"
	RegDaqBuffer  = "/app_daq/DAQ_FD_BUF0"
)

// Piezo input selectors: probe=CH1, forward=CH0, reflected=CH2
const (
	ProbeChannel     = 1
	ForwardChannel   = 0
	ReflectedChannel = 2
)

// DAQ buffer layout. The QLDET traces live in channels 10 and 11 and
// their valid length is element 1 of /DAQ/WORD_SAMPLES.
const (
	DetuningChannel      = 10
	HalfBandwidthChannel = 11
	MinTraceChannels     = 12
	TraceSampleGroup     = 1
)

const (
	DiffGainMin = 0
	DiffGainMax = 7

	// k = 4*pi*hbw/fs * 2^(kScaleExp + diffGain)
	kScaleExp = 24
	// dfq = fs / (pi * 2^(quantScaleExp + diffGain))
	quantScaleExp = 16
	// the detuning word spans 2^rangeExp quantization steps
	rangeExp = 16
)
