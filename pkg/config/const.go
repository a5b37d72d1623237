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

package config

const (
	Version         = "1.0.0"
	ConfigDir       = ".go-qldet"
	ConfigFile      = "config"
	DefaultLogLevel = "info"
	DefaultAlias    = "CtrlBoard"
	DefaultTimeout  = "2s"
	DefaultPlotFile = "qldet.png"
	DefaultFormat   = "png"
	DefaultWidth    = 12.0 // inches
	DefaultHeight   = 4.5  // inches
	DefaultInterval = "1s"
	DefaultBwLo     = 0.0
	DefaultBwHi     = 500.0
	DefaultDetLo    = -500.0
	DefaultDetHi    = 500.0
	DefaultAddress  = "0.0.0.0"
	DefaultApiPort  = 8010
	DefaultRegPort  = 33300
	DefaultDBFile   = "registers.db"
)
