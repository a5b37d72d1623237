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

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

type DeviceConfig struct {
	Alias   string `json:"alias,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

type PlotConfig struct {
	Output    string    `json:"output,omitempty"`
	Format    string    `json:"format,omitempty"`
	Width     float64   `json:"width,omitempty"`
	Height    float64   `json:"height,omitempty"`
	Interval  string    `json:"interval,omitempty"`
	BwLimits  []float64 `json:"bwLimits,omitempty"`
	DetLimits []float64 `json:"detLimits,omitempty"`
}

type ServerConfig struct {
	Address string `json:"address,omitempty"`
	ApiPort int    `json:"apiPort,omitempty"`
	RegPort int    `json:"regPort,omitempty"`
	DBPath  string `json:"dbPath,omitempty"`
	Alias   string `json:"alias,omitempty"`
}

type Config struct {
	LogLevel string        `json:"logLevel,omitempty"`
	Device   *DeviceConfig `json:"device,omitempty"`
	Plot     *PlotConfig   `json:"plot,omitempty"`
	Server   *ServerConfig `json:"server,omitempty"`
	filepath string
}

// Persist writes the config to its file path creating the directory if needed
func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load overlays values from the config file. A missing file is not an error.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

// DeviceTimeout is the request timeout for network register backends
func (c *Config) DeviceTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Device.Timeout)
	if err != nil || d <= 0 {
		return 0, ErrInvalidConfig{Field: "device.timeout", What: c.Device.Timeout}
	}
	return d, nil
}

// PlotInterval is the polling period of the continuous plot
func (c *Config) PlotInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Plot.Interval)
	if err != nil || d <= 0 {
		return 0, ErrInvalidConfig{Field: "plot.interval", What: c.Plot.Interval}
	}
	return d, nil
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, DefaultDBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Device: &DeviceConfig{
			Alias:   DefaultAlias,
			Timeout: DefaultTimeout,
		},
		Plot: &PlotConfig{
			Output:    DefaultPlotFile,
			Format:    DefaultFormat,
			Width:     DefaultWidth,
			Height:    DefaultHeight,
			Interval:  DefaultInterval,
			BwLimits:  []float64{DefaultBwLo, DefaultBwHi},
			DetLimits: []float64{DefaultDetLo, DefaultDetHi},
		},
		Server: &ServerConfig{
			Address: DefaultAddress,
			ApiPort: DefaultApiPort,
			RegPort: DefaultRegPort,
			DBPath:  DefaultDBPath(),
			Alias:   DefaultAlias,
		},
		filepath: DefaultConfigPath(),
	}
}
