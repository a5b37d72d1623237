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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	SchemeSdm  = "sdm"
	SchemeHttp = "http"
	SchemeUdp  = "udp"
)

// DMapEntry is one line of a device map file
type DMapEntry struct {
	Alias string
	URI   string
	// MapFile is an optional YAML register map, empty means the default map
	MapFile string
}

// Scheme returns the URI scheme and the rest of the URI
func (e *DMapEntry) Scheme() (string, string, error) {
	parts := strings.SplitN(e.URI, "://", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", ErrUnsupportedURI{URI: e.URI}
	}
	return parts[0], parts[1], nil
}

// DMap maps device aliases to their URIs
type DMap struct {
	Path    string
	Entries map[string]*DMapEntry
}

// LoadDMap reads a device map file. Relative register map files and
// sdm:// store paths are resolved against the directory of the file.
func LoadDMap(path string) (*DMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dmap, err := ParseDMap(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("Can not parse device map %s: %w", path, err)
	}
	dmap.Path = path
	return dmap, nil
}

// ParseDMap parses device map lines in the form ALIAS URI [MAPFILE]
func ParseDMap(r io.Reader, dir string) (*DMap, error) {
	dmap := &DMap{Entries: map[string]*DMapEntry{}}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		// directives like @LOAD_LIB have no meaning here
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: expected ALIAS URI [MAPFILE], got %q", lineNum, line)
		}
		entry := &DMapEntry{Alias: fields[0], URI: fields[1]}
		if len(fields) == 3 {
			entry.MapFile = resolve(dir, fields[2])
		}
		scheme, rest, err := entry.Scheme()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if scheme == SchemeSdm {
			entry.URI = SchemeSdm + "://" + resolve(dir, rest)
		}
		if _, ok := dmap.Entries[entry.Alias]; ok {
			return nil, fmt.Errorf("line %d: duplicate alias %s", lineNum, entry.Alias)
		}
		dmap.Entries[entry.Alias] = entry
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return dmap, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// Get ...
func (m *DMap) Get(alias string) (*DMapEntry, error) {
	entry, ok := m.Entries[alias]
	if !ok {
		return nil, ErrAliasNotFound{Alias: alias, DMap: m.Path}
	}
	return entry, nil
}
