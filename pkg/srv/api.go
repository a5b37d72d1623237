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
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	deviceifc "jinr.ru/greenlab/go-qldet/pkg/device/ifc"
	"jinr.ru/greenlab/go-qldet/pkg/log"
)

// MaxAreaSize limits the number of words in one API request
const MaxAreaSize = 1 << 20

// Handler returns the HTTP API with access logging and panic recovery
func (s *RegServer) Handler() http.Handler {
	router := mux.NewRouter()
	subRouter := router.PathPrefix("/api").Subrouter()
	// addr must be a hexadecimal integer, size is decimal
	subRouter.HandleFunc("/mem/{device}/{addr:0x[0-9a-fA-F]{1,8}}/{size:[0-9]+}", s.handleMemRead()).Methods("GET")
	subRouter.HandleFunc("/mem/{device}", s.handleMemWrite()).Methods("POST")
	subRouter.HandleFunc("/reg/{device}", s.handleRegDump()).Methods("GET")
	subRouter.HandleFunc("/registers", s.handleRegisters()).Methods("GET")
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(log.Writer(), router))
}

func (s *RegServer) checkDevice(w http.ResponseWriter, r *http.Request) bool {
	alias := mux.Vars(r)["device"]
	if alias != s.Alias() {
		http.Error(w, ErrUnknownDevice{Alias: alias}.Error(), http.StatusNotFound)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func (s *RegServer) handleMemRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkDevice(w, r) {
			return
		}
		vars := mux.Vars(r)
		log.Debug("Handling mem read request: device: %s addr: %s size: %s", vars["device"], vars["addr"], vars["size"])

		addr, err := strconv.ParseUint(vars["addr"], 0, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		size, err := strconv.ParseUint(vars["size"], 10, 32)
		if err != nil || size > MaxAreaSize {
			http.Error(w, "Wrong area size: "+vars["size"], http.StatusBadRequest)
			return
		}

		data, err := s.store.ReadArea(uint32(addr), uint32(size))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, &deviceifc.MemArea{Addr: uint32(addr), Data: data})
	}
}

func (s *RegServer) handleMemWrite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkDevice(w, r) {
			return
		}
		area := &deviceifc.MemArea{}
		if err := json.NewDecoder(r.Body).Decode(area); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling mem write request: device: %s addr: 0x%06x size: %d", s.Alias(), area.Addr, len(area.Data))
		if len(area.Data) > MaxAreaSize {
			http.Error(w, "Area too large", http.StatusBadRequest)
			return
		}
		if err := s.store.WriteArea(area.Addr, area.Data); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]int{"code": http.StatusOK})
	}
}

func (s *RegServer) handleRegDump() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.checkDevice(w, r) {
			return
		}
		log.Debug("Handling reg dump request: device: %s", s.Alias())
		regs, err := s.store.Dump()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if regs == nil {
			regs = []*deviceifc.RegHex{}
		}
		writeJSON(w, regs)
	}
}

func (s *RegServer) handleRegisters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.regs.All())
	}
}
