// Package gatewaytest provides an in-memory Modbus gateway for tests.
//
// Server speaks the same JSON API as the real gateway, backed by plain slices
// instead of a Modbus device. Tests can count requests per path, make an
// endpoint answer with an application error, drop the TCP connection, or
// hold a request until the test releases it.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/names"
)

// Server is a fake gateway. All exported methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	connected bool
	lastConn  gateway.ConnectRequest
	inputs    []bool
	coils     []bool
	registers []int
	table     names.Table
	saved     names.Table
	counts    map[string]int
	failures  map[string]string
	broken    map[string]bool
	gates     map[string]chan struct{}
	shutdown  bool
}

// New starts a fake gateway with count addresses per category and default
// names. A count of zero or less uses names.DefaultCount.
func New(count int) *Server {
	if count <= 0 {
		count = names.DefaultCount
	}
	s := &Server{
		inputs:    make([]bool, count),
		coils:     make([]bool, count),
		registers: make([]int, count),
		table:     names.Defaults(count),
		saved:     names.Defaults(count),
		counts:    make(map[string]int),
		failures:  make(map[string]string),
		broken:    make(map[string]bool),
		gates:     make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.Router())
	return s
}

// Router builds the gorilla/mux router for the fake API
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/connect", s.handleConnect).Methods(http.MethodPost)
	api.HandleFunc("/disconnect", s.handleDisconnect).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/read_inputs", s.handleReadInputs).Methods(http.MethodGet)
	api.HandleFunc("/read_coils", s.handleReadCoils).Methods(http.MethodGet)
	api.HandleFunc("/read_holding_registers", s.handleReadRegisters).Methods(http.MethodGet)
	api.HandleFunc("/write_coil", s.handleWriteCoil).Methods(http.MethodPost)
	api.HandleFunc("/write_register", s.handleWriteRegister).Methods(http.MethodPost)
	api.HandleFunc("/get_names", s.handleGetNames).Methods(http.MethodGet)
	api.HandleFunc("/set_name", s.handleSetName).Methods(http.MethodPost)
	api.HandleFunc("/save_names", s.handleSaveNames).Methods(http.MethodPost)
	api.HandleFunc("/load_names", s.handleLoadNames).Methods(http.MethodPost)
	api.HandleFunc("/reset_names", s.handleResetNames).Methods(http.MethodPost)
	api.HandleFunc("/export_names", s.handleExportNames).Methods(http.MethodGet)
	api.HandleFunc("/import_names", s.handleImportNames).Methods(http.MethodPost)
	api.HandleFunc("/shutdown", s.handleShutdown).Methods(http.MethodPost)
	return r
}

// middleware counts requests and applies injected faults before the handler runs
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		s.mu.Lock()
		s.counts[path]++
		gate := s.gates[path]
		broken := s.broken[path]
		failure, failing := s.failures[path]
		s.mu.Unlock()

		if gate != nil {
			<-gate
		}

		if broken {
			hj, ok := w.(http.Hijacker)
			if !ok {
				http.Error(w, "hijack unsupported", http.StatusInternalServerError)
				return
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}

		if failing {
			writeJSON(w, map[string]string{"status": gateway.StatusError, "message": failure})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Count returns how many requests hit path
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[path]
}

// ResetCounts clears all request counters
func (s *Server) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]int)
}

// Fail makes path answer {"status":"error","message":message} until cleared
func (s *Server) Fail(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = message
}

// Break makes path drop the connection without replying until cleared
func (s *Server) Break(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[path] = true
}

// Clear removes injected failures for path
func (s *Server) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
	delete(s.broken, path)
}

// Hold makes requests to path block until the returned release func is called
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.gates, path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// SetConnected forces the Modbus session state
func (s *Server) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// Connected reports the Modbus session state
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// LastConnect returns the parameters of the last connect request
func (s *Server) LastConnect() gateway.ConnectRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastConn
}

// SetInput sets a discrete input value
func (s *Server) SetInput(address int, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[address] = value
}

// Coil returns a coil value
func (s *Server) Coil(address int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coils[address]
}

// SetRegister sets a holding register value
func (s *Server) SetRegister(address, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[address] = value
}

// Register returns a holding register value
func (s *Server) Register(address int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registers[address]
}

// Names returns a copy of the live name table
func (s *Server) Names() names.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Clone()
}

// SetNames replaces the live name table
func (s *Server) SetNames(table names.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table.Clone().Normalize()
}

// ShutdownRequested reports whether /api/shutdown was called
func (s *Server) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func success(w http.ResponseWriter, message string) {
	writeJSON(w, gateway.Envelope{Status: gateway.StatusSuccess, Message: message})
}

func failure(w http.ResponseWriter, message string) {
	writeJSON(w, gateway.Envelope{Status: gateway.StatusError, Message: message})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req gateway.ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		failure(w, err.Error())
		return
	}
	if req.Host == "" {
		failure(w, "Failed to connect")
		return
	}

	s.mu.Lock()
	s.connected = true
	s.lastConn = req
	s.mu.Unlock()
	success(w, "Connected successfully")
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.SetConnected(false)
	success(w, "Disconnected successfully")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, gateway.StatusResponse{Connected: s.Connected()})
}

func (s *Server) handleReadInputs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		failure(w, "Not connected")
		return
	}
	writeJSON(w, gateway.BitsResponse{Envelope: gateway.Envelope{Status: gateway.StatusSuccess}, Data: bitsMap(s.inputs)})
}

func (s *Server) handleReadCoils(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		failure(w, "Not connected")
		return
	}
	writeJSON(w, gateway.BitsResponse{Envelope: gateway.Envelope{Status: gateway.StatusSuccess}, Data: bitsMap(s.coils)})
}

func (s *Server) handleReadRegisters(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		failure(w, "Not connected")
		return
	}
	data := make(map[int]int, len(s.registers))
	for i, v := range s.registers {
		data[i] = v
	}
	writeJSON(w, gateway.RegistersResponse{Envelope: gateway.Envelope{Status: gateway.StatusSuccess}, Data: data})
}

func (s *Server) handleWriteCoil(w http.ResponseWriter, r *http.Request) {
	var req gateway.WriteCoilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		failure(w, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		failure(w, "Not connected")
		return
	}
	if req.Address < 0 || req.Address >= len(s.coils) {
		failure(w, "Failed to write coil")
		return
	}
	s.coils[req.Address] = req.Value
	success(w, "Coil written successfully")
}

func (s *Server) handleWriteRegister(w http.ResponseWriter, r *http.Request) {
	var req gateway.WriteRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		failure(w, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		failure(w, "Not connected")
		return
	}
	if req.Address < 0 || req.Address >= len(s.registers) {
		failure(w, "Failed to write register")
		return
	}
	s.registers[req.Address] = req.Value
	success(w, "Register written successfully")
}

func (s *Server) handleGetNames(w http.ResponseWriter, r *http.Request) {
	s.writeNames(w, "")
}

func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	var req gateway.SetNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		failure(w, err.Error())
		return
	}
	if !req.Category.Valid() {
		failure(w, "Invalid category")
		return
	}

	s.mu.Lock()
	s.table.Set(req.Category, req.Address, req.Name)
	s.saved = s.table.Clone()
	s.mu.Unlock()
	success(w, "Name saved successfully")
}

func (s *Server) handleSaveNames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.saved = s.table.Clone()
	s.mu.Unlock()
	success(w, "Names saved successfully")
}

func (s *Server) handleLoadNames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.table = s.saved.Clone()
	s.mu.Unlock()
	s.writeNames(w, "Names loaded successfully")
}

func (s *Server) handleResetNames(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.table = names.Defaults(len(s.coils))
	s.saved = s.table.Clone()
	s.mu.Unlock()
	s.writeNames(w, "Names reset to defaults")
}

func (s *Server) handleExportNames(w http.ResponseWriter, r *http.Request) {
	table := s.Names()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", gateway.DefaultExportName))
	_ = table.Encode(w)
}

func (s *Server) handleImportNames(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(gateway.ImportFormField)
	if err != nil {
		failure(w, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		failure(w, "No file selected")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		failure(w, "Invalid file format. Please upload a JSON file.")
		return
	}

	table, err := names.Decode(file)
	if err != nil {
		failure(w, "Failed to import names")
		return
	}

	s.mu.Lock()
	s.table = table
	s.saved = table.Clone()
	s.mu.Unlock()
	s.writeNames(w, "Names imported successfully")
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	success(w, "Server shutting down...")
}

func (s *Server) writeNames(w http.ResponseWriter, message string) {
	writeJSON(w, gateway.NamesResponse{
		Envelope: gateway.Envelope{Status: gateway.StatusSuccess, Message: message},
		Data:     s.Names(),
	})
}

func bitsMap(values []bool) map[int]bool {
	data := make(map[int]bool, len(values))
	for i, v := range values {
		data[i] = v
	}
	return data
}
