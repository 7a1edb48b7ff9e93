package gateway

import "github.com/muurk/modbusdash/internal/names"

// API paths served by the gateway
const (
	PathConnect       = "/api/connect"
	PathDisconnect    = "/api/disconnect"
	PathStatus        = "/api/status"
	PathReadInputs    = "/api/read_inputs"
	PathReadCoils     = "/api/read_coils"
	PathReadRegisters = "/api/read_holding_registers"
	PathWriteCoil     = "/api/write_coil"
	PathWriteRegister = "/api/write_register"
	PathGetNames      = "/api/get_names"
	PathSetName       = "/api/set_name"
	PathSaveNames     = "/api/save_names"
	PathLoadNames     = "/api/load_names"
	PathResetNames    = "/api/reset_names"
	PathExportNames   = "/api/export_names"
	PathImportNames   = "/api/import_names"
	PathShutdown      = "/api/shutdown"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	// DefaultExportName is used when the export reply carries no filename
	DefaultExportName = "modbus_names.json"

	// ImportFormField is the multipart field the import endpoint reads
	ImportFormField = "file"

	// RequestIDHeader carries a per-request UUID for log correlation
	RequestIDHeader = "X-Request-ID"

	// MaxRegisterValue is the largest value a 16-bit holding register accepts
	MaxRegisterValue = 65535
)

// ReadPath returns the read endpoint for a category
func ReadPath(c names.Category) string {
	switch c {
	case names.Inputs:
		return PathReadInputs
	case names.Coils:
		return PathReadCoils
	default:
		return PathReadRegisters
	}
}

// Envelope is the common part of every gateway reply
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the gateway answered with status "success"
func (e Envelope) OK() bool {
	return e.Status == StatusSuccess
}

// ConnectRequest is the body of POST /api/connect
type ConnectRequest struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	UnitID int    `json:"unit_id"`
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Connected bool `json:"connected"`
}

// BitsResponse is returned by the inputs and coils read endpoints
type BitsResponse struct {
	Envelope
	Data map[int]bool `json:"data"`
}

// RegistersResponse is returned by the holding register read endpoint
type RegistersResponse struct {
	Envelope
	Data map[int]int `json:"data"`
}

// WriteCoilRequest is the body of POST /api/write_coil
type WriteCoilRequest struct {
	Address int  `json:"address"`
	Value   bool `json:"value"`
}

// WriteRegisterRequest is the body of POST /api/write_register
type WriteRegisterRequest struct {
	Address int `json:"address"`
	Value   int `json:"value"`
}

// SetNameRequest is the body of POST /api/set_name
type SetNameRequest struct {
	Category names.Category `json:"category"`
	Address  int            `json:"address"`
	Name     string         `json:"name"`
}

// NamesResponse is returned by every endpoint that hands back the name table
type NamesResponse struct {
	Envelope
	Data names.Table `json:"data"`
}
