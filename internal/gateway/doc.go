// Package gateway provides an HTTP client for the Modbus REST gateway.
//
// The gateway is a separate process that owns the Modbus TCP master. It
// exposes a small JSON API under /api/ for connecting to a device, reading
// discrete inputs, coils and holding registers, writing coils and registers,
// and managing the table of display names.
//
// # Reply Envelope
//
// Almost every reply carries a status field:
//
//	{"status": "success", "data": {"0": true, "1": false}}
//	{"status": "error", "message": "Not connected"}
//
// A reply with status "error" is returned as an *Error of type
// ErrTypeApplication whose Error() is the gateway's message verbatim. The
// only exceptions are GET /api/status, which returns {"connected": bool},
// and GET /api/export_names, which returns a file attachment.
//
// # Usage
//
//	client := gateway.NewClient("http://localhost:5000")
//	if _, err := client.Connect(ctx, gateway.ConnectRequest{
//	    Host: "192.168.1.50", Port: 502, UnitID: 1,
//	}); err != nil {
//	    fmt.Println(gateway.GetShortErrorMessage(err))
//	}
//	coils, err := client.ReadCoils(ctx)
//
// # Error Handling
//
// Transport failures are classified like this:
//   - ErrTypeTimeout: the gateway did not answer within the client timeout
//   - ErrTypeConnectionRefused: nothing listening at the gateway address
//   - ErrTypeDNS: the gateway hostname did not resolve
//   - ErrTypeNetwork: anything else below HTTP
//
// Use IsNetworkError and IsApplicationError to branch, and
// GetShortErrorMessage / GetTroubleshootingHint for user-facing text.
//
// The client never retries. Each call carries an X-Request-ID header that is
// also written to the debug log.
package gateway
