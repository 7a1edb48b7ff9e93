package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/modbusdash/internal/logging"
	"github.com/muurk/modbusdash/internal/names"
)

const (
	// DefaultBaseURL is where the gateway listens when started without arguments
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// maxResponseSize bounds how much of a reply body is read into memory
	maxResponseSize = 4 << 20
)

// Client represents an HTTP client for communicating with a Modbus gateway.
// It performs exactly one request per call; there are no retries.
type Client struct {
	// BaseURL is the gateway root (e.g., "http://localhost:5000")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// UserAgent is sent with every request when non-empty
	UserAgent string
}

// NewClient creates a new gateway client.
// A bare host[:port] is accepted and given the http scheme.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    NormalizeBaseURL(baseURL),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// NormalizeBaseURL adds a scheme when missing and strips trailing slashes
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return DefaultBaseURL
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Connect asks the gateway to open a Modbus TCP session
func (c *Client) Connect(ctx context.Context, req ConnectRequest) (string, error) {
	var resp Envelope
	if err := c.call(ctx, http.MethodPost, PathConnect, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Disconnect closes the gateway's Modbus session
func (c *Client) Disconnect(ctx context.Context) (string, error) {
	var resp Envelope
	if err := c.call(ctx, http.MethodPost, PathDisconnect, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Status reports whether the gateway currently holds a Modbus session.
// The status reply has no envelope.
func (c *Client) Status(ctx context.Context) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, PathStatus, nil, "")
	if err != nil {
		return false, err
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return false, NewParseError("failed to parse status response", err)
	}
	return status.Connected, nil
}

// ReadInputs fetches the discrete inputs snapshot
func (c *Client) ReadInputs(ctx context.Context) (map[int]bool, error) {
	return c.readBits(ctx, PathReadInputs)
}

// ReadCoils fetches the coils snapshot
func (c *Client) ReadCoils(ctx context.Context) (map[int]bool, error) {
	return c.readBits(ctx, PathReadCoils)
}

// ReadHoldingRegisters fetches the holding registers snapshot
func (c *Client) ReadHoldingRegisters(ctx context.Context) (map[int]int, error) {
	var resp RegistersResponse
	if err := c.call(ctx, http.MethodGet, PathReadRegisters, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = map[int]int{}
	}
	return resp.Data, nil
}

func (c *Client) readBits(ctx context.Context, path string) (map[int]bool, error) {
	var resp BitsResponse
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = map[int]bool{}
	}
	return resp.Data, nil
}

// WriteCoil sets a single coil
func (c *Client) WriteCoil(ctx context.Context, address int, value bool) (string, error) {
	var resp Envelope
	err := c.call(ctx, http.MethodPost, PathWriteCoil, WriteCoilRequest{Address: address, Value: value}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// WriteRegister sets a single holding register
func (c *Client) WriteRegister(ctx context.Context, address int, value int) (string, error) {
	if value < 0 || value > MaxRegisterValue {
		return "", NewValidationError(fmt.Sprintf("register value %d out of range 0-%d", value, MaxRegisterValue))
	}

	var resp Envelope
	err := c.call(ctx, http.MethodPost, PathWriteRegister, WriteRegisterRequest{Address: address, Value: value}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GetNames fetches the gateway's current name table
func (c *Client) GetNames(ctx context.Context) (names.Table, error) {
	table, _, err := c.namesCall(ctx, http.MethodGet, PathGetNames)
	return table, err
}

// SetName assigns a display name to one address
func (c *Client) SetName(ctx context.Context, category names.Category, address int, name string) (string, error) {
	if !category.Valid() {
		return "", NewValidationError(fmt.Sprintf("invalid category %q", category))
	}

	var resp Envelope
	req := SetNameRequest{Category: category, Address: address, Name: name}
	if err := c.call(ctx, http.MethodPost, PathSetName, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SaveNames persists the gateway's name table to its own storage
func (c *Client) SaveNames(ctx context.Context) (string, error) {
	var resp Envelope
	if err := c.call(ctx, http.MethodPost, PathSaveNames, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// LoadNames makes the gateway re-read its stored name table and returns it
func (c *Client) LoadNames(ctx context.Context) (names.Table, string, error) {
	return c.namesCall(ctx, http.MethodPost, PathLoadNames)
}

// ResetNames restores default names on the gateway and returns the new table
func (c *Client) ResetNames(ctx context.Context) (names.Table, string, error) {
	return c.namesCall(ctx, http.MethodPost, PathResetNames)
}

// Shutdown asks the gateway process to exit
func (c *Client) Shutdown(ctx context.Context) (string, error) {
	var resp Envelope
	if err := c.call(ctx, http.MethodPost, PathShutdown, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ExportNames downloads the name table file and copies it to w.
// Returns the filename suggested by the gateway.
func (c *Client) ExportNames(ctx context.Context, w io.Writer) (string, error) {
	resp, requestID, start, err := c.send(ctx, http.MethodGet, PathExportNames, nil, "")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	// Failures come back as a JSON envelope instead of an attachment
	disposition := resp.Header.Get("Content-Disposition")
	if resp.StatusCode != http.StatusOK || disposition == "" {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		err := replyError(resp.StatusCode, body)
		if err == nil {
			err = NewParseError("export reply carried no attachment", nil)
		}
		logging.LogRequest(requestID, http.MethodGet, PathExportNames, resp.StatusCode, time.Since(start), err)
		return "", err
	}

	filename := DefaultExportName
	if _, params, perr := mime.ParseMediaType(disposition); perr == nil && params["filename"] != "" {
		filename = filepath.Base(params["filename"])
	}

	if _, err := io.Copy(w, io.LimitReader(resp.Body, maxResponseSize)); err != nil {
		nerr := NewNetworkError("failed to read export body", err)
		logging.LogRequest(requestID, http.MethodGet, PathExportNames, resp.StatusCode, time.Since(start), nerr)
		return "", nerr
	}

	logging.LogRequest(requestID, http.MethodGet, PathExportNames, resp.StatusCode, time.Since(start), nil)
	return filename, nil
}

// ImportNames uploads a names file as multipart field "file".
// The gateway validates the file and returns the resulting table.
func (c *Client) ImportNames(ctx context.Context, filename string, r io.Reader) (names.Table, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(ImportFormField, filepath.Base(filename))
	if err != nil {
		return nil, "", NewValidationError(fmt.Sprintf("failed to build upload: %v", err))
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", NewValidationError(fmt.Sprintf("failed to read %s: %v", filename, err))
	}
	if err := mw.Close(); err != nil {
		return nil, "", NewValidationError(fmt.Sprintf("failed to build upload: %v", err))
	}

	body, err := c.do(ctx, http.MethodPost, PathImportNames, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, "", err
	}

	var resp NamesResponse
	if err := decodeEnvelope(body, &resp); err != nil {
		return nil, "", err
	}
	return resp.Data.Normalize(), resp.Message, nil
}

func (c *Client) namesCall(ctx context.Context, method, path string) (names.Table, string, error) {
	var resp NamesResponse
	if err := c.call(ctx, method, path, nil, &resp); err != nil {
		return nil, "", err
	}
	return resp.Data.Normalize(), resp.Message, nil
}

// call sends an optional JSON body and decodes an enveloped reply into out
func (c *Client) call(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return NewValidationError(fmt.Sprintf("failed to encode request: %v", err))
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	reply, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return decodeEnvelope(reply, out)
}

// do performs one round trip and returns the body of a 200 reply
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	resp, requestID, start, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		nerr := NewNetworkError("failed to read response body", err)
		logging.LogRequest(requestID, method, path, resp.StatusCode, time.Since(start), nerr)
		return nil, nerr
	}

	if resp.StatusCode != http.StatusOK {
		herr := replyError(resp.StatusCode, data)
		logging.LogRequest(requestID, method, path, resp.StatusCode, time.Since(start), herr)
		return nil, herr
	}

	logging.LogRequest(requestID, method, path, resp.StatusCode, time.Since(start), nil)
	return data, nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, string, time.Time, error) {
	requestID := uuid.NewString()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, requestID, start, NewValidationError(fmt.Sprintf("failed to create %s request: %v", path, err))
	}
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		nerr := NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
		nerr.Endpoint = path
		logging.LogRequest(requestID, method, path, 0, time.Since(start), nerr)
		return nil, requestID, start, nerr
	}
	return resp, requestID, start, nil
}

// decodeEnvelope checks the status field and then decodes the full reply into out
func decodeEnvelope(data []byte, out any) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return NewParseError("failed to parse gateway response", err)
	}
	if !env.OK() {
		return NewApplicationError(env.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return NewParseError("failed to parse gateway response", err)
	}
	return nil
}

// replyError maps a non-200 reply to an Error. A JSON error envelope in the
// body wins over the bare status code.
func replyError(statusCode int, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Status == StatusError {
		appErr := NewApplicationError(env.Message)
		appErr.StatusCode = statusCode
		return appErr
	}
	if statusCode == http.StatusOK {
		return nil
	}
	return NewHTTPError(statusCode, fmt.Sprintf("unexpected status code: %d", statusCode))
}
