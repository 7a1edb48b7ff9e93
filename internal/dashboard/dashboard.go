package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/modbusdash/internal/gateway"
	"github.com/muurk/modbusdash/internal/logging"
	"github.com/muurk/modbusdash/internal/names"
)

const (
	// DefaultQuietWindow suppresses full refreshes right after a manual write
	DefaultQuietWindow = 2000 * time.Millisecond

	// DefaultReconcileDelay is how long after a successful write its category is re-read
	DefaultReconcileDelay = 500 * time.Millisecond

	// DefaultRefreshInterval is the auto-refresh period
	DefaultRefreshInterval = 5000 * time.Millisecond

	// DefaultNotificationTimeout is how long a notification stays visible
	DefaultNotificationTimeout = 5 * time.Second

	defaultEventBuffer = 64
)

var (
	// ErrMissingFields is returned when a connect form field is empty
	ErrMissingFields = errors.New("please fill in all connection fields")

	// ErrInvalidInput is returned for values rejected before any request
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConnected is returned by writes attempted while disconnected
	ErrNotConnected = errors.New("not connected")
)

// Gateway is the REST surface the dashboard drives. *gateway.Client implements it.
type Gateway interface {
	Connect(ctx context.Context, req gateway.ConnectRequest) (string, error)
	Disconnect(ctx context.Context) (string, error)
	Status(ctx context.Context) (bool, error)
	ReadInputs(ctx context.Context) (map[int]bool, error)
	ReadCoils(ctx context.Context) (map[int]bool, error)
	ReadHoldingRegisters(ctx context.Context) (map[int]int, error)
	WriteCoil(ctx context.Context, address int, value bool) (string, error)
	WriteRegister(ctx context.Context, address int, value int) (string, error)
	GetNames(ctx context.Context) (names.Table, error)
	SetName(ctx context.Context, category names.Category, address int, name string) (string, error)
	SaveNames(ctx context.Context) (string, error)
	LoadNames(ctx context.Context) (names.Table, string, error)
	ResetNames(ctx context.Context) (names.Table, string, error)
	ExportNames(ctx context.Context, w io.Writer) (string, error)
	ImportNames(ctx context.Context, filename string, r io.Reader) (names.Table, string, error)
}

// Options tunes dashboard timing. Zero values are replaced by defaults.
type Options struct {
	QuietWindow         time.Duration
	ReconcileDelay      time.Duration
	RefreshInterval     time.Duration
	NotificationTimeout time.Duration

	// AutoRefresh starts periodic refresh on every successful connect
	AutoRefresh bool

	// GatewayURL is only displayed
	GatewayURL string

	Clock       Clock
	EventBuffer int
}

// DefaultOptions returns the stock timing with auto-refresh enabled
func DefaultOptions() Options {
	return Options{
		QuietWindow:         DefaultQuietWindow,
		ReconcileDelay:      DefaultReconcileDelay,
		RefreshInterval:     DefaultRefreshInterval,
		NotificationTimeout: DefaultNotificationTimeout,
		AutoRefresh:         true,
	}
}

func (o Options) withDefaults() Options {
	if o.QuietWindow <= 0 {
		o.QuietWindow = DefaultQuietWindow
	}
	if o.ReconcileDelay <= 0 {
		o.ReconcileDelay = DefaultReconcileDelay
	}
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = DefaultRefreshInterval
	}
	if o.NotificationTimeout <= 0 {
		o.NotificationTimeout = DefaultNotificationTimeout
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	return o
}

// ConnectionState is the dashboard's view of the gateway's Modbus session
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connected
)

// String returns "Connected" or "Disconnected"
func (s ConnectionState) String() string {
	if s == Connected {
		return "Connected"
	}
	return "Disconnected"
}

// ConnectForm holds the raw text of the three connection fields
type ConnectForm struct {
	Host   string
	Port   string
	UnitID string
}

// Snapshot is the last successfully read state of each category.
// A nil map means the category has not been read on this connection.
type Snapshot struct {
	Inputs    map[int]bool
	Coils     map[int]bool
	Registers map[int]int
}

func (s Snapshot) clone() Snapshot {
	var out Snapshot
	if s.Inputs != nil {
		out.Inputs = make(map[int]bool, len(s.Inputs))
		for k, v := range s.Inputs {
			out.Inputs[k] = v
		}
	}
	if s.Coils != nil {
		out.Coils = make(map[int]bool, len(s.Coils))
		for k, v := range s.Coils {
			out.Coils[k] = v
		}
	}
	if s.Registers != nil {
		out.Registers = make(map[int]int, len(s.Registers))
		for k, v := range s.Registers {
			out.Registers[k] = v
		}
	}
	return out
}

// Dashboard is the UI-independent device dashboard client.
// It owns connection state, snapshots, the name table and notifications;
// UIs render View() and call its operations.
type Dashboard struct {
	gw    Gateway
	opts  Options
	clock Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       ConnectionState
	generation  uint64
	snapshot    Snapshot
	table       names.Table
	editing     map[names.Category]bool
	lastWrite   time.Time
	lastRefresh time.Time

	autoRefresh bool
	autoSeq     uint64
	autoTimer   Timer

	nextTimerID uint64
	reconcilers map[uint64]Timer

	notification *Notification
	notifySeq    uint64
	notifyTimer  Timer

	events chan Event
	closed bool
}

// New creates a dashboard bound to a gateway. It starts disconnected with an
// empty name table; call LoadNames and CheckStatus to sync with the gateway.
func New(gw Gateway, opts Options) *Dashboard {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Dashboard{
		gw:          gw,
		opts:        opts,
		clock:       opts.Clock,
		ctx:         ctx,
		cancel:      cancel,
		table:       names.New(),
		editing:     make(map[names.Category]bool),
		reconcilers: make(map[uint64]Timer),
		events:      make(chan Event, opts.EventBuffer),
	}
}

// Events returns the change stream. Sends never block; when the buffer is
// full the event is dropped, so consumers should re-render from View().
func (d *Dashboard) Events() <-chan Event {
	return d.events
}

// Close stops all timers and closes the event channel
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.cancel()
	d.stopAutoLocked()
	d.stopReconcilersLocked()
	if d.notifyTimer != nil {
		d.notifyTimer.Stop()
	}
	close(d.events)
}

// emitLocked sends an event without blocking. Caller holds d.mu.
func (d *Dashboard) emitLocked(kind EventKind, category names.Category) {
	if d.closed {
		return
	}
	select {
	case d.events <- Event{Kind: kind, Category: category}:
	default:
	}
}

// State returns the current connection state
func (d *Dashboard) State() ConnectionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Snapshot returns a copy of the current device snapshot
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot.clone()
}

// Names returns a copy of the name table
func (d *Dashboard) Names() names.Table {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table.Clone()
}

// Label returns the display name for an address
func (d *Dashboard) Label(c names.Category, address int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table.Label(c, address)
}

// LastManualWrite returns when the last write was issued (zero if never)
func (d *Dashboard) LastManualWrite() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastWrite
}

// ParseConnectForm validates the raw connection fields
func ParseConnectForm(form ConnectForm) (gateway.ConnectRequest, error) {
	host := strings.TrimSpace(form.Host)
	portText := strings.TrimSpace(form.Port)
	unitText := strings.TrimSpace(form.UnitID)

	if host == "" || portText == "" || unitText == "" {
		return gateway.ConnectRequest{}, ErrMissingFields
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return gateway.ConnectRequest{}, fmt.Errorf("%w: port must be a number between 1 and 65535", ErrInvalidInput)
	}

	unitID, err := strconv.Atoi(unitText)
	if err != nil || unitID < 0 || unitID > 255 {
		return gateway.ConnectRequest{}, fmt.Errorf("%w: unit ID must be a number between 0 and 255", ErrInvalidInput)
	}

	return gateway.ConnectRequest{Host: host, Port: port, UnitID: unitID}, nil
}

// Connect validates the form, asks the gateway to connect and, on success,
// performs a full refresh.
func (d *Dashboard) Connect(ctx context.Context, form ConnectForm) error {
	req, err := ParseConnectForm(form)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			d.notify(SeverityWarning, "Please fill in all connection fields")
		} else {
			d.notify(SeverityWarning, validationMessage(err))
		}
		return err
	}

	logging.Info("Connecting",
		zap.String("host", req.Host),
		zap.Int("port", req.Port),
		zap.Int("unit_id", req.UnitID),
	)

	if _, err := d.gw.Connect(ctx, req); err != nil {
		d.notifyFailure("Connection failed", err)
		return err
	}

	d.mu.Lock()
	d.setConnectedLocked()
	startAuto := d.opts.AutoRefresh || d.autoRefresh
	d.mu.Unlock()

	d.notify(SeveritySuccess, "Connected successfully!")

	if _, err := d.RefreshAll(ctx); err != nil {
		logging.Warn("Initial refresh incomplete", zap.Error(err))
	}

	if startAuto {
		d.StartAutoRefresh()
	}
	return nil
}

// Disconnect asks the gateway to drop its session. On success snapshots are
// cleared and auto-refresh stops.
func (d *Dashboard) Disconnect(ctx context.Context) error {
	if _, err := d.gw.Disconnect(ctx); err != nil {
		d.notifyFailure("Disconnection failed", err)
		return err
	}

	d.mu.Lock()
	d.setDisconnectedLocked()
	d.mu.Unlock()

	d.notify(SeverityInfo, "Disconnected successfully!")
	return nil
}

// CheckStatus polls the gateway once and syncs the local connection state.
// Failures are logged only.
func (d *Dashboard) CheckStatus(ctx context.Context) (bool, error) {
	connected, err := d.gw.Status(ctx)
	if err != nil {
		logging.Warn("Status check failed", zap.Error(err))
		return false, err
	}

	d.mu.Lock()
	adopted := false
	switch {
	case connected && d.state != Connected:
		d.setConnectedLocked()
		adopted = d.opts.AutoRefresh || d.autoRefresh
	case !connected && d.state != Disconnected:
		d.setDisconnectedLocked()
	}
	d.mu.Unlock()

	// A session opened elsewhere polls like one opened here
	if adopted {
		d.StartAutoRefresh()
	}
	return connected, nil
}

func (d *Dashboard) setConnectedLocked() {
	d.state = Connected
	d.generation++
	d.snapshot = Snapshot{}
	d.emitLocked(EventConnectionChanged, "")
}

func (d *Dashboard) setDisconnectedLocked() {
	d.state = Disconnected
	d.generation++
	d.snapshot = Snapshot{}
	d.stopReconcilersLocked()
	if d.autoRefresh {
		d.autoRefresh = false
		d.stopAutoLocked()
		d.emitLocked(EventAutoRefreshChanged, "")
	}
	d.emitLocked(EventConnectionChanged, "")
}

// RefreshAll fetches all three categories concurrently. It does nothing and
// returns false while disconnected or inside the quiet window after a manual
// write. Each category is applied independently; the returned error joins the
// per-category failures and is meant for logging only.
func (d *Dashboard) RefreshAll(ctx context.Context) (bool, error) {
	d.mu.Lock()
	if d.state != Connected {
		d.mu.Unlock()
		return false, nil
	}
	if !d.lastWrite.IsZero() && d.clock.Now().Sub(d.lastWrite) < d.opts.QuietWindow {
		d.mu.Unlock()
		logging.Debug("Skipping refresh due to recent manual write")
		return false, nil
	}
	gen := d.generation
	d.mu.Unlock()

	var (
		g      errgroup.Group
		errMu  sync.Mutex
		result *multierror.Error
	)
	for _, c := range names.Categories {
		c := c
		g.Go(func() error {
			if err := d.refreshCategory(ctx, c, gen); err != nil {
				errMu.Lock()
				result = multierror.Append(result, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	d.mu.Lock()
	if gen == d.generation {
		d.lastRefresh = d.clock.Now()
		d.emitLocked(EventRefreshed, "")
	}
	d.mu.Unlock()

	return true, result.ErrorOrNil()
}

// RefreshCategory re-reads a single category now. It is not gated by the
// quiet window but does nothing while disconnected.
func (d *Dashboard) RefreshCategory(ctx context.Context, c names.Category) error {
	d.mu.Lock()
	if d.state != Connected {
		d.mu.Unlock()
		return nil
	}
	gen := d.generation
	d.mu.Unlock()

	return d.refreshCategory(ctx, c, gen)
}

// refreshCategory reads one category and applies it only if the connection
// generation is still gen.
func (d *Dashboard) refreshCategory(ctx context.Context, c names.Category, gen uint64) error {
	var (
		bits  map[int]bool
		regs  map[int]int
		err   error
		count int
	)
	switch c {
	case names.Inputs:
		bits, err = d.gw.ReadInputs(ctx)
		count = len(bits)
	case names.Coils:
		bits, err = d.gw.ReadCoils(ctx)
		count = len(bits)
	case names.Registers:
		regs, err = d.gw.ReadHoldingRegisters(ctx)
		count = len(regs)
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, c)
	}

	logging.LogRefresh(string(c), count, err)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation || d.state != Connected {
		logging.Debug("Dropping stale refresh result", zap.String("category", string(c)))
		return nil
	}
	switch c {
	case names.Inputs:
		d.snapshot.Inputs = bits
	case names.Coils:
		d.snapshot.Coils = bits
	case names.Registers:
		d.snapshot.Registers = regs
	}
	d.emitLocked(EventTableUpdated, c)
	return nil
}

// WriteCoil sets a coil. Success schedules one re-read of coils after the
// reconcile delay; failure re-reads coils immediately.
func (d *Dashboard) WriteCoil(ctx context.Context, address int, value bool) error {
	if err := d.beginWrite(); err != nil {
		return err
	}

	_, err := d.gw.WriteCoil(ctx, address, value)
	logging.LogWrite(string(names.Coils), address, value, err)
	if err != nil {
		d.notifyFailure("Write failed", err)
		_ = d.RefreshCategory(ctx, names.Coils)
		return err
	}

	d.notify(SeveritySuccess, fmt.Sprintf("Coil %d set to %s", address, onOff(value)))
	d.scheduleReconcile(names.Coils)
	return nil
}

// WriteRegister sets a holding register. Values outside 0-65535 are rejected
// before any request.
func (d *Dashboard) WriteRegister(ctx context.Context, address int, value int) error {
	if value < 0 || value > gateway.MaxRegisterValue {
		d.notify(SeverityWarning, fmt.Sprintf("Register value must be between 0 and %d", gateway.MaxRegisterValue))
		return fmt.Errorf("%w: register value %d out of range", ErrInvalidInput, value)
	}
	if err := d.beginWrite(); err != nil {
		return err
	}

	_, err := d.gw.WriteRegister(ctx, address, value)
	logging.LogWrite(string(names.Registers), address, value, err)
	if err != nil {
		d.notifyFailure("Write failed", err)
		_ = d.RefreshCategory(ctx, names.Registers)
		return err
	}

	d.notify(SeveritySuccess, fmt.Sprintf("Register %d set to %d", address, value))
	d.scheduleReconcile(names.Registers)
	return nil
}

// beginWrite records the manual write time before the request goes out
func (d *Dashboard) beginWrite() error {
	d.mu.Lock()
	if d.state != Connected {
		d.mu.Unlock()
		d.notify(SeverityWarning, "Connect to a device first")
		return ErrNotConnected
	}
	d.lastWrite = d.clock.Now()
	d.mu.Unlock()
	return nil
}

func (d *Dashboard) scheduleReconcile(c names.Category) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	id := d.nextTimerID
	d.nextTimerID++
	gen := d.generation

	d.reconcilers[id] = d.clock.AfterFunc(d.opts.ReconcileDelay, func() {
		d.mu.Lock()
		delete(d.reconcilers, id)
		stale := d.closed || gen != d.generation
		d.mu.Unlock()
		if stale {
			return
		}
		if err := d.refreshCategory(d.ctx, c, gen); err != nil {
			logging.Warn("Reconcile refresh failed", zap.Error(err))
		}
	})
}

func (d *Dashboard) stopReconcilersLocked() {
	for id, t := range d.reconcilers {
		t.Stop()
		delete(d.reconcilers, id)
	}
}

// LoadNames fetches the gateway's name table and replaces the local one.
// Failures are logged only.
func (d *Dashboard) LoadNames(ctx context.Context) error {
	table, err := d.gw.GetNames(ctx)
	if err != nil {
		logging.Warn("Failed to load names", zap.Error(err))
		return err
	}
	d.replaceNames(table)
	return nil
}

// ReloadNames asks the gateway to re-read its stored names and adopts them
func (d *Dashboard) ReloadNames(ctx context.Context) error {
	table, msg, err := d.gw.LoadNames(ctx)
	if err != nil {
		d.notifyFailure("Failed to load names", err)
		return err
	}
	d.replaceNames(table)
	d.notify(SeveritySuccess, messageOr(msg, "Names loaded successfully"))
	return nil
}

// SetName renames one address. The local table changes only on success.
func (d *Dashboard) SetName(ctx context.Context, c names.Category, address int, name string) error {
	if !c.Valid() {
		d.notify(SeverityWarning, fmt.Sprintf("Unknown category %q", c))
		return fmt.Errorf("%w: category %q", ErrInvalidInput, c)
	}

	if _, err := d.gw.SetName(ctx, c, address, name); err != nil {
		d.notifyFailure("Failed to set name", err)
		return err
	}

	d.mu.Lock()
	d.table.Set(c, address, name)
	d.emitLocked(EventNamesChanged, c)
	d.mu.Unlock()

	d.notify(SeveritySuccess, fmt.Sprintf("Name for %s %d updated", c, address))
	return nil
}

// SaveNames asks the gateway to persist its name table
func (d *Dashboard) SaveNames(ctx context.Context) error {
	msg, err := d.gw.SaveNames(ctx)
	if err != nil {
		d.notifyFailure("Failed to save names", err)
		return err
	}
	d.notify(SeveritySuccess, messageOr(msg, "Names saved successfully"))
	return nil
}

// ResetNames restores default names on the gateway and adopts the result.
// UIs confirm with the user before calling this.
func (d *Dashboard) ResetNames(ctx context.Context) error {
	table, msg, err := d.gw.ResetNames(ctx)
	if err != nil {
		d.notifyFailure("Failed to reset names", err)
		return err
	}
	d.replaceNames(table)
	d.notify(SeveritySuccess, messageOr(msg, "Names reset to defaults"))
	return nil
}

// ExportNames streams the gateway's names file to w and returns the
// suggested filename.
func (d *Dashboard) ExportNames(ctx context.Context, w io.Writer) (string, error) {
	filename, err := d.gw.ExportNames(ctx, w)
	if err != nil {
		d.notifyFailure("Failed to export names", err)
		return "", err
	}
	d.notify(SeveritySuccess, "Names exported successfully")
	return filename, nil
}

// ImportNames uploads a names file. A file that does not parse as a names
// table is rejected before upload. On success the returned table replaces
// the local one.
func (d *Dashboard) ImportNames(ctx context.Context, filename string, r io.Reader) error {
	data, err := names.ReadFile(r)
	if err != nil {
		d.notify(SeverityError, "Failed to import names: "+err.Error())
		return err
	}

	table, msg, err := d.gw.ImportNames(ctx, filename, bytes.NewReader(data))
	if err != nil {
		d.notifyFailure("Failed to import names", err)
		return err
	}
	d.replaceNames(table)
	d.notify(SeveritySuccess, messageOr(msg, "Names imported successfully"))
	return nil
}

func (d *Dashboard) replaceNames(table names.Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table = table.Clone().Normalize()
	d.emitLocked(EventNamesChanged, "")
}

// ToggleEditing flips name editing for a category and returns the new state
func (d *Dashboard) ToggleEditing(c names.Category) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editing[c] = !d.editing[c]
	d.emitLocked(EventNamesChanged, c)
	return d.editing[c]
}

// Editing reports whether a category is in name editing mode
func (d *Dashboard) Editing(c names.Category) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.editing[c]
}

// StartAutoRefresh enables periodic RefreshAll. While disconnected the
// timer is armed on the next successful connect.
func (d *Dashboard) StartAutoRefresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopAutoLocked()
	d.autoRefresh = true
	if d.state == Connected {
		d.armAutoLocked()
	}
	d.emitLocked(EventAutoRefreshChanged, "")
}

// StopAutoRefresh disables periodic refresh
func (d *Dashboard) StopAutoRefresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoRefresh = false
	d.stopAutoLocked()
	d.emitLocked(EventAutoRefreshChanged, "")
}

// ToggleAutoRefresh flips auto-refresh and returns the new state
func (d *Dashboard) ToggleAutoRefresh() bool {
	if d.AutoRefresh() {
		d.StopAutoRefresh()
		return false
	}
	d.StartAutoRefresh()
	return true
}

// AutoRefresh reports whether auto-refresh is enabled
func (d *Dashboard) AutoRefresh() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.autoRefresh
}

func (d *Dashboard) armAutoLocked() {
	d.autoSeq++
	seq := d.autoSeq
	d.autoTimer = d.clock.AfterFunc(d.opts.RefreshInterval, func() { d.autoTick(seq) })
}

func (d *Dashboard) stopAutoLocked() {
	d.autoSeq++
	if d.autoTimer != nil {
		d.autoTimer.Stop()
		d.autoTimer = nil
	}
}

func (d *Dashboard) autoTick(seq uint64) {
	d.mu.Lock()
	if seq != d.autoSeq || !d.autoRefresh || d.closed {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	if _, err := d.RefreshAll(d.ctx); err != nil {
		logging.Warn("Auto-refresh incomplete", zap.Error(err))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq == d.autoSeq && d.autoRefresh && d.state == Connected && !d.closed {
		d.armAutoLocked()
	}
}

// Notification returns the visible notification, or nil
func (d *Dashboard) Notification() *Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.notification == nil {
		return nil
	}
	n := *d.notification
	return &n
}

// DismissNotification hides the visible notification
func (d *Dashboard) DismissNotification() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifySeq++
	if d.notifyTimer != nil {
		d.notifyTimer.Stop()
		d.notifyTimer = nil
	}
	if d.notification != nil {
		d.notification = nil
		d.emitLocked(EventNotification, "")
	}
}

// Notify shows a UI-originated message, such as a local validation failure
func (d *Dashboard) Notify(severity Severity, message string) {
	d.notify(severity, message)
}

// notify replaces the visible notification and arms its dismissal timer
func (d *Dashboard) notify(severity Severity, message string) {
	logging.Debug("Notification",
		zap.String("severity", severity.String()),
		zap.String("message", message),
	)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.notifySeq++
	seq := d.notifySeq
	d.notification = &Notification{Severity: severity, Message: message, At: d.clock.Now()}
	if d.notifyTimer != nil {
		d.notifyTimer.Stop()
	}
	d.notifyTimer = d.clock.AfterFunc(d.opts.NotificationTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if seq != d.notifySeq {
			return
		}
		d.notification = nil
		d.notifyTimer = nil
		d.emitLocked(EventNotification, "")
	})
	d.emitLocked(EventNotification, "")
}

// notifyFailure shows the gateway's own message for application errors and
// "<prefix>: <reason>" for everything else.
func (d *Dashboard) notifyFailure(prefix string, err error) {
	if gateway.IsApplicationError(err) {
		d.notify(SeverityError, err.Error())
		return
	}
	d.notify(SeverityError, prefix+": "+gateway.GetShortErrorMessage(err))
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": ")
	if msg == "" {
		return err.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
