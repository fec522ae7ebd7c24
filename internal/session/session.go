package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openeos/tvdisplay-core/internal/apiclient"
	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/storage"
)

// Status is the device's position in the verification lifecycle.
type Status string

// Device lifecycle states. A device starts unregistered, becomes
// pending after enrollment, and an operator moves it to verified or
// blocked from the admin panel.
const (
	StatusUnregistered Status = "unregistered"
	StatusPending      Status = "pending"
	StatusVerified     Status = "verified"
	StatusBlocked      Status = "blocked"
)

// DeviceClass is what kind of screen this device is, as the backend
// understands it.
type DeviceClass string

// Device classes.
const (
	ClassDisplayMenu DeviceClass = "DISPLAY_MENU"
	ClassKitchen     DeviceClass = "KITCHEN"
	ClassDelivery    DeviceClass = "DELIVERY"
	ClassPickup      DeviceClass = "PICKUP"
	ClassSales       DeviceClass = "SALES"
)

// Valid reports whether c is a known device class.
func (c DeviceClass) Valid() bool {
	switch c {
	case ClassDisplayMenu, ClassKitchen, ClassDelivery, ClassPickup, ClassSales:
		return true
	}
	return false
}

// DisplayMode maps a device class to the screen mode it renders.
func (c DeviceClass) DisplayMode() display.Mode {
	switch c {
	case ClassDisplayMenu:
		return display.ModeMenu
	case ClassKitchen:
		return display.ModeKitchen
	case ClassDelivery:
		return display.ModeDelivery
	case ClassPickup:
		return display.ModePickup
	case ClassSales:
		return display.ModeSales
	default:
		return display.ModeKitchen
	}
}

// DeviceAPI is the slice of the backend client the session layer needs.
type DeviceAPI interface {
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.RegisterResponse, error)
	CheckStatus(ctx context.Context) (*apiclient.StatusResponse, error)
	UpdateDeviceClass(ctx context.Context, deviceClass string) error
	SetToken(token string)
	ClearToken()
}

// KV is the persistence surface the session layer needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ErrNotRegistered is returned by operations that need a device
// identity before one exists.
var ErrNotRegistered = errors.New("session: device not registered")

// Snapshot is an immutable view of the session, handed to observers.
type Snapshot struct {
	DeviceID         string
	Status           Status
	DeviceClass      DeviceClass
	OrganizationID   string
	OrganizationName string
	DeviceName       string
	SelectedEventID  string
	VerificationCode string
}

// Verified reports whether the device may talk to data endpoints and
// join realtime channels.
func (s Snapshot) Verified() bool {
	return s.Status == StatusVerified
}

// persisted is the durable subset of the session. The verification
// code is deliberately absent: it is only meaningful during the
// enrollment flow.
type persisted struct {
	DeviceID         string      `json:"deviceId"`
	DeviceToken      string      `json:"deviceToken"`
	OrganizationID   string      `json:"organizationId"`
	OrganizationName string      `json:"organizationName"`
	DeviceName       string      `json:"deviceName"`
	DeviceClass      DeviceClass `json:"deviceClass"`
	Status           Status      `json:"status"`
	SelectedEventID  string      `json:"selectedEventId"`
}

// Manager owns the device identity and its verification lifecycle. It
// drives status polling while the device awaits approval and notifies
// observers on every transition so they can reconcile heartbeats,
// realtime channels, and refresh jobs.
type Manager struct {
	api    DeviceAPI
	kv     KV
	logger *logging.Logger

	pollInterval time.Duration

	mu               sync.Mutex
	deviceID         string
	deviceToken      string
	organizationID   string
	organizationName string
	deviceName       string
	deviceClass      DeviceClass
	status           Status
	selectedEventID  string
	verificationCode string

	pollCancel context.CancelFunc

	onChange func(Snapshot)
}

// NewManager creates a session manager. pollInterval is how often the
// pending device asks the backend whether it has been approved.
func NewManager(api DeviceAPI, kv KV, pollInterval time.Duration, logger *logging.Logger) *Manager {
	return &Manager{
		api:          api,
		kv:           kv,
		logger:       logger,
		pollInterval: pollInterval,
		status:       StatusUnregistered,
		deviceClass:  ClassKitchen,
	}
}

// SetOnChange installs the transition observer. Must be called before
// the manager is shared across goroutines.
func (m *Manager) SetOnChange(fn func(Snapshot)) {
	m.onChange = fn
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		DeviceID:         m.deviceID,
		Status:           m.status,
		DeviceClass:      m.deviceClass,
		OrganizationID:   m.organizationID,
		OrganizationName: m.organizationName,
		DeviceName:       m.deviceName,
		SelectedEventID:  m.selectedEventID,
		VerificationCode: m.verificationCode,
	}
}

// Token returns the device token, or "" before registration.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceToken
}

// notify fires the observer with a fresh snapshot. Callers must not
// hold the mutex.
func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange(m.Snapshot())
	}
}

// Load rehydrates a persisted session. The token is pushed to the API
// client only after the session fields are restored, so a status check
// racing the restore can never go out with a half-built identity.
//
// A missing persisted session leaves the manager unregistered; that is
// the normal first boot.
func (m *Manager) Load(ctx context.Context) error {
	raw, err := m.kv.Get(ctx, storage.KeyDeviceSession)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("decoding session: %w", err)
	}

	m.mu.Lock()
	m.deviceID = p.DeviceID
	m.deviceToken = p.DeviceToken
	m.organizationID = p.OrganizationID
	m.organizationName = p.OrganizationName
	m.deviceName = p.DeviceName
	m.deviceClass = p.DeviceClass
	m.status = p.Status
	m.selectedEventID = p.SelectedEventID
	token := m.deviceToken
	m.mu.Unlock()

	if token != "" {
		m.api.SetToken(token)
	}

	m.logger.Info("session restored",
		"device_id", p.DeviceID,
		"status", string(p.Status),
	)
	m.notify()
	return nil
}

// persist writes the durable session subset. Callers must not hold the
// mutex.
func (m *Manager) persist(ctx context.Context) error {
	m.mu.Lock()
	p := persisted{
		DeviceID:         m.deviceID,
		DeviceToken:      m.deviceToken,
		OrganizationID:   m.organizationID,
		OrganizationName: m.organizationName,
		DeviceName:       m.deviceName,
		DeviceClass:      m.deviceClass,
		Status:           m.status,
		SelectedEventID:  m.selectedEventID,
	}
	m.mu.Unlock()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := m.kv.Set(ctx, storage.KeyDeviceSession, string(data)); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	return nil
}

// Register enrolls this device with an organization. The status comes
// from the backend's answer, normally pending, in which case status
// polling starts; the returned snapshot carries the verification code
// to show on screen.
func (m *Manager) Register(ctx context.Context, name, organizationSlug string, class DeviceClass) (Snapshot, error) {
	if !class.Valid() {
		return Snapshot{}, fmt.Errorf("session: invalid device class %q", class)
	}

	resp, err := m.api.Register(ctx, apiclient.RegisterRequest{
		Name:             name,
		OrganizationSlug: organizationSlug,
		DeviceClass:      string(class),
	})
	if err != nil {
		return Snapshot{}, err
	}

	m.api.SetToken(resp.DeviceToken)

	m.mu.Lock()
	m.deviceID = resp.DeviceID
	m.deviceToken = resp.DeviceToken
	m.organizationID = resp.OrganizationID
	m.organizationName = resp.OrganizationName
	m.deviceName = name
	m.deviceClass = class
	m.status = statusFromBackend(resp.Status)
	m.verificationCode = resp.VerificationCode
	pending := m.status == StatusPending
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		m.logger.Error("persisting session after registration", "error", err)
	}

	m.logger.Info("device registered",
		"device_id", resp.DeviceID,
		"organization", organizationSlug,
	)

	m.notify()
	if pending {
		m.StartPolling()
	}
	return snap, nil
}

// CheckStatus asks the backend where this device stands. A 401 means
// the backend revoked or deleted the device; the local identity is
// wiped. Reaching verified or blocked stops the polling loop.
func (m *Manager) CheckStatus(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	registered := m.deviceToken != ""
	m.mu.Unlock()
	if !registered {
		return Snapshot{}, ErrNotRegistered
	}

	resp, err := m.api.CheckStatus(ctx)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			m.logger.Warn("device token rejected, clearing device")
			if clearErr := m.ClearDevice(ctx); clearErr != nil {
				m.logger.Error("clearing device", "error", clearErr)
			}
		}
		return Snapshot{}, err
	}

	m.mu.Lock()
	m.status = statusFromBackend(resp.Status)
	if DeviceClass(resp.DeviceClass).Valid() {
		m.deviceClass = DeviceClass(resp.DeviceClass)
	}
	if resp.OrganizationID != "" {
		m.organizationID = resp.OrganizationID
	}
	if resp.OrganizationName != "" {
		m.organizationName = resp.OrganizationName
	}
	terminal := m.status == StatusVerified || m.status == StatusBlocked
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		m.logger.Error("persisting session after status check", "error", err)
	}

	if terminal {
		m.StopPolling()
	}

	m.notify()
	return snap, nil
}

// statusFromBackend maps the backend's status vocabulary onto ours.
func statusFromBackend(s string) Status {
	switch s {
	case "VERIFIED", "verified":
		return StatusVerified
	case "BLOCKED", "blocked":
		return StatusBlocked
	default:
		return StatusPending
	}
}

// StartPolling begins the approval polling loop. Calling it while a
// loop is already running is a no-op.
func (m *Manager) StartPolling() {
	m.mu.Lock()
	if m.pollCancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.pollCancel = cancel
	m.mu.Unlock()

	go m.pollLoop(ctx)
}

// StopPolling stops the approval polling loop if it is running.
func (m *Manager) StopPolling() {
	m.mu.Lock()
	cancel := m.pollCancel
	m.pollCancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *Manager) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.CheckStatus(ctx); err != nil {
				// Transient failures keep the loop alive; a 401 has
				// already torn the session down via ClearDevice.
				m.logger.Debug("status poll failed", "error", err)
			}
		}
	}
}

// UpdateDeviceClass changes the device class on the backend first and
// applies it locally only on success.
func (m *Manager) UpdateDeviceClass(ctx context.Context, class DeviceClass) error {
	if !class.Valid() {
		return fmt.Errorf("session: invalid device class %q", class)
	}

	if err := m.api.UpdateDeviceClass(ctx, string(class)); err != nil {
		return err
	}

	m.mu.Lock()
	m.deviceClass = class
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		m.logger.Error("persisting session after class change", "error", err)
	}
	m.notify()
	return nil
}

// SetSelectedEventID picks which sales event this screen follows.
func (m *Manager) SetSelectedEventID(ctx context.Context, eventID string) error {
	m.mu.Lock()
	m.selectedEventID = eventID
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		return err
	}
	m.notify()
	return nil
}

// Logout detaches the screen from its selected event but keeps the
// device identity, so re-attaching doesn't require re-approval.
func (m *Manager) Logout(ctx context.Context) error {
	m.StopPolling()

	m.mu.Lock()
	m.selectedEventID = ""
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		return err
	}
	m.notify()
	return nil
}

// ClearDevice wipes the device identity entirely: token, persisted
// session, everything. The device returns to the unregistered state
// and must enroll again.
func (m *Manager) ClearDevice(ctx context.Context) error {
	m.StopPolling()
	m.api.ClearToken()

	m.mu.Lock()
	m.deviceID = ""
	m.deviceToken = ""
	m.organizationID = ""
	m.organizationName = ""
	m.deviceName = ""
	m.deviceClass = ClassKitchen
	m.status = StatusUnregistered
	m.selectedEventID = ""
	m.verificationCode = ""
	m.mu.Unlock()

	if err := m.kv.Delete(ctx, storage.KeyDeviceSession); err != nil {
		return fmt.Errorf("deleting persisted session: %w", err)
	}
	m.notify()
	return nil
}

// Close stops background work. Safe to call more than once.
func (m *Manager) Close() {
	m.StopPolling()
}
