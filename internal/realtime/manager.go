package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/config"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/mqtt"
	"github.com/openeos/tvdisplay-core/internal/session"
)

// Channel is the slice of the broker client the manager needs. It is
// satisfied by *mqtt.Client; tests substitute fakes.
type Channel interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
	SetOnConnect(func())
	Close() error
}

// Dialer opens an authenticated broker connection. In production it
// wraps mqtt.Connect; tests substitute fakes.
type Dialer func(clientID string, creds mqtt.Credentials) (Channel, error)

// Refresher triggers an immediate bulk refresh when the backend asks
// for one.
type Refresher interface {
	RefreshNow()
}

// Manager owns the two realtime channels:
//
//   - the device channel carries direct messages and organization
//     broadcasts, keyed by device identity
//   - the display channel carries the per-event order feed, keyed by
//     organization, event, and display mode
//
// Neither channel exists until the device is verified and holds a
// token. Reconcile compares the desired channels against the live ones
// and opens or closes connections to match; the session observer calls
// it on every transition.
type Manager struct {
	cfg    config.RealtimeConfig
	dial   Dialer
	store  *display.Store
	logger *logging.Logger

	refresher   Refresher
	onPayment   func()
	onItemEvent func(event, orderID, itemID string)

	mu sync.Mutex

	device    Channel
	deviceKey string

	displayCh  Channel
	displayKey string

	deviceID string
}

// NewManager creates a realtime manager. refresher may be nil during
// wiring; set it with SetRefresher before the first Reconcile.
func NewManager(cfg config.RealtimeConfig, dial Dialer, store *display.Store, logger *logging.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		dial:   dial,
		store:  store,
		logger: logger,
	}
}

// NewDialer returns the production Dialer over mqtt.Connect.
func NewDialer(cfg config.RealtimeConfig, logger *logging.Logger) Dialer {
	return func(clientID string, creds mqtt.Credentials) (Channel, error) {
		client, err := mqtt.Connect(cfg, clientID, creds)
		if err != nil {
			return nil, err
		}
		client.SetLogger(logger)
		return client, nil
	}
}

// SetRefresher installs the bulk-refresh trigger.
func (m *Manager) SetRefresher(r Refresher) {
	m.mu.Lock()
	m.refresher = r
	m.mu.Unlock()
}

// SetOnPayment installs the payment notification hook (sound chime).
// The payment event deliberately has no store effect.
func (m *Manager) SetOnPayment(fn func()) {
	m.mu.Lock()
	m.onPayment = fn
	m.mu.Unlock()
}

// SetOnItemEvent installs a hook fired after an item/ready or
// item/delivered event has been applied to the store.
func (m *Manager) SetOnItemEvent(fn func(event, orderID, itemID string)) {
	m.mu.Lock()
	m.onItemEvent = fn
	m.mu.Unlock()
}

func (m *Manager) fireItemEvent(event, orderID, itemID string) {
	m.mu.Lock()
	fn := m.onItemEvent
	m.mu.Unlock()
	if fn != nil {
		fn(event, orderID, itemID)
	}
}

// Reconcile aligns the live channels with the session state. It is
// idempotent: calling it twice with the same snapshot changes nothing.
//
// Gating: no channel is opened unless the device is verified and holds
// a token. The display channel additionally needs an organization and
// a selected event.
func (m *Manager) Reconcile(snap session.Snapshot, token string) {
	m.reconcileDevice(snap, token)
	m.reconcileDisplay(snap, token)
}

func (m *Manager) reconcileDevice(snap session.Snapshot, token string) {
	wantKey := ""
	if snap.Verified() && token != "" && snap.DeviceID != "" {
		wantKey = snap.DeviceID + "|" + token
	}

	m.mu.Lock()
	current := m.deviceKey
	m.mu.Unlock()
	if current == wantKey {
		return
	}

	m.closeDevice()
	if wantKey == "" {
		return
	}

	clientID := fmt.Sprintf("tvdisplay-%s-device", snap.DeviceID)
	ch, err := m.dial(clientID, mqtt.Credentials{Username: snap.DeviceID, Password: token})
	if err != nil {
		m.logger.Warn("device channel connect failed, relying on auto-retry", "error", err)
		return
	}

	topics := mqtt.Topics{}
	if err := ch.Subscribe(topics.DeviceInbox(snap.DeviceID), byte(m.cfg.QoS), m.handleDeviceMessage); err != nil {
		m.logger.Error("subscribing device inbox", "error", err)
	}
	if snap.OrganizationID != "" {
		if err := ch.Subscribe(topics.OrgBroadcast(snap.OrganizationID), byte(m.cfg.QoS), m.handleBroadcast); err != nil {
			m.logger.Error("subscribing org broadcast", "error", err)
		}
	}

	m.mu.Lock()
	m.device = ch
	m.deviceKey = wantKey
	m.deviceID = snap.DeviceID
	m.mu.Unlock()

	m.logger.Info("device channel connected", "device_id", snap.DeviceID)
}

func (m *Manager) reconcileDisplay(snap session.Snapshot, token string) {
	mode := m.store.DisplayMode()

	wantKey := ""
	if snap.Verified() && token != "" && snap.OrganizationID != "" && snap.SelectedEventID != "" {
		wantKey = strings.Join([]string{snap.OrganizationID, snap.SelectedEventID, string(mode), token}, "|")
	}

	m.mu.Lock()
	current := m.displayKey
	m.mu.Unlock()
	if current == wantKey {
		return
	}

	m.closeDisplay()
	if wantKey == "" {
		return
	}

	clientID := fmt.Sprintf("tvdisplay-%s-display", snap.DeviceID)
	ch, err := m.dial(clientID, mqtt.Credentials{Username: snap.DeviceID, Password: token})
	if err != nil {
		m.logger.Warn("display channel connect failed, relying on auto-retry", "error", err)
		return
	}

	topics := mqtt.Topics{}
	orgID, eventID := snap.OrganizationID, snap.SelectedEventID

	root := topics.DisplayFeedRoot(orgID, eventID)
	handler := func(topic string, payload []byte) error {
		name := strings.TrimPrefix(topic, root)
		return m.applyDisplayEvent(name, payload)
	}
	if err := ch.Subscribe(topics.DisplayFeed(orgID, eventID), byte(m.cfg.QoS), handler); err != nil {
		m.logger.Error("subscribing display feed", "error", err)
	}

	// Announce the join on every (re)connect so the backend knows which
	// screens follow the event. The feed itself is re-subscribed by the
	// broker client; only the announcement needs repeating.
	join := func() {
		payload, _ := json.Marshal(map[string]string{ //nolint:errcheck // Static map cannot fail
			"organizationId": orgID,
			"eventId":        eventID,
			"type":           string(mode),
			"deviceId":       snap.DeviceID,
		})
		if err := ch.Publish(topics.DisplayJoin(orgID, eventID), payload, byte(m.cfg.QoS), false); err != nil {
			m.logger.Warn("publishing display join", "error", err)
		}
	}
	ch.SetOnConnect(join)
	join()

	m.mu.Lock()
	m.displayCh = ch
	m.displayKey = wantKey
	m.deviceID = snap.DeviceID
	m.mu.Unlock()

	m.logger.Info("display channel connected",
		"organization_id", orgID,
		"event_id", eventID,
		"mode", string(mode),
	)
}

func (m *Manager) closeDevice() {
	m.mu.Lock()
	ch := m.device
	m.device = nil
	m.deviceKey = ""
	m.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			m.logger.Warn("closing device channel", "error", err)
		}
	}
}

func (m *Manager) closeDisplay() {
	m.mu.Lock()
	ch := m.displayCh
	m.displayCh = nil
	m.displayKey = ""
	m.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			m.logger.Warn("closing display channel", "error", err)
		}
	}
}

// Connected reports whether the display channel is live. Item intents
// are only possible while it is.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	ch := m.displayCh
	m.mu.Unlock()
	return ch != nil && ch.IsConnected()
}

// Close tears down both channels.
func (m *Manager) Close() {
	m.closeDevice()
	m.closeDisplay()
}
