package realtime

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/mqtt"
)

// ErrNotConnected is returned when an intent is attempted without a
// live display channel.
var ErrNotConnected = errors.New("realtime: display channel not connected")

// Item intent actions.
const (
	actionReady   = "ready"
	actionDeliver = "deliver"
)

// intentPayload is the wire form of an item intent.
type intentPayload struct {
	OrderID   string `json:"orderId"`
	ItemID    string `json:"itemId"`
	DeviceID  string `json:"deviceId"`
	Timestamp string `json:"timestamp"`
}

// MarkItemReady tells the backend the kitchen finished an item.
//
// Fire and forget: the local view is not touched. The backend applies
// the change and echoes it back as an item/ready event, so every screen
// (this one included) updates from the same source.
func (m *Manager) MarkItemReady(orderID, itemID string) error {
	return m.publishIntent(orderID, itemID, actionReady)
}

// MarkItemDelivered tells the backend an item was handed out.
func (m *Manager) MarkItemDelivered(orderID, itemID string) error {
	return m.publishIntent(orderID, itemID, actionDeliver)
}

func (m *Manager) publishIntent(orderID, itemID, action string) error {
	m.mu.Lock()
	ch := m.displayCh
	deviceID := m.deviceID
	m.mu.Unlock()

	if ch == nil || !ch.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(intentPayload{
		OrderID:   orderID,
		ItemID:    itemID,
		DeviceID:  deviceID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	topic := mqtt.Topics{}.ItemCommand(orderID, itemID, action)
	return ch.Publish(topic, payload, byte(m.cfg.QoS), false)
}
