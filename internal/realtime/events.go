package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openeos/tvdisplay-core/internal/display"
)

// Display feed event names, as topic suffixes under the event's feed
// root.
const (
	EventOrderNew        = "order/new"
	EventOrderUpdated    = "order/updated"
	EventOrderCancelled  = "order/cancelled"
	EventOrderReady      = "order/ready"
	EventItemReady       = "item/ready"
	EventItemDelivered   = "item/delivered"
	EventPaymentReceived = "payment/received"
	EventStatsUpdated    = "stats/updated"
	EventProductUpdated  = "product/updated"
	EventRefresh         = "refresh"
)

// itemEvent is the payload of item/ready and item/delivered. The full
// order is optional; when present it replaces the local copy.
type itemEvent struct {
	OrderID string         `json:"orderId"`
	ItemID  string         `json:"itemId"`
	Order   *display.Order `json:"order,omitempty"`
}

// orderRef is the payload of events that only name an order.
type orderRef struct {
	OrderID string `json:"orderId"`
}

// applyDisplayEvent routes one display feed event into the store.
// Unknown events are ignored: the backend may ship new event types
// before every screen is updated.
func (m *Manager) applyDisplayEvent(name string, payload []byte) error {
	switch name {
	case EventOrderNew:
		var order display.Order
		if err := json.Unmarshal(payload, &order); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.AddOrder(order)

	case EventOrderUpdated:
		var order display.Order
		if err := json.Unmarshal(payload, &order); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.UpdateOrder(order)

	case EventOrderCancelled:
		var ref orderRef
		if err := json.Unmarshal(payload, &ref); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.RemoveOrder(ref.OrderID)
		m.store.RemoveReadyOrder(ref.OrderID)

	case EventOrderReady:
		var order display.Order
		if err := json.Unmarshal(payload, &order); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.AddReadyOrder(order)

	case EventItemReady:
		var ev itemEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.ApplyItemStatus(ev.OrderID, ev.ItemID, display.ItemStatusReady, ev.Order)
		m.fireItemEvent(name, ev.OrderID, ev.ItemID)

	case EventItemDelivered:
		var ev itemEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		ready := m.store.ApplyItemStatus(ev.OrderID, ev.ItemID, display.ItemStatusDelivered, ev.Order)
		if ready != nil && ready.AllItemsDelivered() {
			m.store.RemoveReadyOrder(ev.OrderID)
		}
		m.fireItemEvent(name, ev.OrderID, ev.ItemID)

	case EventPaymentReceived:
		// No store effect: the sales screen only chimes.
		m.mu.Lock()
		fn := m.onPayment
		m.mu.Unlock()
		if fn != nil {
			fn()
		}

	case EventStatsUpdated:
		var stats display.DailyStats
		if err := json.Unmarshal(payload, &stats); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.SetStats(&stats)

	case EventProductUpdated:
		var product display.Product
		if err := json.Unmarshal(payload, &product); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
		m.store.UpdateProduct(product)

	case EventRefresh:
		m.mu.Lock()
		r := m.refresher
		m.mu.Unlock()
		if r != nil {
			r.RefreshNow()
		}

	case "join":
		// Our own join announcements echo back on the wildcard.

	default:
		m.logger.Debug("ignoring unknown display event", "event", name)
	}
	return nil
}

// broadcastPayload is the wire form of an operator announcement.
// DurationMS nil means the default on-screen time; zero means the
// message persists until replaced.
type broadcastPayload struct {
	ID         string `json:"id,omitempty"`
	Text       string `json:"text"`
	DurationMS *int   `json:"durationMs,omitempty"`
}

// handleBroadcast shows an operator announcement from the organization
// broadcast topic.
func (m *Manager) handleBroadcast(_ string, payload []byte) error {
	var p broadcastPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decoding broadcast: %w", err)
	}

	msg := display.BroadcastMessage{
		ID:       p.ID,
		Text:     p.Text,
		Duration: display.DefaultBroadcastDuration,
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if p.DurationMS != nil {
		msg.Duration = time.Duration(*p.DurationMS) * time.Millisecond
	}

	m.store.ShowBroadcast(msg)
	return nil
}

// deviceMessage is the envelope on the device inbox topic.
type deviceMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// handleDeviceMessage routes direct messages from the backend.
func (m *Manager) handleDeviceMessage(topic string, payload []byte) error {
	var msg deviceMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding device message: %w", err)
	}

	switch msg.Type {
	case "broadcast":
		return m.handleBroadcast(topic, msg.Data)
	case "refresh":
		m.mu.Lock()
		r := m.refresher
		m.mu.Unlock()
		if r != nil {
			r.RefreshNow()
		}
	default:
		m.logger.Debug("ignoring unknown device message", "type", msg.Type)
	}
	return nil
}
