package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
)

func newEventManager(t *testing.T) (*Manager, *display.Store) {
	t.Helper()
	store := display.NewStore()
	m := NewManager(testRealtimeConfig(), nil, store, logging.Default())
	return m, store
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestApplyDisplayEvent_OrderNew(t *testing.T) {
	m, store := newEventManager(t)

	order := display.Order{ID: "o1", OrderNumber: "42", Status: display.OrderStatusOpen}
	if err := m.applyDisplayEvent(EventOrderNew, mustJSON(t, order)); err != nil {
		t.Fatalf("applyDisplayEvent() error = %v", err)
	}

	if got := store.Orders(); len(got) != 1 || got[0].ID != "o1" {
		t.Errorf("orders = %v, want [o1]", got)
	}
}

func TestApplyDisplayEvent_OrderCancelled(t *testing.T) {
	m, store := newEventManager(t)
	store.AddOrder(display.Order{ID: "o1"})
	store.AddReadyOrder(display.Order{ID: "o2"})

	m.applyDisplayEvent(EventOrderCancelled, []byte(`{"orderId":"o1"}`)) //nolint:errcheck
	m.applyDisplayEvent(EventOrderCancelled, []byte(`{"orderId":"o2"}`)) //nolint:errcheck

	if got := len(store.Orders()); got != 0 {
		t.Errorf("active orders = %d, want 0", got)
	}
	if got := len(store.ReadyOrders()); got != 0 {
		t.Errorf("ready orders = %d, want 0", got)
	}
}

func TestApplyDisplayEvent_OrderReady_MovesAndDedupes(t *testing.T) {
	m, store := newEventManager(t)
	store.AddOrder(display.Order{ID: "o1"})

	ready := display.Order{ID: "o1", Status: display.OrderStatusReady}
	payload := mustJSON(t, ready)
	m.applyDisplayEvent(EventOrderReady, payload) //nolint:errcheck
	m.applyDisplayEvent(EventOrderReady, payload) //nolint:errcheck

	if got := len(store.Orders()); got != 0 {
		t.Errorf("active orders = %d, want 0", got)
	}
	if got := len(store.ReadyOrders()); got != 1 {
		t.Errorf("ready orders = %d, want 1 (replay must not duplicate)", got)
	}
}

func TestApplyDisplayEvent_ItemDelivered_RemovesFullyDeliveredOrder(t *testing.T) {
	m, store := newEventManager(t)
	store.AddReadyOrder(display.Order{
		ID: "o1",
		Items: []display.OrderItem{
			{ID: "i1", Quantity: 1, Status: display.ItemStatusDelivered},
			{ID: "i2", Quantity: 1, Status: display.ItemStatusReady},
		},
	})

	payload := []byte(`{"orderId":"o1","itemId":"i2"}`)
	if err := m.applyDisplayEvent(EventItemDelivered, payload); err != nil {
		t.Fatalf("applyDisplayEvent() error = %v", err)
	}

	if got := len(store.ReadyOrders()); got != 0 {
		t.Errorf("ready orders = %d, want 0 after last item delivered", got)
	}
}

func TestApplyDisplayEvent_ItemDelivered_CancelledItemsCountAsSettled(t *testing.T) {
	m, store := newEventManager(t)
	store.AddReadyOrder(display.Order{
		ID: "o1",
		Items: []display.OrderItem{
			{ID: "i1", Quantity: 1, Status: display.ItemStatusDelivered},
			{ID: "i2", Quantity: 1, Status: display.ItemStatusReady},
			{ID: "i3", Quantity: 1, Status: display.ItemStatusCancelled},
		},
	})

	full := display.Order{
		ID: "o1",
		Items: []display.OrderItem{
			{ID: "i1", Quantity: 1, Status: display.ItemStatusDelivered},
			{ID: "i2", Quantity: 1, Status: display.ItemStatusDelivered},
			{ID: "i3", Quantity: 1, Status: display.ItemStatusCancelled},
		},
	}
	payload := mustJSON(t, itemEvent{OrderID: "o1", ItemID: "i2", Order: &full})
	if err := m.applyDisplayEvent(EventItemDelivered, payload); err != nil {
		t.Fatalf("applyDisplayEvent() error = %v", err)
	}

	if got := len(store.ReadyOrders()); got != 0 {
		t.Errorf("ready orders = %d, want 0 once every item is delivered or cancelled", got)
	}
}

func TestApplyDisplayEvent_ItemReady_FullOrderReplaces(t *testing.T) {
	m, store := newEventManager(t)
	store.AddOrder(display.Order{
		ID:    "o1",
		Items: []display.OrderItem{{ID: "i1", Quantity: 1, Status: display.ItemStatusPending}},
	})

	full := display.Order{
		ID:    "o1",
		Items: []display.OrderItem{{ID: "i1", Quantity: 3, Status: display.ItemStatusReady}},
	}
	payload := mustJSON(t, itemEvent{OrderID: "o1", ItemID: "i1", Order: &full})
	if err := m.applyDisplayEvent(EventItemReady, payload); err != nil {
		t.Fatalf("applyDisplayEvent() error = %v", err)
	}

	got := store.Orders()[0].Items[0]
	if got.Status != display.ItemStatusReady || got.Quantity != 3 {
		t.Errorf("item = %+v, want replaced by full order", got)
	}
}

func TestApplyDisplayEvent_StatsAndProduct(t *testing.T) {
	m, store := newEventManager(t)

	m.applyDisplayEvent(EventStatsUpdated, []byte(`{"orderCount":7,"revenue":120}`)) //nolint:errcheck
	if got := store.Stats(); got == nil || got.OrderCount != 7 {
		t.Errorf("stats = %v, want orderCount 7", got)
	}

	store.SetProducts([]display.Product{{ID: "p1", Price: 5}})
	m.applyDisplayEvent(EventProductUpdated, []byte(`{"id":"p1","price":6}`)) //nolint:errcheck
	if got := store.Products()[0].Price; got != 6 {
		t.Errorf("product price = %v, want 6", got)
	}
}

func TestApplyDisplayEvent_PaymentCallbackOnly(t *testing.T) {
	m, store := newEventManager(t)
	store.AddOrder(display.Order{ID: "o1"})

	fired := false
	m.SetOnPayment(func() { fired = true })

	if err := m.applyDisplayEvent(EventPaymentReceived, []byte(`{}`)); err != nil {
		t.Fatalf("applyDisplayEvent() error = %v", err)
	}

	if !fired {
		t.Error("payment hook not fired")
	}
	if got := len(store.Orders()); got != 1 {
		t.Errorf("orders after payment event = %d, want untouched 1", got)
	}
}

func TestApplyDisplayEvent_ItemEventsFireHook(t *testing.T) {
	m, store := newEventManager(t)
	store.AddOrder(display.Order{
		ID:    "o1",
		Items: []display.OrderItem{{ID: "i1", Quantity: 1, Status: display.ItemStatusPending}},
	})

	type call struct{ event, orderID, itemID string }
	var calls []call
	m.SetOnItemEvent(func(event, orderID, itemID string) {
		calls = append(calls, call{event, orderID, itemID})
	})

	m.applyDisplayEvent(EventItemReady, []byte(`{"orderId":"o1","itemId":"i1"}`))     //nolint:errcheck
	m.applyDisplayEvent(EventItemDelivered, []byte(`{"orderId":"o1","itemId":"i1"}`)) //nolint:errcheck

	want := []call{
		{EventItemReady, "o1", "i1"},
		{EventItemDelivered, "o1", "i1"},
	}
	if len(calls) != len(want) {
		t.Fatalf("hook calls = %d, want %d", len(calls), len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

type countingRefresher struct{ calls int }

func (c *countingRefresher) RefreshNow() { c.calls++ }

func TestApplyDisplayEvent_Refresh(t *testing.T) {
	m, _ := newEventManager(t)
	r := &countingRefresher{}
	m.SetRefresher(r)

	if err := m.applyDisplayEvent(EventRefresh, nil); err != nil {
		t.Fatalf("applyDisplayEvent() error = %v", err)
	}
	if r.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", r.calls)
	}
}

func TestApplyDisplayEvent_UnknownIgnored(t *testing.T) {
	m, _ := newEventManager(t)

	if err := m.applyDisplayEvent("some/future/event", []byte(`{}`)); err != nil {
		t.Errorf("unknown event error = %v, want nil", err)
	}
}

func TestHandleBroadcast_DurationMapping(t *testing.T) {
	m, store := newEventManager(t)

	// Explicit duration in milliseconds.
	m.handleBroadcast("", []byte(`{"id":"b1","text":"hi","durationMs":30}`)) //nolint:errcheck
	if got := store.Broadcast(); got == nil || got.Duration != 30*time.Millisecond {
		t.Errorf("broadcast = %v, want 30ms duration", got)
	}

	// Omitted duration falls back to the default.
	m.handleBroadcast("", []byte(`{"id":"b2","text":"hi"}`)) //nolint:errcheck
	if got := store.Broadcast(); got == nil || got.Duration != display.DefaultBroadcastDuration {
		t.Errorf("broadcast = %v, want default duration", got)
	}

	// Explicit zero persists.
	m.handleBroadcast("", []byte(`{"id":"b3","text":"hi","durationMs":0}`)) //nolint:errcheck
	if got := store.Broadcast(); got == nil || got.Duration != 0 {
		t.Errorf("broadcast = %v, want persistent (0 duration)", got)
	}

	// Missing id gets one assigned, so expiry checks still work.
	m.handleBroadcast("", []byte(`{"text":"anon"}`)) //nolint:errcheck
	if got := store.Broadcast(); got == nil || got.ID == "" {
		t.Error("broadcast without id should receive a generated id")
	}
}

func TestHandleDeviceMessage(t *testing.T) {
	m, store := newEventManager(t)
	r := &countingRefresher{}
	m.SetRefresher(r)

	m.handleDeviceMessage("", []byte(`{"type":"refresh"}`))                                      //nolint:errcheck
	m.handleDeviceMessage("", []byte(`{"type":"broadcast","data":{"id":"b1","text":"closed"}}`)) //nolint:errcheck

	if r.calls != 1 {
		t.Errorf("refresh calls = %d, want 1", r.calls)
	}
	if got := store.Broadcast(); got == nil || got.Text != "closed" {
		t.Errorf("broadcast = %v, want relayed message", got)
	}
}
