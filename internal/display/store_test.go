package display

import (
	"testing"
	"time"
)

func makeOrder(id string, items ...OrderItem) Order {
	return Order{
		ID:          id,
		OrderNumber: id,
		Status:      OrderStatusOpen,
		Items:       items,
		CreatedAt:   time.Now(),
	}
}

func orderIDs(orders []Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}

func TestStore_AddOrder_PrependsNewest(t *testing.T) {
	s := NewStore()

	s.AddOrder(makeOrder("o1"))
	s.AddOrder(makeOrder("o2"))

	got := orderIDs(s.Orders())
	if len(got) != 2 || got[0] != "o2" || got[1] != "o1" {
		t.Errorf("order ids = %v, want [o2 o1]", got)
	}
}

func TestStore_AddOrder_IgnoresDuplicateID(t *testing.T) {
	s := NewStore()

	s.AddOrder(makeOrder("o1"))
	s.AddOrder(makeOrder("o1"))

	if got := len(s.Orders()); got != 1 {
		t.Errorf("len(orders) = %d, want 1", got)
	}
}

func TestStore_UpdateOrder_UnknownIDIsNoop(t *testing.T) {
	s := NewStore()
	s.AddOrder(makeOrder("o1"))

	s.UpdateOrder(makeOrder("missing"))

	got := orderIDs(s.Orders())
	if len(got) != 1 || got[0] != "o1" {
		t.Errorf("order ids = %v, want [o1]", got)
	}
}

func TestStore_UpdateOrder_ReplacesInPlace(t *testing.T) {
	s := NewStore()
	s.AddOrder(makeOrder("o1"))
	s.AddOrder(makeOrder("o2"))

	updated := makeOrder("o1")
	updated.Status = OrderStatusInProgress
	s.UpdateOrder(updated)

	orders := s.Orders()
	if orders[1].Status != OrderStatusInProgress {
		t.Errorf("status = %q, want %q", orders[1].Status, OrderStatusInProgress)
	}
	if got := orderIDs(orders); got[0] != "o2" || got[1] != "o1" {
		t.Errorf("order ids = %v, want [o2 o1]", got)
	}
}

func TestStore_AddReadyOrder_MovesFromActive(t *testing.T) {
	s := NewStore()
	s.AddOrder(makeOrder("o1"))
	s.AddOrder(makeOrder("o2"))

	ready := makeOrder("o1")
	ready.Status = OrderStatusReady
	s.AddReadyOrder(ready)

	if got := orderIDs(s.Orders()); len(got) != 1 || got[0] != "o2" {
		t.Errorf("active ids = %v, want [o2]", got)
	}
	if got := orderIDs(s.ReadyOrders()); len(got) != 1 || got[0] != "o1" {
		t.Errorf("ready ids = %v, want [o1]", got)
	}
}

func TestStore_AddReadyOrder_Idempotent(t *testing.T) {
	s := NewStore()

	ready := makeOrder("o1")
	s.AddReadyOrder(ready)
	s.AddReadyOrder(ready)

	if got := len(s.ReadyOrders()); got != 1 {
		t.Errorf("len(readyOrders) = %d, want 1", got)
	}
}

func TestStore_ApplyItemStatus_Patch(t *testing.T) {
	s := NewStore()
	s.AddOrder(makeOrder("o1",
		OrderItem{ID: "i1", Quantity: 1, Status: ItemStatusPending},
		OrderItem{ID: "i2", Quantity: 1, Status: ItemStatusPending},
	))

	s.ApplyItemStatus("o1", "i1", ItemStatusReady, nil)

	items := s.Orders()[0].Items
	if items[0].Status != ItemStatusReady {
		t.Errorf("item i1 status = %q, want %q", items[0].Status, ItemStatusReady)
	}
	if items[1].Status != ItemStatusPending {
		t.Errorf("item i2 status = %q, want %q", items[1].Status, ItemStatusPending)
	}
}

func TestStore_ApplyItemStatus_FullOrderWins(t *testing.T) {
	s := NewStore()
	s.AddOrder(makeOrder("o1", OrderItem{ID: "i1", Quantity: 1, Status: ItemStatusPending}))

	full := makeOrder("o1", OrderItem{ID: "i1", Quantity: 2, Status: ItemStatusReady})
	s.ApplyItemStatus("o1", "i1", ItemStatusReady, &full)

	got := s.Orders()[0]
	if got.Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2 (full order should replace)", got.Items[0].Quantity)
	}
}

func TestStore_ApplyItemStatus_ReturnsReadyOrder(t *testing.T) {
	s := NewStore()
	ready := makeOrder("o1",
		OrderItem{ID: "i1", Quantity: 1, Status: ItemStatusDelivered},
		OrderItem{ID: "i2", Quantity: 1, Status: ItemStatusReady},
	)
	s.AddReadyOrder(ready)

	result := s.ApplyItemStatus("o1", "i2", ItemStatusDelivered, nil)
	if result == nil {
		t.Fatal("ApplyItemStatus() = nil, want ready order")
	}
	if !result.AllItemsDelivered() {
		t.Error("AllItemsDelivered() = false, want true")
	}
}

func TestStore_PendingItemCount(t *testing.T) {
	s := NewStore()
	s.AddOrder(makeOrder("o1",
		OrderItem{ID: "i1", Quantity: 3, Status: ItemStatusPending},
		OrderItem{ID: "i2", Quantity: 1, Status: ItemStatusReady},
	))
	s.AddOrder(makeOrder("o2",
		OrderItem{ID: "i3", Quantity: 2, Status: ItemStatusPreparing},
		OrderItem{ID: "i4", Quantity: 4, Status: ItemStatusCancelled},
	))

	// Pending and preparing count; ready and cancelled do not.
	if got := s.PendingItemCount(); got != 5 {
		t.Errorf("PendingItemCount() = %d, want 5", got)
	}
}

func TestOrder_AllItemsDelivered_CancelledIsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		items []OrderItem
		want  bool
	}{
		{"delivered and cancelled", []OrderItem{
			{ID: "i1", Status: ItemStatusDelivered},
			{ID: "i2", Status: ItemStatusCancelled},
		}, true},
		{"all cancelled", []OrderItem{
			{ID: "i1", Status: ItemStatusCancelled},
		}, true},
		{"ready item remains", []OrderItem{
			{ID: "i1", Status: ItemStatusDelivered},
			{ID: "i2", Status: ItemStatusReady},
		}, false},
		{"no items", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := makeOrder("o1", tt.items...)
			if got := o.AllItemsDelivered(); got != tt.want {
				t.Errorf("AllItemsDelivered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_ActiveCategoryProducts(t *testing.T) {
	s := NewStore()
	s.SetCategories([]Category{
		{ID: "c2", Name: "Drinks", SortOrder: 2, IsActive: true},
		{ID: "c1", Name: "Food", SortOrder: 1, IsActive: true},
		{ID: "c3", Name: "Seasonal", SortOrder: 3, IsActive: false},
	})
	s.SetProducts([]Product{
		{ID: "p1", CategoryID: "c1", Name: "Burger", SortOrder: 2, Available: true},
		{ID: "p2", CategoryID: "c2", Name: "Cola", SortOrder: 1, Available: true},
		{ID: "p3", CategoryID: "c1", Name: "Fries", SortOrder: 1, Available: true},
		{ID: "p4", CategoryID: "c1", Name: "Soup", SortOrder: 3, Available: false},
		{ID: "p5", CategoryID: "c3", Name: "Glühwein", SortOrder: 1, Available: true},
	})

	// First category by sort order becomes active; sold-out products
	// are hidden.
	got := s.ActiveCategoryProducts()
	if len(got) != 2 {
		t.Fatalf("len(products) = %d, want 2", len(got))
	}
	if got[0].ID != "p3" || got[1].ID != "p1" {
		t.Errorf("product ids = [%s %s], want [p3 p1]", got[0].ID, got[1].ID)
	}

	s.SetActiveCategory("c2")
	got = s.ActiveCategoryProducts()
	if len(got) != 1 || got[0].ID != "p2" {
		t.Errorf("products after switch = %v", got)
	}

	// An inactive category shows nothing even if its products are
	// available.
	s.SetActiveCategory("c3")
	if got := s.ActiveCategoryProducts(); len(got) != 0 {
		t.Errorf("products of inactive category = %v, want none", got)
	}
}

func TestStore_UpdateProduct(t *testing.T) {
	s := NewStore()
	s.SetProducts([]Product{{ID: "p1", Name: "Burger", Price: 8}})

	s.UpdateProduct(Product{ID: "p1", Name: "Burger", Price: 9})

	if got := s.Products()[0].Price; got != 9 {
		t.Errorf("price = %v, want 9", got)
	}

	s.UpdateProduct(Product{ID: "p2", Name: "Wrap"})
	if got := len(s.Products()); got != 2 {
		t.Errorf("len(products) = %d, want 2", got)
	}
}

func TestStore_Reset_PreservesViewSettings(t *testing.T) {
	s := NewStore()
	s.SetDisplayMode(ModePickup)
	s.SetSoundEnabled(false)
	s.AddOrder(makeOrder("o1"))
	s.SetStats(&DailyStats{OrderCount: 5})

	s.Reset()

	if got := len(s.Orders()); got != 0 {
		t.Errorf("len(orders) after reset = %d, want 0", got)
	}
	if s.Stats() != nil {
		t.Error("stats after reset != nil")
	}
	if got := s.DisplayMode(); got != ModePickup {
		t.Errorf("display mode after reset = %q, want %q", got, ModePickup)
	}
	if s.SoundEnabled() {
		t.Error("sound enabled after reset = true, want false")
	}
}

func TestStore_SettingsRoundTrip(t *testing.T) {
	s := NewStore()
	s.SetDisplayMode(ModeSales)
	s.SetSoundEnabled(false)

	raw, err := s.SettingsJSON()
	if err != nil {
		t.Fatalf("SettingsJSON() error = %v", err)
	}

	restored := NewStore()
	if err := restored.RestoreSettings(raw); err != nil {
		t.Fatalf("RestoreSettings() error = %v", err)
	}

	if got := restored.DisplayMode(); got != ModeSales {
		t.Errorf("display mode = %q, want %q", got, ModeSales)
	}
	if restored.SoundEnabled() {
		t.Error("sound enabled = true, want false")
	}
}

func TestStore_RestoreSettings_InvalidModeKeepsDefault(t *testing.T) {
	s := NewStore()

	if err := s.RestoreSettings(`{"displayMode":"bogus","soundEnabled":true}`); err != nil {
		t.Fatalf("RestoreSettings() error = %v", err)
	}
	if got := s.DisplayMode(); got != ModeKitchen {
		t.Errorf("display mode = %q, want %q", got, ModeKitchen)
	}
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore()
	fired := 0
	s.SetOnChange(func() { fired++ })

	s.AddOrder(makeOrder("o1"))
	s.SetStats(&DailyStats{})

	if fired != 2 {
		t.Errorf("change hook fired %d times, want 2", fired)
	}
}
