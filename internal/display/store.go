package display

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Store holds everything the screen renders: active orders, ready
// orders, the catalog, stats, and view settings. It is written by the
// refresh jobs and the realtime feed and read by the renderer, so all
// access goes through the mutex.
//
// Bulk setters (poll refreshes) and incremental mutations (realtime
// events) both write unconditionally; the most recent write wins.
type Store struct {
	mu sync.RWMutex

	orders       []Order
	readyOrders  []Order
	categories   []Category
	products     []Product
	events       []Event
	stats        *DailyStats
	organization *OrganizationInfo

	displayMode      Mode
	soundEnabled     bool
	activeCategoryID string

	broadcast *BroadcastMessage

	lastSync time.Time

	onChange func()
}

// NewStore creates a Store with kitchen mode and sound enabled, the
// defaults for a freshly installed screen.
func NewStore() *Store {
	return &Store{
		displayMode:  ModeKitchen,
		soundEnabled: true,
	}
}

// SetOnChange installs a hook invoked after every mutation. Used to
// push state to connected dashboard clients. Must be set before the
// store is shared across goroutines.
func (s *Store) SetOnChange(fn func()) {
	s.onChange = fn
}

// notify fires the change hook. Callers must not hold the mutex.
func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// touch stamps the last sync time. Callers must hold the write lock.
func (s *Store) touch() {
	s.lastSync = time.Now()
}

// LastSync returns when the store last received data.
func (s *Store) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// SetOrders replaces the active order list from a poll refresh.
func (s *Store) SetOrders(orders []Order) {
	s.mu.Lock()
	s.orders = orders
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// Orders returns a copy of the active orders, newest first.
func (s *Store) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.orders...)
}

// AddOrder prepends a new order. An order with the same id as an
// existing one is ignored: the realtime feed can replay events after a
// reconnect.
func (s *Store) AddOrder(order Order) {
	s.mu.Lock()
	if s.findOrder(order.ID) >= 0 {
		s.mu.Unlock()
		return
	}
	s.orders = append([]Order{order}, s.orders...)
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// UpdateOrder replaces an active order in place. Unknown ids are
// ignored; the next poll refresh will reconcile.
func (s *Store) UpdateOrder(order Order) {
	s.mu.Lock()
	idx := s.findOrder(order.ID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.orders[idx] = order
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// RemoveOrder drops an order from the active list.
func (s *Store) RemoveOrder(orderID string) {
	s.mu.Lock()
	idx := s.findOrder(orderID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// findOrder returns the index of an active order, or -1. Caller must
// hold the lock.
func (s *Store) findOrder(orderID string) int {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return i
		}
	}
	return -1
}

// SetReadyOrders replaces the ready list from a poll refresh.
func (s *Store) SetReadyOrders(orders []Order) {
	s.mu.Lock()
	s.readyOrders = orders
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// ReadyOrders returns a copy of the orders awaiting pickup.
func (s *Store) ReadyOrders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Order(nil), s.readyOrders...)
}

// AddReadyOrder moves an order to the ready list and removes it from
// the active list. Idempotent: an order already on the ready list is
// updated in place rather than duplicated.
func (s *Store) AddReadyOrder(order Order) {
	s.mu.Lock()
	replaced := false
	for i := range s.readyOrders {
		if s.readyOrders[i].ID == order.ID {
			s.readyOrders[i] = order
			replaced = true
			break
		}
	}
	if !replaced {
		s.readyOrders = append([]Order{order}, s.readyOrders...)
	}
	if idx := s.findOrder(order.ID); idx >= 0 {
		s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
	}
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// RemoveReadyOrder drops an order from the ready list, typically after
// full delivery.
func (s *Store) RemoveReadyOrder(orderID string) {
	s.mu.Lock()
	for i := range s.readyOrders {
		if s.readyOrders[i].ID == orderID {
			s.readyOrders = append(s.readyOrders[:i], s.readyOrders[i+1:]...)
			s.touch()
			s.mu.Unlock()
			s.notify()
			return
		}
	}
	s.mu.Unlock()
}

// ApplyItemStatus patches one item's status across both order lists.
// If the event carried a full replacement order it wins over the patch.
// Returns the ready-list order after the change, so callers can detect
// full delivery.
func (s *Store) ApplyItemStatus(orderID, itemID string, status ItemStatus, full *Order) (readyOrder *Order) {
	s.mu.Lock()

	patch := func(orders []Order) *Order {
		for i := range orders {
			if orders[i].ID != orderID {
				continue
			}
			if full != nil {
				orders[i] = *full
			} else {
				for j := range orders[i].Items {
					if orders[i].Items[j].ID == itemID {
						orders[i].Items[j].Status = status
					}
				}
			}
			return &orders[i]
		}
		return nil
	}

	patch(s.orders)
	patched := patch(s.readyOrders)

	var result *Order
	if patched != nil {
		cp := *patched
		result = &cp
	}
	s.touch()
	s.mu.Unlock()
	s.notify()
	return result
}

// SetCategories replaces the catalog categories.
func (s *Store) SetCategories(categories []Category) {
	s.mu.Lock()
	s.categories = categories
	sort.Slice(s.categories, func(i, j int) bool {
		return s.categories[i].SortOrder < s.categories[j].SortOrder
	})
	if s.activeCategoryID == "" && len(s.categories) > 0 {
		s.activeCategoryID = s.categories[0].ID
	}
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// Categories returns a copy of the catalog categories in sort order.
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

// SetProducts replaces the catalog products.
func (s *Store) SetProducts(products []Product) {
	s.mu.Lock()
	s.products = products
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// Products returns a copy of all catalog products.
func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

// UpdateProduct replaces a single product after a catalog push.
// Unknown products are appended.
func (s *Store) UpdateProduct(product Product) {
	s.mu.Lock()
	found := false
	for i := range s.products {
		if s.products[i].ID == product.ID {
			s.products[i] = product
			found = true
			break
		}
	}
	if !found {
		s.products = append(s.products, product)
	}
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// SetActiveCategory selects which category the menu screen shows.
func (s *Store) SetActiveCategory(categoryID string) {
	s.mu.Lock()
	s.activeCategoryID = categoryID
	s.mu.Unlock()
	s.notify()
}

// ActiveCategoryProducts returns the available products of the
// selected category, ordered by sort order. Nothing is shown for an
// inactive category: operators hide whole sections that way.
func (s *Store) ActiveCategoryProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := false
	for _, c := range s.categories {
		if c.ID == s.activeCategoryID {
			active = c.IsActive
			break
		}
	}
	if !active {
		return nil
	}

	var result []Product
	for _, p := range s.products {
		if p.CategoryID == s.activeCategoryID && p.Available {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SortOrder < result[j].SortOrder
	})
	return result
}

// SetEvents replaces the organization's event list.
func (s *Store) SetEvents(events []Event) {
	s.mu.Lock()
	s.events = events
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// Events returns a copy of the organization's events.
func (s *Store) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events...)
}

// SetStats replaces today's sales summary.
func (s *Store) SetStats(stats *DailyStats) {
	s.mu.Lock()
	s.stats = stats
	s.touch()
	s.mu.Unlock()
	s.notify()
}

// Stats returns today's sales summary, or nil before the first fetch.
func (s *Store) Stats() *DailyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return nil
	}
	cp := *s.stats
	return &cp
}

// SetOrganization stores the organization the device belongs to.
func (s *Store) SetOrganization(org *OrganizationInfo) {
	s.mu.Lock()
	s.organization = org
	s.mu.Unlock()
	s.notify()
}

// Organization returns the device's organization, or nil.
func (s *Store) Organization() *OrganizationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.organization == nil {
		return nil
	}
	cp := *s.organization
	return &cp
}

// PendingItemCount returns the total unready item units across all
// active orders. Shown as the kitchen backlog badge.
func (s *Store) PendingItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := range s.orders {
		count += s.orders[i].PendingItemCount()
	}
	return count
}

// DisplayMode returns the current rendering mode.
func (s *Store) DisplayMode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayMode
}

// SetDisplayMode changes the rendering mode.
func (s *Store) SetDisplayMode(mode Mode) {
	s.mu.Lock()
	s.displayMode = mode
	s.mu.Unlock()
	s.notify()
}

// SoundEnabled reports whether new-order chimes play.
func (s *Store) SoundEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.soundEnabled
}

// SetSoundEnabled toggles new-order chimes.
func (s *Store) SetSoundEnabled(enabled bool) {
	s.mu.Lock()
	s.soundEnabled = enabled
	s.mu.Unlock()
	s.notify()
}

// Reset clears all synced data. View settings (display mode, sound)
// survive: they belong to the physical screen, not to the session.
func (s *Store) Reset() {
	s.mu.Lock()
	s.orders = nil
	s.readyOrders = nil
	s.categories = nil
	s.products = nil
	s.events = nil
	s.stats = nil
	s.organization = nil
	s.activeCategoryID = ""
	s.broadcast = nil
	s.lastSync = time.Time{}
	s.mu.Unlock()
	s.notify()
}

// Settings is the persisted slice of the store: what must survive a
// restart.
type Settings struct {
	DisplayMode  Mode `json:"displayMode"`
	SoundEnabled bool `json:"soundEnabled"`
}

// SettingsJSON serializes the persisted settings.
func (s *Store) SettingsJSON() (string, error) {
	s.mu.RLock()
	settings := Settings{
		DisplayMode:  s.displayMode,
		SoundEnabled: s.soundEnabled,
	}
	s.mu.RUnlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RestoreSettings applies persisted settings from a previous run.
func (s *Store) RestoreSettings(raw string) error {
	var settings Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return err
	}

	s.mu.Lock()
	if settings.DisplayMode.Valid() {
		s.displayMode = settings.DisplayMode
	}
	s.soundEnabled = settings.SoundEnabled
	s.mu.Unlock()
	s.notify()
	return nil
}
