package display

import "time"

// Mode selects which surface the screen renders.
type Mode string

// Display modes. Each mode subscribes to a different slice of the
// realtime feed and renders a different layout.
const (
	ModeMenu     Mode = "menu"
	ModeKitchen  Mode = "kitchen"
	ModeDelivery Mode = "delivery"
	ModePickup   Mode = "pickup"
	ModeSales    Mode = "sales"
)

// Valid reports whether m is a known display mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeMenu, ModeKitchen, ModeDelivery, ModePickup, ModeSales:
		return true
	}
	return false
}

// ClassForMode maps a display mode to the backend device class that
// renders it.
func ClassForMode(m Mode) string {
	switch m {
	case ModeMenu:
		return "DISPLAY_MENU"
	case ModeDelivery:
		return "DELIVERY"
	case ModePickup:
		return "PICKUP"
	case ModeSales:
		return "SALES"
	}
	return "KITCHEN"
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses as reported by the backend.
const (
	OrderStatusOpen       OrderStatus = "OPEN"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// ItemStatus is the per-line-item preparation state.
type ItemStatus string

// Item statuses. Delivered and cancelled are terminal.
const (
	ItemStatusPending   ItemStatus = "PENDING"
	ItemStatusPreparing ItemStatus = "PREPARING"
	ItemStatusReady     ItemStatus = "READY"
	ItemStatusDelivered ItemStatus = "DELIVERED"
	ItemStatusCancelled ItemStatus = "CANCELLED"
)

// OrderPriority is how urgently the kitchen should treat an order.
type OrderPriority string

// Order priorities.
const (
	PriorityNormal OrderPriority = "NORMAL"
	PriorityHigh   OrderPriority = "HIGH"
	PriorityRush   OrderPriority = "RUSH"
)

// SelectedOption is a customer choice on an order item, e.g. a topping
// or a size.
type SelectedOption struct {
	ID        string  `json:"id"`
	GroupName string  `json:"groupName"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"productId"`
	Name            string           `json:"name"`
	Quantity        int              `json:"quantity"`
	UnitPrice       float64          `json:"unitPrice"`
	Status          ItemStatus       `json:"status"`
	Note            string           `json:"note,omitempty"`
	SelectedOptions []SelectedOption `json:"selectedOptions,omitempty"`
}

// Order is a customer order as shown on kitchen, delivery, and pickup
// screens.
type Order struct {
	ID           string        `json:"id"`
	OrderNumber  string        `json:"orderNumber"`
	DailyNumber  int           `json:"dailyNumber"`
	TableNumber  string        `json:"tableNumber,omitempty"`
	Status       OrderStatus   `json:"status"`
	Priority     OrderPriority `json:"priority"`
	CustomerName string        `json:"customerName,omitempty"`
	Note         string        `json:"note,omitempty"`
	TotalAmount  float64       `json:"totalAmount"`
	Items        []OrderItem   `json:"items"`
	CreatedAt    time.Time     `json:"createdAt"`
	ReadyAt      *time.Time    `json:"readyAt,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// PendingItemCount returns the number of item units still being
// worked on (pending or preparing), counting quantities.
func (o *Order) PendingItemCount() int {
	count := 0
	for _, item := range o.Items {
		if item.Status == ItemStatusPending || item.Status == ItemStatusPreparing {
			count += item.Quantity
		}
	}
	return count
}

// AllItemsDelivered reports whether every item on the order reached a
// terminal state: handed out or cancelled. A fully cancelled order
// counts too; it has nothing left to hand out.
func (o *Order) AllItemsDelivered() bool {
	for _, item := range o.Items {
		if item.Status != ItemStatusDelivered && item.Status != ItemStatusCancelled {
			return false
		}
	}
	return len(o.Items) > 0
}

// OptionItem is one selectable choice within an option group.
type OptionItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OptionGroup is a set of choices attached to a product (e.g. "Size").
type OptionGroup struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Required bool         `json:"required"`
	MaxCount int          `json:"maxCount"`
	Options  []OptionItem `json:"options"`
}

// Product is a sellable item shown on menu screens.
type Product struct {
	ID           string        `json:"id"`
	CategoryID   string        `json:"categoryId"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Price        float64       `json:"price"`
	ImageURL     string        `json:"imageUrl,omitempty"`
	Available    bool          `json:"available"`
	SortOrder    int           `json:"sortOrder"`
	OptionGroups []OptionGroup `json:"optionGroups,omitempty"`
}

// Category groups products on menu screens.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	IsActive  bool   `json:"isActive"`
}

// Event is a sales event (market day, festival booth) that scopes
// orders, catalog, and stats.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProductSales is one row of the top-sellers list.
type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// HourlyRevenue is one bucket of the revenue-by-hour chart.
type HourlyRevenue struct {
	Hour       int     `json:"hour"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"orderCount"`
}

// DailyStats is the sales summary shown on the sales screen. It is
// replaced wholesale on every fetch or push; nothing merges into it.
type DailyStats struct {
	OrderCount       int                `json:"orderCount"`
	Revenue          float64            `json:"revenue"`
	AverageOrder     float64            `json:"averageOrder"`
	ItemsSold        int                `json:"itemsSold"`
	OpenOrderCount   int                `json:"openOrderCount"`
	PendingItemCount int                `json:"pendingItemCount"`
	TopProducts      []ProductSales     `json:"topProducts,omitempty"`
	HourlyRevenue    []HourlyRevenue    `json:"hourlyRevenue,omitempty"`
	PaymentMethods   map[string]float64 `json:"paymentMethods,omitempty"`
}

// OrganizationInfo describes the organization the device belongs to.
type OrganizationInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// BroadcastMessage is an operator announcement overlaid on the screen.
// Duration zero means the message persists until replaced.
type BroadcastMessage struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Duration time.Duration `json:"duration"`
}
