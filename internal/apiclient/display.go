package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/openeos/tvdisplay-core/internal/display"
)

// GetKitchenOrders fetches the active orders for the kitchen screen.
func (c *Client) GetKitchenOrders(ctx context.Context, eventID string) ([]display.Order, error) {
	path := "/devices/orders/kitchen?eventId=" + url.QueryEscape(eventID)
	orders, apiErr := getList[display.Order](ctx, c, path)
	if apiErr != nil {
		return nil, apiErr
	}
	return orders, nil
}

// GetReadyOrders fetches the orders awaiting pickup.
func (c *Client) GetReadyOrders(ctx context.Context, eventID string) ([]display.Order, error) {
	path := "/devices/orders/ready?eventId=" + url.QueryEscape(eventID)
	orders, apiErr := getList[display.Order](ctx, c, path)
	if apiErr != nil {
		return nil, apiErr
	}
	return orders, nil
}

// MarkItemReady reports that the kitchen finished preparing an item.
// The local view is not mutated here; the backend echoes the change
// back over the realtime channel.
func (c *Client) MarkItemReady(ctx context.Context, orderID, itemID string) error {
	path := fmt.Sprintf("/devices/orders/%s/items/%s/ready",
		url.PathEscape(orderID), url.PathEscape(itemID))
	if apiErr := c.do(ctx, http.MethodPost, path, nil, nil); apiErr != nil {
		return apiErr
	}
	return nil
}

// MarkItemDelivered reports that an item was handed to the customer.
func (c *Client) MarkItemDelivered(ctx context.Context, orderID, itemID string) error {
	path := fmt.Sprintf("/devices/orders/%s/items/%s/deliver",
		url.PathEscape(orderID), url.PathEscape(itemID))
	if apiErr := c.do(ctx, http.MethodPost, path, nil, nil); apiErr != nil {
		return apiErr
	}
	return nil
}

// GetDailyStats fetches today's sales summary for an event.
func (c *Client) GetDailyStats(ctx context.Context, eventID string) (*display.DailyStats, error) {
	path := "/devices/stats/today?eventId=" + url.QueryEscape(eventID)
	var stats display.DailyStats
	if apiErr := c.do(ctx, http.MethodGet, path, nil, &stats); apiErr != nil {
		return nil, apiErr
	}
	return &stats, nil
}
