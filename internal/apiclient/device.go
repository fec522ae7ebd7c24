package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/openeos/tvdisplay-core/internal/display"
)

// RegisterRequest is the payload for registering a new device with an
// organization.
type RegisterRequest struct {
	Name             string `json:"name"`
	OrganizationSlug string `json:"organizationSlug"`
	DeviceClass      string `json:"deviceClass"`
}

// RegisterResponse is the backend's answer to a registration. The
// verification code is shown on screen so an operator can approve the
// device from the admin panel.
type RegisterResponse struct {
	DeviceID         string `json:"deviceId"`
	DeviceToken      string `json:"deviceToken"`
	VerificationCode string `json:"verificationCode"`
	Status           string `json:"status"`
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
}

// StatusResponse reports the device's current verification state.
type StatusResponse struct {
	DeviceID         string `json:"deviceId"`
	Status           string `json:"status"`
	DeviceClass      string `json:"deviceClass"`
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
}

// Register enrolls this device with the backend. On success the caller
// should install the returned token via SetToken.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if apiErr := c.do(ctx, http.MethodPost, "/devices/register", req, &resp); apiErr != nil {
		return nil, apiErr
	}
	return &resp, nil
}

// CheckStatus fetches the device's verification state. A 401 means the
// backend no longer knows this device.
func (c *Client) CheckStatus(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if apiErr := c.do(ctx, http.MethodGet, "/devices/status", nil, &resp); apiErr != nil {
		return nil, apiErr
	}
	return &resp, nil
}

// Heartbeat tells the backend the device is alive. The backend uses
// this for its device overview; failures here are not fatal.
func (c *Client) Heartbeat(ctx context.Context) error {
	if apiErr := c.do(ctx, http.MethodPost, "/devices/heartbeat", nil, nil); apiErr != nil {
		return apiErr
	}
	return nil
}

// UpdateDeviceClass changes what kind of screen this device is. The
// backend is the source of truth: callers apply the change locally only
// after this succeeds.
func (c *Client) UpdateDeviceClass(ctx context.Context, deviceClass string) error {
	body := map[string]string{"deviceClass": deviceClass}
	if apiErr := c.do(ctx, http.MethodPatch, "/devices/me", body, nil); apiErr != nil {
		return apiErr
	}
	return nil
}

// GetOrganization fetches the organization this device belongs to.
func (c *Client) GetOrganization(ctx context.Context) (*display.OrganizationInfo, error) {
	var org display.OrganizationInfo
	if apiErr := c.do(ctx, http.MethodGet, "/devices/organization", nil, &org); apiErr != nil {
		return nil, apiErr
	}
	return &org, nil
}

// GetEvents lists the organization's sales events.
func (c *Client) GetEvents(ctx context.Context) ([]display.Event, error) {
	events, apiErr := getList[display.Event](ctx, c, "/devices/events")
	if apiErr != nil {
		return nil, apiErr
	}
	return events, nil
}

// GetCategories lists the menu categories for an event.
func (c *Client) GetCategories(ctx context.Context, eventID string) ([]display.Category, error) {
	path := fmt.Sprintf("/devices/events/%s/categories", url.PathEscape(eventID))
	categories, apiErr := getList[display.Category](ctx, c, path)
	if apiErr != nil {
		return nil, apiErr
	}
	return categories, nil
}

// GetProducts lists the products for an event, including option groups.
func (c *Client) GetProducts(ctx context.Context, eventID string) ([]display.Product, error) {
	path := fmt.Sprintf("/devices/events/%s/products", url.PathEscape(eventID))
	products, apiErr := getList[display.Product](ctx, c, path)
	if apiErr != nil {
		return nil, apiErr
	}
	return products, nil
}
