package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openeos/tvdisplay-core/internal/apiclient"
	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/storage"
	"github.com/openeos/tvdisplay-core/internal/realtime"
	"github.com/openeos/tvdisplay-core/internal/session"
)

// statusPayload is the device lifecycle view for the diagnostics
// surface and the pairing screen.
type statusPayload struct {
	DeviceID          string     `json:"deviceId,omitempty"`
	DeviceName        string     `json:"deviceName,omitempty"`
	Status            string     `json:"status"`
	DeviceClass       string     `json:"deviceClass,omitempty"`
	OrganizationID    string     `json:"organizationId,omitempty"`
	OrganizationName  string     `json:"organizationName,omitempty"`
	SelectedEventID   string     `json:"selectedEventId,omitempty"`
	VerificationCode  string     `json:"verificationCode,omitempty"`
	RealtimeConnected bool       `json:"realtimeConnected"`
	TokenExpiresAt    *time.Time `json:"tokenExpiresAt,omitempty"`
	LastSync          time.Time  `json:"lastSync"`
	UptimeSeconds     int64      `json:"uptimeSeconds"`
	Version           string     `json:"version,omitempty"`
}

// statePayload is the full render snapshot. The renderer is dumb by
// design: it receives everything it needs on every change.
type statePayload struct {
	DisplayMode      display.Mode              `json:"displayMode"`
	SoundEnabled     bool                      `json:"soundEnabled"`
	Orders           []display.Order           `json:"orders"`
	ReadyOrders      []display.Order           `json:"readyOrders"`
	PendingItemCount int                       `json:"pendingItemCount"`
	Categories       []display.Category        `json:"categories"`
	Products         []display.Product         `json:"products"`
	Events           []display.Event           `json:"events"`
	Stats            *display.DailyStats       `json:"stats,omitempty"`
	Organization     *display.OrganizationInfo `json:"organization,omitempty"`
	Broadcast        *display.BroadcastMessage `json:"broadcast,omitempty"`
	LastSync         time.Time                 `json:"lastSync"`
}

func (s *Server) buildStatus() statusPayload {
	snap := s.deps.Session.Snapshot()
	connected := false
	if s.deps.Realtime != nil {
		connected = s.deps.Realtime.Connected()
	}
	var tokenExpiry *time.Time
	if token := s.deps.Session.Token(); token != "" {
		if info, err := session.InspectToken(token); err == nil && !info.ExpiresAt.IsZero() {
			tokenExpiry = &info.ExpiresAt
		}
	}
	return statusPayload{
		DeviceID:          snap.DeviceID,
		DeviceName:        snap.DeviceName,
		Status:            string(snap.Status),
		DeviceClass:       string(snap.DeviceClass),
		OrganizationID:    snap.OrganizationID,
		OrganizationName:  snap.OrganizationName,
		SelectedEventID:   snap.SelectedEventID,
		VerificationCode:  snap.VerificationCode,
		RealtimeConnected: connected,
		TokenExpiresAt:    tokenExpiry,
		LastSync:          s.deps.Store.LastSync(),
		UptimeSeconds:     int64(time.Since(s.startTime).Seconds()),
		Version:           s.deps.Version,
	}
}

// BuildState assembles the full render snapshot. The store-change
// observer uses it to feed the WebSocket hub.
func (s *Server) BuildState() any {
	st := s.deps.Store
	return statePayload{
		DisplayMode:      st.DisplayMode(),
		SoundEnabled:     st.SoundEnabled(),
		Orders:           st.Orders(),
		ReadyOrders:      st.ReadyOrders(),
		PendingItemCount: st.PendingItemCount(),
		Categories:       st.Categories(),
		Products:         st.Products(),
		Events:           st.Events(),
		Stats:            st.Stats(),
		Organization:     st.Organization(),
		Broadcast:        st.Broadcast(),
		LastSync:         st.LastSync(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if s.deps.DB != nil {
		if err := s.deps.DB.HealthCheck(r.Context()); err != nil {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.buildStatus())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.BuildState())
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name             string `json:"name"`
		OrganizationSlug string `json:"organizationSlug"`
		DeviceClass      string `json:"deviceClass"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.OrganizationSlug == "" {
		writeBadRequest(w, "name and organizationSlug are required")
		return
	}
	class := session.DeviceClass(req.DeviceClass)
	if req.DeviceClass == "" {
		class = session.ClassKitchen
	}
	if !class.Valid() {
		writeBadRequest(w, "unknown device class")
		return
	}

	if _, err := s.deps.Session.Register(r.Context(), req.Name, req.OrganizationSlug, class); err != nil {
		s.relayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.buildStatus())
}

func (s *Server) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Session.CheckStatus(r.Context()); err != nil {
		s.relayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.buildStatus())
}

func (s *Server) handleSelectEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventID string `json:"eventId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.EventID == "" {
		writeBadRequest(w, "eventId is required")
		return
	}
	if err := s.deps.Session.SetSelectedEventID(r.Context(), req.EventID); err != nil {
		s.relayError(w, err)
		return
	}
	if s.deps.Refresh != nil {
		s.deps.Refresh.RefreshNow()
	}
	writeJSON(w, http.StatusOK, s.buildStatus())
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	mode := display.Mode(req.Mode)
	if !mode.Valid() {
		writeBadRequest(w, "unknown display mode")
		return
	}

	// Backend first: if the class change is rejected the screen keeps
	// its current mode.
	class := session.DeviceClass(display.ClassForMode(mode))
	if err := s.deps.Session.UpdateDeviceClass(r.Context(), class); err != nil {
		s.relayError(w, err)
		return
	}
	s.deps.Store.SetDisplayMode(mode)
	writeJSON(w, http.StatusOK, s.buildStatus())
}

// settingsPayload is the screen preference view. Theme and locale are
// stored verbatim for the render layer; this daemon never interprets
// them.
type settingsPayload struct {
	DisplayMode  display.Mode `json:"displayMode"`
	SoundEnabled bool         `json:"soundEnabled"`
	Theme        string       `json:"theme,omitempty"`
	Locale       string       `json:"locale,omitempty"`
}

func (s *Server) buildSettings(ctx context.Context) settingsPayload {
	p := settingsPayload{
		DisplayMode:  s.deps.Store.DisplayMode(),
		SoundEnabled: s.deps.Store.SoundEnabled(),
	}
	if s.deps.KV != nil {
		if v, err := s.deps.KV.Get(ctx, storage.KeyTheme); err == nil {
			p.Theme = v
		}
		if v, err := s.deps.KV.Get(ctx, storage.KeyLocale); err == nil {
			p.Locale = v
		}
	}
	return p
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.buildSettings(r.Context()))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SoundEnabled     *bool   `json:"soundEnabled"`
		ActiveCategoryID *string `json:"activeCategoryId"`
		Theme            *string `json:"theme"`
		Locale           *string `json:"locale"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.SoundEnabled != nil {
		s.deps.Store.SetSoundEnabled(*req.SoundEnabled)
	}
	if req.ActiveCategoryID != nil {
		s.deps.Store.SetActiveCategory(*req.ActiveCategoryID)
	}
	if s.deps.KV != nil {
		if req.Theme != nil {
			if err := s.deps.KV.Set(r.Context(), storage.KeyTheme, *req.Theme); err != nil {
				writeInternalError(w, "persisting theme")
				return
			}
		}
		if req.Locale != nil {
			if err := s.deps.KV.Set(r.Context(), storage.KeyLocale, *req.Locale); err != nil {
				writeInternalError(w, "persisting locale")
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, s.buildSettings(r.Context()))
}

// handlePairing serves the approval screen: the code an operator types
// into the admin panel to verify this device.
func (s *Server) handlePairing(w http.ResponseWriter, _ *http.Request) {
	snap := s.deps.Session.Snapshot()
	if snap.Status != session.StatusPending {
		writeError(w, http.StatusConflict, ErrCodeConflict, "device is not awaiting verification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"deviceId":         snap.DeviceID,
		"deviceName":       snap.DeviceName,
		"verificationCode": snap.VerificationCode,
		"pairingUrl":       s.pairingURL(snap.VerificationCode),
	})
}

// pairingURL builds the web address a second device can open to
// complete verification. The verify page lives next to the API root,
// not under it.
func (s *Server) pairingURL(code string) string {
	base := strings.TrimSuffix(s.deps.Config.Backend.BaseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	return base + "/verify/" + code
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Refresh != nil {
		s.deps.Refresh.RefreshNow()
		s.deps.Refresh.RefreshCatalog()
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.Logout(r.Context()); err != nil {
		s.relayError(w, err)
		return
	}
	s.deps.Store.Reset()
	writeJSON(w, http.StatusOK, s.buildStatus())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.ClearDevice(r.Context()); err != nil {
		s.relayError(w, err)
		return
	}
	s.deps.Store.Reset()
	writeJSON(w, http.StatusOK, s.buildStatus())
}

func (s *Server) handleItemReady(w http.ResponseWriter, r *http.Request) {
	s.publishItemIntent(w, r, false)
}

func (s *Server) handleItemDeliver(w http.ResponseWriter, r *http.Request) {
	s.publishItemIntent(w, r, true)
}

func (s *Server) publishItemIntent(w http.ResponseWriter, r *http.Request, deliver bool) {
	if s.deps.Realtime == nil {
		writeError(w, http.StatusConflict, ErrCodeConflict, "realtime channel not available")
		return
	}
	publish := s.deps.Realtime.MarkItemReady
	if deliver {
		publish = s.deps.Realtime.MarkItemDelivered
	}
	orderID := chi.URLParam(r, "orderID")
	itemID := chi.URLParam(r, "itemID")
	if orderID == "" || itemID == "" {
		writeBadRequest(w, "orderID and itemID are required")
		return
	}

	if err := publish(orderID, itemID); err != nil {
		if errors.Is(err, realtime.ErrNotConnected) {
			writeError(w, http.StatusConflict, ErrCodeConflict, "display channel not connected")
			return
		}
		writeInternalError(w, err.Error())
		return
	}
	// Accepted, not applied: the change lands when the backend echoes
	// it on the display feed.
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Journal == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []any{}})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeBadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.deps.Journal.Recent(r.Context(), limit)
	if err != nil {
		writeInternalError(w, "reading sync history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	payload := map[string]any{
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
		"alloc_bytes":    mem.Alloc,
		"sys_bytes":      mem.Sys,
		"gc_runs":        mem.NumGC,
		"pending_items":  s.deps.Store.PendingItemCount(),
		"orders":         len(s.deps.Store.Orders()),
		"ready_orders":   len(s.deps.Store.ReadyOrders()),
		"last_sync":      s.deps.Store.LastSync(),
	}
	if s.deps.DB != nil {
		stats := s.deps.DB.Stats()
		payload["db_open_connections"] = stats.OpenConnections
		payload["db_in_use"] = stats.InUse
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r, s.BuildState())
}

// relayError maps backend failures onto UI responses. Backend
// rejections keep their message; transport failures become 502.
func (s *Server) relayError(w http.ResponseWriter, err error) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			writeError(w, apiErr.StatusCode, ErrCodeUpstream, apiErr.Message)
			return
		}
		writeUpstreamError(w, apiErr.Message)
		return
	}
	writeInternalError(w, err.Error())
}
