package mqtt

import "fmt"

// TopicPrefix is the base of the backend's broker topic hierarchy.
// All device and display traffic lives under it:
//
//	openeos/presence/{client_id}                     retained presence
//	openeos/device/{device_id}/message               direct messages
//	openeos/org/{org_id}/broadcast                   operator announcements
//	openeos/display/{org_id}/{event_id}/join         channel join announcements
//	openeos/display/{org_id}/{event_id}/{kind}/...   display feed events
//	openeos/commands/...                             device-originated intents
const TopicPrefix = "openeos"

// Topics provides builders for broker topics. Using these helpers keeps
// topic naming consistent between subscriptions and publishes.
type Topics struct{}

// Presence returns the retained presence topic for a client.
//
// Example: openeos/presence/tvdisplay-d1-device
func (Topics) Presence(clientID string) string {
	return fmt.Sprintf("%s/presence/%s", TopicPrefix, clientID)
}

// DeviceInbox returns the direct-message topic for a device. The
// backend uses it for targeted pushes: forced refreshes, broadcast
// overrides, block notices.
//
// Example: openeos/device/d1/message
func (Topics) DeviceInbox(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/message", TopicPrefix, deviceID)
}

// OrgBroadcast returns the announcement topic for an organization.
//
// Example: openeos/org/org1/broadcast
func (Topics) OrgBroadcast(orgID string) string {
	return fmt.Sprintf("%s/org/%s/broadcast", TopicPrefix, orgID)
}

// DisplayJoin returns the topic a screen announces itself on when it
// attaches to an event's display feed.
//
// Example: openeos/display/org1/e1/join
func (Topics) DisplayJoin(orgID, eventID string) string {
	return fmt.Sprintf("%s/display/%s/%s/join", TopicPrefix, orgID, eventID)
}

// DisplayFeed returns the wildcard subscription covering every event on
// an event's display feed.
//
// Example: openeos/display/org1/e1/#
func (Topics) DisplayFeed(orgID, eventID string) string {
	return fmt.Sprintf("%s/display/%s/%s/#", TopicPrefix, orgID, eventID)
}

// DisplayFeedRoot returns the non-wildcard root of an event's display
// feed. Handlers strip it from incoming topics to recover the event
// name.
func (Topics) DisplayFeedRoot(orgID, eventID string) string {
	return fmt.Sprintf("%s/display/%s/%s/", TopicPrefix, orgID, eventID)
}

// ItemCommand returns the topic for device-originated item intents.
//
// Example: openeos/commands/orders/o1/items/i1/ready
func (Topics) ItemCommand(orderID, itemID, action string) string {
	return fmt.Sprintf("%s/commands/orders/%s/items/%s/%s", TopicPrefix, orderID, itemID, action)
}
