// Package apiclient is the HTTP client for the point-of-sale backend's
// device API.
//
// Every call authenticates with the device token in the X-Device-Token
// header. Failures are reported as *APIError with a uniform taxonomy:
// backend rejections carry the HTTP status and the body's error code,
// transport failures carry NETWORK_ERROR with status 0, and requests
// that never reached the wire carry REQUEST_ERROR.
//
// Collection endpoints unwrap the backend's {"data": [...]} envelope;
// object endpoints decode the body directly.
package apiclient
