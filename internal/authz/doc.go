// Package authz tracks the authorization decision asserted by the remote
// side over MQTT and mirrors it on the indicator.
package authz
