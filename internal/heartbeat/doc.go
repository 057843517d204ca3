// Package heartbeat publishes the scanner's periodic health report.
//
// Each heartbeat is a JSON object on the state topic:
//
//	{"time":"2026-03-01 09:30:00","wifi_status":"Connected","mqtt_status":"Connected","ip_address":"192.168.1.40"}
//
// Timestamps come from the network-synchronised clock; before the first
// sync they read as the Unix epoch rather than failing. Status values are
// "Connected" or "Disconnected".
package heartbeat
