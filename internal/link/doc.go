// Package link manages the scanner's session with the MQTT broker.
//
// The Manager owns the Connection State (Disconnected, Connecting,
// Connected). Every Connect is a single attempt with a freshly generated
// client ID; on success the manager subscribes to the status topic and
// fires the on-connect hook, which publishes an immediate heartbeat.
//
// How a lost session is restored is a ReconnectPolicy chosen at start-up:
//
//   - NonBlocking: one attempt per supervisor tick, so the indicator and
//     the scan relay keep running during an outage (default).
//   - Blocking: retry with a fixed delay until connected, suspending the
//     supervisor meanwhile.
//
// Publish and Subscribe never retry. Their failures, like connect
// failures, are appended to the diagnostic log and returned.
//
// Usage:
//
//	mgr := link.NewManager(link.ConfigFromMQTT(cfg.MQTT), mqttClient, diag)
//	mgr.SetOnConnect(hb.PublishNow)
//	policy := link.PolicyFromConfig(cfg)
//	if !mgr.CheckLiveness() {
//	    _ = policy.Reconnect(ctx, mgr)
//	}
package link
