// Package mqtt provides the broker transport for the scanner agent.
//
// This package manages:
//   - Single-attempt connections with a caller-supplied client ID
//   - Message publishing at the configured QoS
//   - Topic subscriptions
//   - A bounded inbound queue drained by ServiceTraffic
//   - Connection health monitoring
//
// # Architecture
//
// paho runs its network I/O on background goroutines. This package keeps
// those goroutines away from application state: subscription callbacks
// only enqueue, and the supervisor loop pulls messages out with
// ServiceTraffic once per tick, so message handlers run on one goroutine.
//
//	Broker ↔ paho goroutines → inbound queue → ServiceTraffic → handler
//
// Automatic reconnection is disabled. Reconnect timing belongs to the
// caller (see package link), which generates a fresh client ID per attempt.
//
// # Security Considerations
//
//   - TLS is available via cfg.Broker.TLS
//   - Credentials are validated against broker ACL
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client := mqtt.New(cfg.MQTT)
//	client.SetMessageHandler(func(topic string, payload []byte) error {
//	    log.Printf("Received: %s = %s", topic, payload)
//	    return nil
//	})
//	if err := client.Connect("scanner-1a2b3c4d", user, pass); err != nil {
//	    log.Print(err) // mqtt: connection failed: rc=5: not Authorized
//	}
//	defer client.Close()
//
//	client.Subscribe("doordrop/status")
//	for range ticker.C {
//	    client.ServiceTraffic()
//	}
package mqtt
