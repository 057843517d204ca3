package heartbeat

import (
	"time"

	"github.com/goccy/go-json"
)

// TimeLayout is the heartbeat timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Link and session status values.
const (
	StatusConnected    = "Connected"
	StatusDisconnected = "Disconnected"
)

// Payload is one heartbeat. It is built fresh for every emission and never
// kept afterwards. Field order is the wire key order.
type Payload struct {
	Time       string `json:"time"`
	WiFiStatus string `json:"wifi_status"`
	MQTTStatus string `json:"mqtt_status"`
	IPAddress  string `json:"ip_address"`
}

// NewPayload assembles a heartbeat from the observed state.
func NewPayload(at time.Time, linkUp, brokerUp bool, address string) Payload {
	return Payload{
		Time:       at.Format(TimeLayout),
		WiFiStatus: status(linkUp),
		MQTTStatus: status(brokerUp),
		IPAddress:  address,
	}
}

// Marshal encodes the payload as a JSON object.
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func status(up bool) string {
	if up {
		return StatusConnected
	}
	return StatusDisconnected
}
