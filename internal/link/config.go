package link

import (
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
)

// Topics names the three channels the device uses.
type Topics struct {
	Publish string
	Status  string
	State   string
}

// Config is the connection configuration. It is set once at construction
// and never mutated; re-initialisation builds a new Manager.
type Config struct {
	ClientIDPrefix string
	Username       string
	Password       string
	Topics         Topics
}

// ConfigFromMQTT extracts the connection configuration from the loaded
// MQTT settings.
func ConfigFromMQTT(cfg config.MQTTConfig) Config {
	return Config{
		ClientIDPrefix: cfg.Broker.ClientIDPrefix,
		Username:       cfg.Auth.Username,
		Password:       cfg.Auth.Password,
		Topics: Topics{
			Publish: cfg.Topics.Publish,
			Status:  cfg.Topics.Status,
			State:   cfg.Topics.State,
		},
	}
}

// NewClientID returns prefix plus a random 8 hex character suffix, so
// consecutive attempts and restarts never reuse an identifier.
func NewClientID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return prefix + "-" + suffix
}
