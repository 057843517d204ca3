package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Reconnect policy names accepted in mqtt.reconnect.policy.
const (
	PolicyBlocking    = "blocking"
	PolicyNonBlocking = "non_blocking"
)

// Config is the root configuration structure for the scanner agent.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Heartbeat   HeartbeatConfig   `yaml:"heartbeat"`
	Time        TimeConfig        `yaml:"time"`
	Network     NetworkConfig     `yaml:"network"`
	Indicator   IndicatorConfig   `yaml:"indicator"`
	Scanner     ScannerConfig     `yaml:"scanner"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Supervisor  SupervisorConfig  `yaml:"supervisor"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DeviceConfig identifies this scanner.
type DeviceConfig struct {
	ID string `yaml:"id"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// ClientIDPrefix is combined with a random suffix on every connect
	// attempt so restarts never collide with a stale session.
	ClientIDPrefix string `yaml:"client_id_prefix"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTTopicsConfig names the three topics the agent uses.
type MQTTTopicsConfig struct {
	// Publish carries scanned barcodes to the broker.
	Publish string `yaml:"publish"`

	// Status carries authorization decisions from the broker.
	Status string `yaml:"status"`

	// State carries this device's heartbeat.
	State string `yaml:"state"`
}

// MQTTReconnectConfig selects how the supervisor recovers a lost session.
type MQTTReconnectConfig struct {
	// Policy is "non_blocking" (one attempt per tick) or "blocking"
	// (retry with a fixed delay until connected).
	Policy string `yaml:"policy"`

	// Delay between blocking attempts, in seconds.
	Delay int `yaml:"delay"`
}

// HeartbeatConfig contains heartbeat publishing settings.
type HeartbeatConfig struct {
	// Interval between heartbeats, in seconds.
	Interval int `yaml:"interval"`
}

// TimeConfig contains network time settings.
type TimeConfig struct {
	NTPServers []string `yaml:"ntp_servers"`

	// UTCOffset is added to UTC when formatting timestamps, in seconds.
	UTCOffset int `yaml:"utc_offset"`

	// ResyncInterval between successful synchronisations, in seconds.
	ResyncInterval int `yaml:"resync_interval"`

	// QueryTimeout per NTP server, in seconds.
	QueryTimeout int `yaml:"query_timeout"`
}

// NetworkConfig selects the interface reported in heartbeats.
type NetworkConfig struct {
	// Interface name (e.g. "wlan0"). Empty selects the first non-loopback interface.
	Interface string `yaml:"interface"`
}

// IndicatorConfig contains LED strip settings.
type IndicatorConfig struct {
	Pixels int `yaml:"pixels"`

	// SettleMS is the pause between the reset and set commits, in milliseconds.
	SettleMS int `yaml:"settle_ms"`

	// ChannelOrder is the strip's byte order: "rgb" or "grb".
	ChannelOrder string `yaml:"channel_order"`

	// AuthorizedColor and UnauthorizedColor are "red" or "green" and must
	// differ. White always means no decision yet.
	AuthorizedColor   string `yaml:"authorized_color"`
	UnauthorizedColor string `yaml:"unauthorized_color"`
}

// ScannerConfig contains barcode scanner input settings.
type ScannerConfig struct {
	Enabled bool `yaml:"enabled"`

	// Device is the line-oriented scanner device path, or "-" for stdin.
	Device string `yaml:"device"`

	MaxCodeLength int `yaml:"max_code_length"`
}

// DiagnosticsConfig sizes the in-memory diagnostic log.
type DiagnosticsConfig struct {
	Capacity int `yaml:"capacity"`
}

// SupervisorConfig contains main loop settings.
type SupervisorConfig struct {
	TickIntervalMS int `yaml:"tick_interval_ms"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`

	// HealthInterval is the period between sink pings, in seconds.
	// Points are dropped while the sink fails its ping.
	HealthInterval int `yaml:"health_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SCANNER_SECTION_KEY
// For example: SCANNER_MQTT_HOST, SCANNER_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID: "doordrop-scanner",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:           "localhost",
				Port:           1883,
				ClientIDPrefix: "doordrop-scanner",
			},
			QoS: 0,
			Topics: MQTTTopicsConfig{
				Publish: "doordrop/scan",
				Status:  "doordrop/status",
				State:   "doordrop/state",
			},
			Reconnect: MQTTReconnectConfig{
				Policy: PolicyNonBlocking,
				Delay:  5,
			},
		},
		Heartbeat: HeartbeatConfig{
			Interval: 60,
		},
		Time: TimeConfig{
			NTPServers:     []string{"pool.ntp.org", "time.google.com"},
			UTCOffset:      0,
			ResyncInterval: 3600,
			QueryTimeout:   5,
		},
		Indicator: IndicatorConfig{
			Pixels:            5,
			SettleMS:          100,
			ChannelOrder:      "grb",
			AuthorizedColor:   "green",
			UnauthorizedColor: "red",
		},
		Scanner: ScannerConfig{
			Enabled:       false,
			Device:        "-",
			MaxCodeLength: 64,
		},
		Diagnostics: DiagnosticsConfig{
			Capacity: 50,
		},
		Supervisor: SupervisorConfig{
			TickIntervalMS: 250,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:      20,
			FlushInterval:  10,
			HealthInterval: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SCANNER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("SCANNER_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SCANNER_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("SCANNER_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SCANNER_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SCANNER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Scanner and network
	if v := os.Getenv("SCANNER_SCANNER_DEVICE"); v != "" {
		cfg.Scanner.Device = v
	}
	if v := os.Getenv("SCANNER_NETWORK_INTERFACE"); v != "" {
		cfg.Network.Interface = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientIDPrefix == "" {
		errs = append(errs, "mqtt.broker.client_id_prefix is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topics.Publish == "" || c.MQTT.Topics.Status == "" || c.MQTT.Topics.State == "" {
		errs = append(errs, "mqtt.topics.publish, status and state are all required")
	}
	switch c.MQTT.Reconnect.Policy {
	case PolicyBlocking, PolicyNonBlocking:
	default:
		errs = append(errs, fmt.Sprintf("mqtt.reconnect.policy must be %q or %q", PolicyBlocking, PolicyNonBlocking))
	}
	if c.MQTT.Reconnect.Delay < 1 {
		errs = append(errs, "mqtt.reconnect.delay must be at least 1 second")
	}

	if c.Heartbeat.Interval < 1 {
		errs = append(errs, "heartbeat.interval must be at least 1 second")
	}

	// Indicator validation
	if c.Indicator.Pixels < 1 {
		errs = append(errs, "indicator.pixels must be at least 1")
	}
	if c.Indicator.SettleMS < 0 {
		errs = append(errs, "indicator.settle_ms cannot be negative")
	}
	switch strings.ToLower(c.Indicator.ChannelOrder) {
	case "rgb", "grb":
	default:
		errs = append(errs, "indicator.channel_order must be rgb or grb")
	}
	authorized := strings.ToLower(c.Indicator.AuthorizedColor)
	unauthorized := strings.ToLower(c.Indicator.UnauthorizedColor)
	if !isDecisionColor(authorized) {
		errs = append(errs, "indicator.authorized_color must be red or green")
	}
	if !isDecisionColor(unauthorized) {
		errs = append(errs, "indicator.unauthorized_color must be red or green")
	}
	if authorized == unauthorized {
		errs = append(errs, "indicator.authorized_color and indicator.unauthorized_color must differ")
	}

	if c.Scanner.Enabled && c.Scanner.Device == "" {
		errs = append(errs, "scanner.device is required when the scanner is enabled")
	}

	if c.Diagnostics.Capacity < 1 {
		errs = append(errs, "diagnostics.capacity must be at least 1")
	}
	if c.Supervisor.TickIntervalMS < 1 {
		errs = append(errs, "supervisor.tick_interval_ms must be at least 1")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.HealthInterval < 1 {
		errs = append(errs, "influxdb.health_interval must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// isDecisionColor reports whether name is usable for an authorization
// decision. White is reserved for the undecided state and off is invisible.
func isDecisionColor(name string) bool {
	return name == "red" || name == "green"
}

// GetReconnectDelay returns the blocking reconnect delay as a Duration.
func (c *Config) GetReconnectDelay() time.Duration {
	return time.Duration(c.MQTT.Reconnect.Delay) * time.Second
}

// GetHeartbeatInterval returns the heartbeat interval as a Duration.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat.Interval) * time.Second
}

// GetUTCOffset returns the timestamp offset from UTC as a Duration.
func (c *Config) GetUTCOffset() time.Duration {
	return time.Duration(c.Time.UTCOffset) * time.Second
}

// GetResyncInterval returns the NTP resync interval as a Duration.
func (c *Config) GetResyncInterval() time.Duration {
	return time.Duration(c.Time.ResyncInterval) * time.Second
}

// GetQueryTimeout returns the per-server NTP timeout as a Duration.
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.Time.QueryTimeout) * time.Second
}

// GetSettleDelay returns the indicator settle delay as a Duration.
func (c *Config) GetSettleDelay() time.Duration {
	return time.Duration(c.Indicator.SettleMS) * time.Millisecond
}

// GetInfluxHealthInterval returns the telemetry sink ping period as a Duration.
func (c *Config) GetInfluxHealthInterval() time.Duration {
	return time.Duration(c.InfluxDB.HealthInterval) * time.Second
}

// GetTickInterval returns the supervisor tick interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Supervisor.TickIntervalMS) * time.Millisecond
}
