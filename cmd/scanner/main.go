// DoorDrop Scanner - parcel drop-box access agent
//
// This is the main entry point for the scanner agent. The agent relays
// scanned barcodes to an MQTT broker, shows the authorization decision it
// receives back on an LED indicator, and publishes a periodic heartbeat
// describing its link health.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/doordrop-scanner/internal/authz"
	"github.com/nerrad567/doordrop-scanner/internal/diaglog"
	"github.com/nerrad567/doordrop-scanner/internal/heartbeat"
	"github.com/nerrad567/doordrop-scanner/internal/indicator"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/clock"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/config"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/influxdb"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/logging"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/mqtt"
	"github.com/nerrad567/doordrop-scanner/internal/infrastructure/netif"
	"github.com/nerrad567/doordrop-scanner/internal/link"
	"github.com/nerrad567/doordrop-scanner/internal/scanner"
	"github.com/nerrad567/doordrop-scanner/internal/supervisor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// stdinDevice selects standard input as the scanner device.
const stdinDevice = "-"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing a start-up failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting DoorDrop scanner",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version, cfg.Device.ID)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	diag := diaglog.New(cfg.Diagnostics.Capacity)
	diag.SetLogger(log.With("component", "diaglog"))

	// Indicator: frames are logged on hosts without LED hardware
	strip := indicator.NewLogStrip(cfg.Indicator.Pixels, indicator.ParseChannelOrder(cfg.Indicator.ChannelOrder), log.With("component", "indicator"))
	ind := indicator.NewDriver(strip, cfg.GetSettleDelay())
	ind.SetLogger(log.With("component", "indicator"))

	// Broker session
	mqttClient := mqtt.New(cfg.MQTT)
	mqttClient.SetLogger(log.With("component", "mqtt"))
	manager := link.NewManager(link.ConfigFromMQTT(cfg.MQTT), mqttClient, diag)
	manager.SetLogger(log.With("component", "link"))
	policy := link.PolicyFromConfig(cfg)

	tracker := authz.NewTracker(cfg.MQTT.Topics.Status, ind, diag, authz.ColorsFromConfig(cfg.Indicator))
	tracker.SetLogger(log.With("component", "authz"))
	manager.SetMessageHandler(tracker.HandleMessage)

	// Time and network collaborators
	clk := clock.New(clock.Options{
		Servers:        cfg.Time.NTPServers,
		UTCOffset:      cfg.GetUTCOffset(),
		ResyncInterval: cfg.GetResyncInterval(),
		QueryTimeout:   cfg.GetQueryTimeout(),
	})
	clk.SetLogger(log.With("component", "clock"))
	network := netif.New(cfg.Network.Interface)

	hb := heartbeat.NewPublisher(heartbeat.Options{
		Topic:    cfg.MQTT.Topics.State,
		Interval: cfg.GetHeartbeatInterval(),
	}, clk, network, manager, diag)
	hb.SetLogger(log.With("component", "heartbeat"))
	manager.SetOnConnect(hb.PublishNow)

	loop := supervisor.New(supervisor.Components{
		Link:      manager,
		Policy:    policy,
		Indicator: ind,
		Clock:     clk,
		Network:   network,
		Heartbeat: hb,
		Diag:      diag,
	}, supervisor.Options{
		TickInterval: cfg.GetTickInterval(),
		PublishTopic: cfg.MQTT.Topics.Publish,
	})
	loop.SetLogger(log.With("component", "supervisor"))

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, cfg.Device.ID)
		if influxErr != nil {
			log.Warn("InfluxDB unavailable, telemetry disabled", "error", influxErr)
		} else {
			defer func() {
				log.Info("closing InfluxDB connection")
				if closeErr := influxClient.Close(); closeErr != nil {
					log.Error("error closing InfluxDB", "error", closeErr)
				}
			}()
			influxClient.SetOnError(func(err error) {
				log.Error("InfluxDB write error", "error", err)
			})
			hb.SetRecorder(influxClient)
			loop.SetScanRecorder(influxClient)
			loop.SetSinkHealth(influxClient, cfg.GetInfluxHealthInterval())
			log.Info("InfluxDB connected",
				"url", cfg.InfluxDB.URL,
				"org", cfg.InfluxDB.Org,
				"bucket", cfg.InfluxDB.Bucket,
			)
		}
	} else {
		log.Info("InfluxDB disabled")
	}

	// Scanner input (optional)
	if cfg.Scanner.Enabled {
		src, openErr := openScanner(cfg.Scanner.Device)
		if openErr != nil {
			return fmt.Errorf("opening scanner: %w", openErr)
		}
		defer func() {
			if closeErr := src.Close(); closeErr != nil {
				log.Error("error closing scanner", "error", closeErr)
			}
		}()

		reader := scanner.New(src, cfg.Scanner.MaxCodeLength)
		reader.SetLogger(log.With("component", "scanner"))
		go func() {
			if readErr := reader.Run(ctx); readErr != nil {
				log.Error("scanner read failed", "error", readErr)
			}
		}()
		loop.SetScanSource(reader.Codes())
		log.Info("scanner input started", "device", cfg.Scanner.Device)
	} else {
		log.Info("scanner input disabled")
	}

	log.Info("initialisation complete",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"reconnect_policy", policy.Name(),
	)

	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	log.Info("DoorDrop scanner stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SCANNER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SCANNER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openScanner opens the scanner device, or standard input for "-".
func openScanner(device string) (io.ReadCloser, error) {
	if device == stdinDevice {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return f, nil
}
