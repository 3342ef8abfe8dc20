package config

import (
	"fmt"
	"time"

	"github.com/benmeehan/location-agent/pkg/file"
)

// Provider kinds accepted in location.provider.
const (
	ProviderNone   = "none"
	ProviderSensor = "sensor"
	ProviderGoogle = "google"
	ProviderStatic = "static"
)

// Config represents the structure of the configuration file.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`  // zerolog level name
		Pretty bool   `yaml:"pretty"` // Human readable console output instead of JSON
	} `yaml:"log"`

	MQTT struct {
		Enabled       bool   `yaml:"enabled"`        // Connect to a broker at all
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate
	} `yaml:"mqtt"`

	Location struct {
		Provider          string        `yaml:"provider"`         // none, sensor, google or static
		MapsAPIKey        string        `yaml:"maps_api_key"`     // Google maps API Key
		ModemIndex        int           `yaml:"modem_index"`      // ModemManager index for cell tower scans
		GPSDevicePort     string        `yaml:"gps_device_port"`  // UNIX Port where the GPS sensor is mounted
		GPSDeviceBaudRate int           `yaml:"gps_baud_rate"`    // The Baud rate for GPS sensor
		StaticLatitude    float64       `yaml:"static_latitude"`  // Fixed position for the static provider
		StaticLongitude   float64       `yaml:"static_longitude"` // Fixed position for the static provider
		StaticAccuracy    float64       `yaml:"static_accuracy"`  // Reported accuracy in meters for the static provider
		CacheMaxAge       time.Duration `yaml:"cache_max_age"`    // Oldest persisted location still served

		Network struct {
			BaseURL   string        `yaml:"base_url"`   // Location-by-address service root
			Timeout   time.Duration `yaml:"timeout"`    // HTTP client timeout
			UseGoogle bool          `yaml:"use_google"` // Resolve through the Geolocation API instead of base_url
		} `yaml:"network"`
	} `yaml:"location"`

	Storage struct {
		Backend string `yaml:"backend"` // memory, file or sqlite
		Path    string `yaml:"path"`    // File or database path for persistent backends
	} `yaml:"storage"`

	Services struct {
		Location struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for location service
			Enabled  bool          `yaml:"enabled"`  // Enable/disable location service
			Interval time.Duration `yaml:"interval"` // Interval between geo-location messages
			QOS      int           `yaml:"qos"`      // MQTT QoS level for location messages
		} `yaml:"location_service"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file and fills in defaults.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	var config Config
	if exists {
		if err := fileClient.ReadYamlFile(filename, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Location.Provider == "" {
		c.Location.Provider = ProviderNone
	}
	if c.Location.GPSDeviceBaudRate == 0 {
		c.Location.GPSDeviceBaudRate = 9600
	}
	if c.Location.CacheMaxAge == 0 {
		c.Location.CacheMaxAge = time.Hour
	}
	if c.Location.Network.Timeout == 0 {
		c.Location.Network.Timeout = 10 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "location-agent"
	}
	if c.Services.Location.Interval == 0 {
		c.Services.Location.Interval = time.Minute
	}
	if c.Services.Location.Topic == "" {
		c.Services.Location.Topic = "location"
	}
}

// Validate checks the settings each enabled component depends on.
func (c *Config) Validate() error {
	switch c.Location.Provider {
	case ProviderNone, ProviderStatic:
	case ProviderSensor:
		if c.Location.GPSDevicePort == "" {
			return fmt.Errorf("location.gps_device_port is required for the %s provider", ProviderSensor)
		}
	case ProviderGoogle:
		if c.Location.MapsAPIKey == "" {
			return fmt.Errorf("location.maps_api_key is required for the %s provider", ProviderGoogle)
		}
	default:
		return fmt.Errorf("unknown location provider %q", c.Location.Provider)
	}

	if c.Location.Network.UseGoogle && c.Location.MapsAPIKey == "" {
		return fmt.Errorf("location.maps_api_key is required when location.network.use_google is set")
	}

	if c.Services.Location.Enabled {
		if !c.MQTT.Enabled || c.MQTT.Broker == "" {
			return fmt.Errorf("location_service requires mqtt.enabled and mqtt.broker")
		}
		if c.Services.Location.QOS < 0 || c.Services.Location.QOS > 2 {
			return fmt.Errorf("services.location_service.qos must be 0, 1 or 2")
		}
	}
	return nil
}
