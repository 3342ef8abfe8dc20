package agent

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/benmeehan/location-agent/internal/config"
	"github.com/benmeehan/location-agent/pkg/file"
	"github.com/benmeehan/location-agent/pkg/location"
	"github.com/benmeehan/location-agent/pkg/storage"
	"github.com/rs/zerolog"
)

// NewLogger builds the process logger from the log section of the configuration.
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if cfg.Log.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// NewResolver wires a location.Resolver from the configuration: platform provider, permission
// subsystem, network fallback and persistence store.
func NewResolver(cfg *config.Config, fileClient file.FileOperations, logger zerolog.Logger) (*location.Resolver, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path, fileClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	opts := []location.Option{
		location.WithStore(store),
		location.WithLogger(logger.With().Str("component", "resolver").Logger()),
	}

	switch cfg.Location.Provider {
	case config.ProviderSensor:
		opts = append(opts,
			location.WithProvider(location.NewDeviceSensorProvider(cfg.Location.GPSDevicePort, cfg.Location.GPSDeviceBaudRate)),
			location.WithPermissionQuerier(location.NewSerialPortPermission(cfg.Location.GPSDevicePort)),
		)
	case config.ProviderGoogle:
		provider, err := location.NewGoogleGeolocationProvider(cfg.Location.MapsAPIKey, cfg.Location.ModemIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create google geolocation provider: %w", err)
		}
		opts = append(opts,
			location.WithProvider(provider),
			location.WithPermissionQuerier(location.StaticPermission(location.PermissionGranted)),
		)
	case config.ProviderStatic:
		opts = append(opts,
			location.WithProvider(location.NewStaticProvider(cfg.Location.StaticLatitude, cfg.Location.StaticLongitude, cfg.Location.StaticAccuracy)),
			location.WithPermissionQuerier(location.StaticPermission(location.PermissionGranted)),
		)
	}

	switch {
	case cfg.Location.Network.UseGoogle:
		locator, err := location.NewGoogleNetworkLocator(cfg.Location.MapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create google network locator: %w", err)
		}
		opts = append(opts, location.WithNetworkLocator(locator))
	case cfg.Location.Network.BaseURL != "":
		client := &http.Client{Timeout: cfg.Location.Network.Timeout}
		opts = append(opts, location.WithNetworkLocator(location.NewHTTPNetworkLocator(cfg.Location.Network.BaseURL, client)))
	}

	return location.NewResolver(opts...), nil
}
