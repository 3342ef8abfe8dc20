package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/location-agent/internal/models"
	"github.com/benmeehan/location-agent/pkg/location"
	"github.com/benmeehan/location-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Sources reported in published location messages.
const (
	SourceDevice  = "device"
	SourceCache   = "cache"
	SourceNetwork = "network"
)

// LocationService periodically resolves the current location and publishes it to an MQTT broker.
// When acquisition fails it falls back to the persisted location and then to the network lookup.
type LocationService struct {
	// Configuration fields
	topic       string
	interval    time.Duration
	qos         int
	clientID    string
	cacheMaxAge time.Duration

	// Dependencies
	trigger    *LocationTrigger
	resolver   LocationResolver
	mqttClient mqtt.MQTTClient
	logger     zerolog.Logger

	// Internal state management
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLocationService creates a new LocationService instance with the provided configuration.
func NewLocationService(topic string, interval time.Duration, qos int, clientID string, cacheMaxAge time.Duration,
	resolver LocationResolver, mqttClient mqtt.MQTTClient, logger zerolog.Logger) *LocationService {
	return &LocationService{
		topic:       topic,
		interval:    interval,
		qos:         qos,
		clientID:    clientID,
		cacheMaxAge: cacheMaxAge,
		trigger:     NewLocationTrigger(resolver, logger),
		resolver:    resolver,
		mqttClient:  mqttClient,
		logger:      logger,
	}
}

// Start initiates the LocationService, periodically publishing location data to the MQTT broker.
func (l *LocationService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx != nil {
		l.logger.Warn().Msg("LocationService is already running")
		return errors.New("location service is already running")
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())

	l.wg.Add(1)
	go func(ctx context.Context) {
		defer l.wg.Done()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := l.publishCurrentLocation(ctx); err != nil {
					l.logger.Error().
						Err(err).
						Msg("Failed to publish current location")
				}
			case <-ctx.Done():
				l.logger.Info().Msg("LocationService is stopping")
				return
			}
		}
	}(l.ctx)

	l.logger.Info().
		Str("topic", l.topic).
		Dur("interval_ms", l.interval).
		Int("qos", l.qos).
		Msg("LocationService started")
	return nil
}

// Stop gracefully stops the LocationService, ensuring all goroutines are terminated.
func (l *LocationService) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ctx == nil {
		l.logger.Warn().Msg("LocationService is not running")
		return errors.New("location service is not running")
	}

	// Signal cancellation and wait for the goroutine to exit
	l.cancel()
	l.wg.Wait()

	l.ctx = nil
	l.cancel = nil

	l.logger.Info().Msg("LocationService stopped")
	return nil
}

// publishCurrentLocation resolves the best available location and publishes it to the MQTT broker.
func (l *LocationService) publishCurrentLocation(ctx context.Context) error {
	message, err := l.resolve(ctx)
	if err != nil {
		return err
	}

	// Serialize the location message to JSON
	payload, err := json.Marshal(message)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to serialize location message")
		return err
	}

	// Publish the location message to the MQTT topic
	token := l.mqttClient.Publish(l.topic, byte(l.qos), false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		l.logger.Error().
			Err(err).
			Str("topic", l.topic).
			Msg("Failed to publish location message to MQTT")
		return err
	}

	l.logger.Info().
		Interface("message", message).
		Str("topic", l.topic).
		Msg("Location published successfully")
	return nil
}

// resolve tries a fresh fix, then the persisted location, then the network lookup.
func (l *LocationService) resolve(ctx context.Context) (models.Location, error) {
	var fix location.Location
	acquireErr := l.trigger.Trigger(ctx, func(loc location.Location) { fix = loc }, nil)
	if acquireErr == nil {
		return l.message(fix.Latitude, fix.Longitude, fix.Accuracy, time.UnixMilli(fix.Timestamp), SourceDevice), nil
	}

	if cached, ok := l.resolver.LoadCached(l.cacheMaxAge); ok {
		l.logger.Debug().Int64("saved_at", cached.SavedAt).Msg("Using persisted location")
		return l.message(cached.Latitude, cached.Longitude, cached.Accuracy, time.UnixMilli(cached.Timestamp), SourceCache), nil
	}

	netLoc, err := l.resolver.ResolveLocationFromNetwork(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("IP location error")
		return models.Location{}, errors.Join(acquireErr, err)
	}

	l.logger.Info().Str("city", netLoc.City).Msg("Using network location")
	return l.message(netLoc.Latitude, netLoc.Longitude, 0, time.Now(), SourceNetwork), nil
}

func (l *LocationService) message(lat, lng, accuracy float64, ts time.Time, source string) models.Location {
	return models.Location{
		ClientID:  l.clientID,
		Timestamp: ts.UTC(),
		Latitude:  lat,
		Longitude: lng,
		Accuracy:  accuracy,
		Source:    source,
	}
}
