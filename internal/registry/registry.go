package registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/location-agent/internal/config"
	"github.com/benmeehan/location-agent/internal/services"
	"github.com/benmeehan/location-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Service is the interface for all plug-in services
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of the agent's background services.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes an empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Len returns the number of registered services.
func (sr *ServiceRegistry) Len() int {
	return len(sr.serviceKeys)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices registers the services enabled in cfg.
func (sr *ServiceRegistry) RegisterServices(cfg *config.Config, resolver services.LocationResolver, mqttClient mqtt.MQTTClient) error {
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (Service, error)
	}{
		{
			name:    "location",
			enabled: cfg.Services.Location.Enabled,
			constructor: func() (Service, error) {
				if mqttClient == nil {
					return nil, errors.New("location service requires an MQTT client")
				}
				return services.NewLocationService(
					cfg.Services.Location.Topic,
					cfg.Services.Location.Interval,
					cfg.Services.Location.QOS,
					cfg.MQTT.ClientID,
					cfg.Location.CacheMaxAge,
					resolver,
					mqttClient,
					sr.Logger,
				), nil
			},
		},
	}

	for _, def := range servicesInOrder {
		if !def.enabled {
			sr.Logger.Debug().Msgf("%s service disabled", def.name)
			continue
		}
		svc, err := def.constructor()
		if err != nil {
			return fmt.Errorf("failed to create %s service: %w", def.name, err)
		}
		sr.RegisterService(def.name, svc)
	}
	return nil
}
