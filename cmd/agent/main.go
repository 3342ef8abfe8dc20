package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/benmeehan/location-agent/internal/agent"
	"github.com/benmeehan/location-agent/internal/config"
	"github.com/benmeehan/location-agent/internal/registry"
	"github.com/benmeehan/location-agent/internal/services"
	"github.com/benmeehan/location-agent/pkg/file"
	"github.com/benmeehan/location-agent/pkg/location"
	"github.com/benmeehan/location-agent/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the agent configuration")
	target := flag.String("to", "", "print the distance from the current location to LAT,LNG")
	flag.Parse()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	cfg, err := config.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := agent.NewLogger(cfg, os.Stdout)

	resolver, err := agent.NewResolver(cfg, fileClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build location resolver")
	}

	ctx := context.Background()

	// One-shot lookup, same flow as the "use my location" action
	trigger := services.NewLocationTrigger(resolver, logger)
	_ = trigger.Trigger(ctx, func(loc location.Location) {
		if *target == "" {
			return
		}
		dest, err := parseCoordinate(*target)
		if err != nil {
			logger.Error().Err(err).Str("to", *target).Msg("Invalid target coordinate")
			return
		}
		km := resolver.DistanceBetween(loc.Coordinate(), dest)
		fmt.Println(resolver.FormatDistance(km))
	}, func(err error) {
		if cached, ok := resolver.LoadCached(cfg.Location.CacheMaxAge); ok {
			logger.Info().
				Float64("latitude", cached.Latitude).
				Float64("longitude", cached.Longitude).
				Int64("saved_at", cached.SavedAt).
				Msg("Using saved location")
		}
	})

	if !cfg.Services.Location.Enabled {
		return
	}

	// Generate a unique MQTT Client ID by appending a UUID
	cfg.MQTT.ClientID = cfg.MQTT.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", cfg.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient)
	if err := mqttClient.Initialize(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.CACertificate); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	serviceRegistry := registry.NewServiceRegistry(logger)
	if err := serviceRegistry.RegisterServices(cfg, resolver, mqttClient); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop services cleanly")
	}
	mqttClient.Disconnect(250)
}

func parseCoordinate(s string) (location.Coordinate, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return location.Coordinate{}, fmt.Errorf("expected LAT,LNG")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return location.Coordinate{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return location.Coordinate{}, fmt.Errorf("invalid longitude: %w", err)
	}
	c := location.Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return location.Coordinate{}, fmt.Errorf("coordinate out of range")
	}
	return c, nil
}

