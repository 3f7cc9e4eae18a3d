package main

import (
	"context"
	"flag"
	"hue-bridge-integration/internal/adapters/input/http"
	"hue-bridge-integration/internal/adapters/input/legacy"
	"hue-bridge-integration/internal/adapters/output/homeassistant"
	"hue-bridge-integration/internal/adapters/output/huebridge"
	"hue-bridge-integration/internal/adapters/output/mqtt"
	"hue-bridge-integration/internal/adapters/output/notify"
	"hue-bridge-integration/internal/adapters/output/persistence"
	"hue-bridge-integration/internal/config"
	"hue-bridge-integration/internal/domain/model"
	"hue-bridge-integration/internal/domain/service"
	"hue-bridge-integration/internal/logging"
	"log"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	configPath := flag.String("config", os.Getenv("HUE_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging, version)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence
	entries := persistence.NewJSONEntryStore(cfg.Storage.EntriesPath)
	devices, err := persistence.OpenDeviceRegistry(cfg.Storage.DevicesPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.DevicesPath).Msg("Failed to open device registry")
	}
	defer devices.Close()

	// Notifications
	notifications := notify.NewStore()
	fanout := notify.NewFanout(logging.WithComponent(logger, "notify"), notifications)

	haClient := homeassistant.NewClient()
	haClient.Configure(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token)
	if haClient.IsConfigured() {
		fanout.Add(haClient)
	}

	if cfg.MQTT.Enabled {
		publisher, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			logger.Fatal().Err(err).Str("broker", cfg.MQTT.Broker).Msg("Failed to connect to MQTT broker")
		}
		defer publisher.Close()
		fanout.Add(publisher)
	}

	// Bridges
	connector := huebridge.NewConnector(cfg.Bridge.Timeout, logger)
	linker := huebridge.NewLinker(cfg.Bridge.DeviceType, cfg.Bridge.Timeout)

	flows := service.NewFlowManager(entries, linker, logger)
	bridgeService := service.NewBridgeService(
		entries,
		devices,
		fanout,
		flows,
		connector,
		model.Defaults{
			AllowUnreachable: cfg.Defaults.AllowUnreachable,
			AllowHueGroups:   cfg.Defaults.AllowHueGroups,
		},
		logger,
	)
	flows.OnEntryCreated(bridgeService.HandleEntryCreated)

	legacyConfig, err := legacy.LoadFile(cfg.Legacy.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Legacy.Path).Msg("Invalid legacy configuration")
	}
	if err := bridgeService.Setup(ctx, legacyConfig); err != nil {
		logger.Fatal().Err(err).Msg("Failed to import legacy configuration")
	}
	if err := bridgeService.SetupAll(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to set up stored entries")
	}

	// started after SetupAll so imported entries are only set up by their flow
	flowsDone := make(chan struct{})
	go func() {
		defer close(flowsDone)
		if err := flows.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Flow worker stopped")
		}
	}()

	logger.Info().Str("version", version).Int("pending_flows", flows.Pending()).Msg("Hue bridge integration started")

	httpServer := http.NewServer(bridgeService, devices, notifications, fanout, logger)
	if err := httpServer.ListenAndServe(ctx, cfg.HTTP.Listen); err != nil {
		logger.Error().Err(err).Msg("HTTP server error")
	}

	stop()
	<-flowsDone

	if !bridgeService.Stop(context.Background()) {
		logger.Warn().Msg("Some bridges did not reset cleanly")
	}
	logger.Info().Msg("Hue bridge integration stopped")
}
