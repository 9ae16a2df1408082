package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pawtrace/pet-receiver/internal/bridge"
	"github.com/pawtrace/pet-receiver/internal/config"
	"github.com/pawtrace/pet-receiver/internal/handlers"
	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/pubsub"
	"github.com/pawtrace/pet-receiver/internal/store"
)

var logger = configuredLogger.Logger

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Sugar().Fatalf("failed to load config: %v", err)
	}

	b, cleanup := buildBridge(cfg)
	defer cleanup()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	server := handlers.NewTcpServer(cfg.ListenAddr(), cfg.AuthCode, cfg.IdleTimeout, cfg.BindRetries,
		b, handlers.NewSessionRegistry(redisClient))
	if err := server.Start(); err != nil {
		logger.Sugar().Fatalf("failed to start tcp server: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	server.Stop()
}

func buildBridge(cfg *config.Config) (*bridge.Bridge, func()) {
	publisher := buildPublisher(cfg)

	if cfg.StoreBackend == "postgres" {
		pg, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			logger.Sugar().Fatalf("failed to open postgres store: %v", err)
		}
		return bridge.New(pg, publisher), publisher.Close
	}

	// Database-less mode: devices come from config, readings go to a
	// json-lines file.
	memory := store.NewMemoryStore()
	for _, seed := range cfg.Devices {
		device := &store.Device{DeviceID: seed.DeviceID, Name: seed.Name, IMEI: seed.IMEI, IsActive: true}
		if err := memory.SaveDevice(device); err != nil {
			logger.Sugar().Fatalf("failed to seed device %s: %v", seed.DeviceID, err)
		}
	}
	logger.Sugar().Infof("seeded %d devices from config", len(cfg.Devices))

	readings, err := store.NewJsonLinesStore(cfg.ReadingsPath)
	if err != nil {
		logger.Sugar().Fatalf("failed to open readings file %s: %v", cfg.ReadingsPath, err)
	}
	go readings.Process()
	logger.Sugar().Infof("writing readings to %s", cfg.ReadingsPath)

	b := bridge.New(memory, publisher).WithReadingLog(readings)
	return b, func() {
		readings.Close()
		publisher.Close()
	}
}

func buildPublisher(cfg *config.Config) pubsub.Publisher {
	if cfg.NatsURL == "" {
		return pubsub.NopPublisher{}
	}
	publisher, err := pubsub.NewNatsPublisher(cfg.NatsURL)
	if err != nil {
		logger.Sugar().Fatalf("failed to connect to nats at %s: %v", cfg.NatsURL, err)
	}
	logger.Sugar().Infof("publishing device data to %s", cfg.NatsURL)
	return publisher
}
