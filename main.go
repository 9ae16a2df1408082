package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawtrace/pet-receiver/internal/bridge"
	"github.com/pawtrace/pet-receiver/internal/handlers"
	configuredLogger "github.com/pawtrace/pet-receiver/internal/logger"
	"github.com/pawtrace/pet-receiver/internal/pubsub"
	"github.com/pawtrace/pet-receiver/internal/store"
)

var logger = configuredLogger.Logger

// Dev entrypoint: in-memory store with one seeded device, no broker.
// The full wiring lives in cmd/receiver.
func main() {
	var port = flag.Int("port", 8082, "Port to listen on")
	var deviceID = flag.String("device", "DEV01", "Seeded device id")
	var imei = flag.String("imei", "123456789012345", "Seeded device IMEI")
	flag.Parse()

	memory := store.NewMemoryStore()
	if err := memory.SaveDevice(&store.Device{DeviceID: *deviceID, IMEI: *imei, IsActive: true}); err != nil {
		logger.Sugar().Fatalf("failed to seed device: %v", err)
	}

	b := bridge.New(memory, pubsub.NopPublisher{})
	server := handlers.NewTcpServer(fmt.Sprintf(":%d", *port), "SUCCESS", 60*time.Second, 0,
		b, handlers.NewSessionRegistry(nil))
	if err := server.Start(); err != nil {
		logger.Sugar().Fatalf("failed to start tcp server: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	server.Stop()
}
