package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kykmenu/yemekbot/internal/conf"
	"github.com/kykmenu/yemekbot/internal/data"
	"github.com/kykmenu/yemekbot/internal/dispatch"
	"github.com/kykmenu/yemekbot/internal/gate"
	"github.com/kykmenu/yemekbot/internal/gateway"
	"github.com/kykmenu/yemekbot/internal/mention"
	"github.com/kykmenu/yemekbot/internal/panel"
	"github.com/kykmenu/yemekbot/internal/server"
	"github.com/kykmenu/yemekbot/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Connect to the WhatsApp gateway socket
	gw, err := gateway.Dial(cfg.Gateway.URL)
	if err != nil {
		log.Fatalf("Failed to connect to gateway: %v", err)
	}
	fmt.Printf("[Bot] Connected to gateway at %s\n", cfg.Gateway.URL)

	// Initialize repository layer
	repos, err := data.NewRepositories(gw, cfg.Menu.BaseURL, cfg.Menu.City,
		cfg.Menu.Timeout, cfg.Menu.WeeklyTimeout, cfg.Log.DBPath)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	fmt.Printf("[Bot] Activity log DB: %s\n", cfg.Log.DBPath)

	// Admission gate and dispatch queue
	g := gate.New(cfg.Throttle.ToGateConfig())
	queue := dispatch.New(cfg.Throttle.ToQueueConfig())

	// Mention resolution uses the gateway's contact lookup capability
	resolver := mention.NewResolver(cfg.Gateway.BotNumber, cfg.Gateway.BlockedNumber, gw)

	// Service layer
	orch := service.NewOrchestrator(repos.Menu, repos.MenuWeekly, repos.Message, g, queue)
	scheduler := service.NewNotifyScheduler(cfg.Notify, repos.Menu, repos.Message, g, queue)

	// Admin panel mirroring (disabled when ADMIN_API_URL is empty)
	panelNotifier := panel.NewNotifier(cfg.Panel.BaseURL, cfg.Panel.Timeout)

	srv := server.NewBotServer(gw, resolver, g, orch, scheduler, repos.Log, panelNotifier, cfg.Debug)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		srv.Stop()
		repos.Log.Close()
		os.Exit(0)
	}()

	fmt.Println("Starting KYK menu bot...")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
