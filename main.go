package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"boxdrop/cleanup"
	"boxdrop/config"
	"boxdrop/engine"
	"boxdrop/rng"
	"boxdrop/state"
	"boxdrop/ws"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables")
	} else {
		log.Println("✅ Loaded environment variables from .env")
	}

	root := &cobra.Command{
		Use:   "boxdrop-server",
		Short: "Authoritative in-memory server for the box-drop party game",
		RunE: func(cmd *cobra.Command, args []string) error {
			// cobra has already parsed cmd.Flags() by this point, so this
			// reads the real command-line values rather than the defaults
			// the registration call below sees.
			cfg := config.BindFlags(cmd.Flags(), viper.New())
			return run(cfg)
		},
	}
	// Registers every flag ahead of cobra's own parse; the Config this
	// particular call returns is discarded.
	config.BindFlags(root.Flags(), viper.New())

	if err := root.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(cfg *config.Config) error {
	log.Printf("⚙️  config: %s", cfg)

	store := state.New(state.TTLs{
		Waiting:   cfg.WaitingTTL,
		Selection: cfg.SelectionTTL,
		Finished:  cfg.FinishedTTL,
	}, rng.Process())

	server := ws.NewServer(store, nil, cfg)
	eng := engine.New(store, rng.Process(), server)
	server.SetEngine(eng)

	sweeper := cleanup.New(store, cfg.CleanupInterval)
	stopSweep := sweeper.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	mux.HandleFunc("/healthz", server.HandleHealth)

	addr := "0.0.0.0:" + cfg.Port
	httpServer := &http.Server{Addr: addr, Handler: server.CORS(mux)}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdown
		log.Println("🛑 shutting down server...")
		close(stopSweep)
		os.Exit(0)
	}()

	log.Printf("🚀 server starting on %s", addr)
	log.Println("📡 WebSocket endpoint: /ws")
	log.Println("🩺 health endpoint: /healthz")

	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("❌ server error: %v", err)
	}
	return nil
}
