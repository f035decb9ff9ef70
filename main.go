package main

import (
	"log"

	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/server"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		// Missing mailbox credentials or panel key: refuse to start.
		log.Fatalf("Config initialization failed: %v", err)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Mailboost starting up...")

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Server setup failed: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server startup failed: %v", err)
	}

	log.Println("Shutdown complete")
}
