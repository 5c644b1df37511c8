package main

import (
	"context"
	"log"

	"splice/internal/config"
	"splice/internal/daemon"
)

func main() {
	loadEnvironment()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemon.Run(context.Background(), cfg, daemon.Options{}); err != nil {
		log.Fatalf("spliced: %v", err)
	}
}
