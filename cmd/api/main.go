package main

import (
	"log"

	"aula-backend/internal/shared/config"
	"aula-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	deps, err := server.DefaultDeps(cfg)
	if err != nil {
		log.Fatalf("provider init: %v", err)
	}
	r := server.NewRouter(cfg, deps)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
