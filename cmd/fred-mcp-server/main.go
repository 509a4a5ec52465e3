package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/fredseries/fred-mcp-server/internal/app"
	"github.com/fredseries/fred-mcp-server/internal/apperr"
	"github.com/fredseries/fred-mcp-server/internal/config"
)

func main() {
	_ = godotenv.Load()

	httpAddr := flag.String("http", "", "serve streamable HTTP at this address instead of stdio, e.g. :3333")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		if apperr.Is(err, apperr.ConfigMissing) {
			log.Fatalf("configuration error: %v", err)
		}
		log.Fatalf("unexpected configuration error: %v", err)
	}

	a, closeApp, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}
	defer closeApp()

	if *httpAddr != "" {
		log.Printf("fred-mcp-server listening on %s", *httpAddr)
		if err := a.Server.ServeHTTP(*httpAddr); err != nil {
			log.Fatalf("http server error: %v", err)
		}
		return
	}

	if err := a.Server.ServeStdio(); err != nil {
		log.Fatalf("stdio server error: %v", err)
	}
}
