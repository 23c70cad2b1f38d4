package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/burnsbert/crumbwise/internal/config"
	"github.com/burnsbert/crumbwise/internal/serverapp"
)

func main() {
	configPath := flag.String("config", "crumbwise.yml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	handler, err := serverapp.NewHandler(serverapp.Options{
		Config: cfg,
		Logger: log.Default(),
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	log.Printf("listening on http://localhost%s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, handler))
}
