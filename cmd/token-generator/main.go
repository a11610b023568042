// Command token-generator mints a bearer token for the administrative API.
// It reads the same configuration as the server, so tokens it produces
// validate against a running instance sharing that configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/trellisdata/trellis/internal/config"
	"github.com/trellisdata/trellis/internal/service/auth"
)

func main() {
	operator := flag.String("operator", "", "operator name to embed in the token (required)")
	flag.Parse()

	if *operator == "" {
		log.Fatal("usage: token-generator -operator <name>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		log.Fatalf("failed to initialize JWT service: %v", err)
	}

	token, err := jwtService.GenerateToken(context.Background(), *operator)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	fmt.Printf("Operator: %s\nLifetime: %d minutes\nToken: %s\n",
		*operator, cfg.Auth.TokenLifetimeMinutes, token)
}
