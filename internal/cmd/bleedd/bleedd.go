// Package bleedd parses bleed engine flags and launches the service.
package bleedd

import (
	"context"
	"flag"
	"fmt"
	"log"

	server "bleedengine/internal/bleed/app"
	"bleedengine/internal/platform/config"
	"bleedengine/internal/platform/otel"
)

// Version is stamped at build time.
var Version = "dev"

// Config holds bleed engine command configuration.
type Config struct {
	Port int  `env:"BLEED_GRPC_PORT" envDefault:"8095"`
	MCP  bool `env:"BLEED_MCP_STDIO" envDefault:"true"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The gRPC health server port")
	fs.BoolVar(&cfg.MCP, "mcp", cfg.MCP, "Serve the MCP operator surface on stdio")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse args: %w", err)
	}
	return cfg, nil
}

// Run starts the bleed engine service with tracing wired in.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "bleedengine")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	return server.Run(ctx, cfg.Port, Version, cfg.MCP)
}
