package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"SalesPulse/internal/di"
	"SalesPulse/pkg/config"
)

func main() {
	configPath := pflag.StringP("config", "c", "config/config.yaml", "config file path")
	checkOnly := pflag.Bool("check-config", false, "validate the configuration and exit")
	pflag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if *checkOnly {
		fmt.Printf("config ok: env=%s timezone=%s\n", cfg.Environment, cfg.Timezone)
		return
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "app initialization failed: %v\n", err)
		os.Exit(1)
	}

	// blocks until SIGINT/SIGTERM
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "app error: %v\n", err)
		os.Exit(1)
	}
}
