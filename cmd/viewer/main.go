// Package main is the entry point for the interactive crystal structure viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/crystalview/internal/config"
	"github.com/Faultbox/crystalview/internal/logger"
	"github.com/Faultbox/crystalview/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== crystalview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	var scenePath string
	if args := config.Args(); len(args) > 0 {
		scenePath = args[0]
	}

	v, err := viewer.New(cfg, scenePath)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
