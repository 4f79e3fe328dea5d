package main

import (
	"github.com/sirupsen/logrus"

	"github.com/driftbooks/driftbooks-api/internal/config"
	"github.com/driftbooks/driftbooks-api/internal/infrastructure/server"
)

func main() {
	logrus.Info("Starting DriftBooks API...")

	cfg := config.GetConfig()

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		logrus.Fatalf("Server exited with error: %v", err)
	}
}
