package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"gantry/internal/catalog"
	"gantry/internal/config"
	"gantry/internal/daemon"
	"gantry/internal/deps"
	"gantry/internal/logging"
	"gantry/internal/motor/feetech"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "gantryd.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	for _, st := range deps.Missing(deps.Check(deps.ForConfig(cfg))) {
		logger.Warn("required dependency unavailable",
			logging.String("dependency", st.Name),
			logging.String("detail", st.Detail),
			logging.String(logging.FieldErrorHint, st.Description),
		)
	}

	cal, err := feetech.LoadCalibration(cfg.Motors.CalibrationFile)
	if err != nil {
		log.Fatalf("load calibration: %v", err)
	}
	driver, err := feetech.Open(ctx, cfg.Motors.Port, cal)
	if err != nil {
		log.Fatalf("open servo bus: %v", err)
	}
	defer driver.Close()

	store, err := catalog.Open(cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("open episode catalog: %v", err)
	}
	defer store.Close()

	d, err := daemon.New(daemon.Options{
		Config:   cfg,
		Logger:   logger,
		Actuator: driver,
		Store:    store,
	})
	if err != nil {
		log.Fatalf("create daemon: %v", err)
	}

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited with error", logging.Error(err))
	}
}
