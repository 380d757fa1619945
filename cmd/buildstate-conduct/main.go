package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/client"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/logger"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/conduct"
)

func main() {
	_ = godotenv.Load()

	scriptPath := flag.String("script", "inspection.yaml", "YAML walk-through script")
	inspectionID := flag.String("inspection", "", "inspection id (overrides the script)")
	apiURL := flag.String("api", getEnv("BUILDSTATE_API_URL", "http://localhost:8080/api"), "inspection API base URL")
	debounce := flag.Duration("debounce", conduct.DefaultDebounce, "checklist save delay")
	flag.Parse()

	log, err := logger.NewDevelopmentLogger()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	script, err := LoadScript(*scriptPath)
	if err != nil {
		log.Fatal("Failed to load script", zap.Error(err))
	}
	if *inspectionID != "" {
		script.InspectionID = *inspectionID
	}
	if script.InspectionID == "" {
		log.Fatal("inspection id is required (-inspection or inspectionId in the script)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	api := client.New(*apiURL, log)
	sess, err := conduct.NewSession(ctx, api, script.InspectionID, conduct.Options{
		Debounce: *debounce,
		Notifier: conduct.NewLogNotifier(log),
		Logger:   log,
	})
	if err != nil {
		log.Fatal("Failed to open inspection", zap.Error(err))
	}
	defer sess.Close()

	if err := Run(ctx, sess, script, log); err != nil {
		log.Error("Walk-through failed", zap.String("step", sess.Step().String()), zap.Error(err))
		sess.Close()
		os.Exit(1)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
