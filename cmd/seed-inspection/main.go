package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/client"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/logger"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// seed-inspection 创建一条 SCHEDULED 检查，输出 inspection id
func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("BUILDSTATE_API_URL", "http://localhost:8080/api"), "inspection API base URL")
	propertyID := flag.String("property", "", "property id (required)")
	unitID := flag.String("unit", "", "unit id")
	typ := flag.String("type", string(domain.InspectionRoutine), "ROUTINE | MOVE_IN | MOVE_OUT | EMERGENCY | COMPLIANCE")
	when := flag.String("at", "", "scheduled time, RFC3339 (default now)")
	notes := flag.String("notes", "", "notes")
	flag.Parse()

	log, err := logger.NewDevelopmentLogger()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	inspType := domain.InspectionType(strings.ToUpper(*typ))
	if *propertyID == "" || !inspType.Valid() {
		flag.Usage()
		os.Exit(2)
	}
	scheduledAt := time.Now().UTC()
	if *when != "" {
		t, err := time.Parse(time.RFC3339, *when)
		if err != nil {
			log.Fatal("Invalid -at", zap.Error(err))
		}
		scheduledAt = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	insp, err := client.New(*apiURL, log).ScheduleInspection(ctx, client.ScheduleRequest{
		PropertyID:  *propertyID,
		UnitID:      *unitID,
		Type:        inspType,
		ScheduledAt: scheduledAt,
		Notes:       *notes,
	})
	if err != nil {
		log.Fatal("Failed to schedule inspection", zap.Error(err))
	}
	log.Info("Inspection scheduled", zap.String("inspection_id", insp.InspectionID), zap.String("type", string(insp.Type)))
	fmt.Println(insp.InspectionID)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
