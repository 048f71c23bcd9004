package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/healthfair/clinicsync/internal/client/models"
)

func (a *App) list(ctx context.Context, args []string) {
	types := []models.EntityType{models.EntityPatient, models.EntityVitals, models.EntityDoctor, models.EntityRecommendation}
	if len(args) > 0 {
		et := models.EntityType(args[0])
		if !models.ValidEntityType(et) {
			printlnFn("Usage: list [patient|vitals|doctor|recommendation]")
			return
		}
		types = []models.EntityType{et}
	}

	for _, et := range types {
		recs, err := a.engine.ListRecords(ctx, et)
		if err != nil {
			printlnFn(err.Error())
			return
		}
		if len(recs) == 0 {
			continue
		}
		printlnFn(string(et) + ":")
		for _, r := range recs {
			modified := time.UnixMilli(r.LastModified).Format("2006-01-02 15:04:05")
			printlnFn(fmt.Sprintf("  %-40s v%-3d %-8s %s  %s", r.ID, r.Version, r.SyncStatus, modified, string(r.Payload)))
		}
	}
}

func (a *App) status(ctx context.Context) {
	snap, err := a.engine.Snapshot(ctx)
	if err != nil {
		printlnFn(err.Error())
		return
	}

	lastSync := "never"
	if snap.LastSyncMillis > 0 {
		lastSync = time.UnixMilli(snap.LastSyncMillis).Format("2006-01-02 15:04:05")
	}

	printlnFn(fmt.Sprintf("status:        %s", a.engine.Status()))
	printlnFn(fmt.Sprintf("local records: %d", snap.LocalRecordCount))
	printlnFn(fmt.Sprintf("queued:        %d", snap.QueueLength))
	printlnFn(fmt.Sprintf("last sync:     %s", lastSync))
}

func (a *App) clear(ctx context.Context) {
	confirm, err := GetSimpleText(a.reader, "This wipes all local data. Type 'yes' to confirm", os.Stdout)
	if err != nil || confirm != "yes" {
		printlnFn("cancelled")
		return
	}
	if err := a.engine.ClearAll(ctx); err != nil {
		printlnFn("failed to clear local data:", err.Error())
		return
	}
	printlnFn("local data cleared")
}
