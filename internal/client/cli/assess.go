package cli

import (
	"context"
	"fmt"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/scoring"
)

// assess runs the mocked health assessment over the patient's most recent
// vitals and stores the result as a recommendation record.
func (a *App) assess(ctx context.Context, patientID string) {
	vitals, err := a.engine.ListRecords(ctx, models.EntityVitals)
	if err != nil {
		printlnFn(err.Error())
		return
	}

	var latest *models.Record
	for i := range vitals {
		v, perr := models.PayloadAs[models.Vitals](&vitals[i])
		if perr != nil {
			continue
		}
		if v.PatientID != patientID {
			continue
		}
		if latest == nil || vitals[i].LastModified > latest.LastModified {
			latest = &vitals[i]
		}
	}
	if latest == nil {
		printlnFn("no vitals recorded for patient", patientID)
		return
	}

	v, err := models.PayloadAs[models.Vitals](latest)
	if err != nil {
		printlnFn("stored vitals are unreadable:", err.Error())
		return
	}

	assessment := scoring.Assess(v)
	recommendation := scoring.Recommend(patientID, assessment)

	rec, err := a.engine.CreateRecord(ctx, models.EntityRecommendation, recommendation)
	if err != nil {
		printlnFn("failed to store recommendation:", err.Error())
		return
	}

	printlnFn(fmt.Sprintf("risk score %d (%s)", assessment.RiskScore, assessment.RiskLevel))
	for _, f := range assessment.Findings {
		printlnFn("  - " + f)
	}
	printlnFn(recommendation.Summary)
	printlnFn(fmt.Sprintf("stored as %s [%s]", rec.ID, rec.SyncStatus))
}
