// Package scoring implements the mocked health assessment: a deterministic
// risk score derived from a patient's vitals. The bands are placeholders for
// a real clinical model and carry no medical meaning.
package scoring

import (
	"fmt"
	"strings"

	"github.com/healthfair/clinicsync/internal/client/models"
)

// Risk levels, ordered.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// Assessment is the scored outcome for one set of vitals.
type Assessment struct {
	RiskScore int
	RiskLevel string
	Findings  []string
}

// BMI returns the body mass index, or 0 when height is missing.
func BMI(heightCm, weightKg float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return weightKg / (m * m)
}

// Assess scores one set of vitals. Same input always yields the same
// assessment. Missing (zero) measurements contribute nothing.
func Assess(v models.Vitals) Assessment {
	var (
		score    int
		findings []string
	)

	if bmi := BMI(v.HeightCm, v.WeightKg); bmi > 0 {
		switch {
		case bmi >= 35:
			score += 30
			findings = append(findings, fmt.Sprintf("BMI %.1f (obese, class II+)", bmi))
		case bmi >= 30:
			score += 20
			findings = append(findings, fmt.Sprintf("BMI %.1f (obese)", bmi))
		case bmi >= 25:
			score += 10
			findings = append(findings, fmt.Sprintf("BMI %.1f (overweight)", bmi))
		case bmi < 18.5:
			score += 10
			findings = append(findings, fmt.Sprintf("BMI %.1f (underweight)", bmi))
		}
	}

	if v.SystolicBP > 0 {
		switch {
		case v.SystolicBP >= 180 || v.DiastolicBP >= 120:
			score += 40
			findings = append(findings, fmt.Sprintf("blood pressure %d/%d (crisis range)", v.SystolicBP, v.DiastolicBP))
		case v.SystolicBP >= 140 || v.DiastolicBP >= 90:
			score += 25
			findings = append(findings, fmt.Sprintf("blood pressure %d/%d (stage 2)", v.SystolicBP, v.DiastolicBP))
		case v.SystolicBP >= 130 || v.DiastolicBP >= 80:
			score += 10
			findings = append(findings, fmt.Sprintf("blood pressure %d/%d (elevated)", v.SystolicBP, v.DiastolicBP))
		}
	}

	if v.HeartRate > 0 {
		switch {
		case v.HeartRate > 120 || v.HeartRate < 40:
			score += 25
			findings = append(findings, fmt.Sprintf("resting heart rate %d bpm (out of range)", v.HeartRate))
		case v.HeartRate > 100 || v.HeartRate < 50:
			score += 10
			findings = append(findings, fmt.Sprintf("resting heart rate %d bpm (borderline)", v.HeartRate))
		}
	}

	if v.TempCelsius >= 38.0 {
		score += 15
		findings = append(findings, fmt.Sprintf("temperature %.1f°C (fever)", v.TempCelsius))
	}

	return Assessment{
		RiskScore: score,
		RiskLevel: levelFor(score),
		Findings:  findings,
	}
}

// Recommend turns an assessment into a stored recommendation payload.
func Recommend(patientID string, a Assessment) models.Recommendation {
	return models.Recommendation{
		PatientID: patientID,
		RiskScore: a.RiskScore,
		RiskLevel: a.RiskLevel,
		Summary:   summaryFor(a),
	}
}

func levelFor(score int) string {
	switch {
	case score >= 50:
		return RiskHigh
	case score >= 20:
		return RiskModerate
	default:
		return RiskLow
	}
}

func summaryFor(a Assessment) string {
	if len(a.Findings) == 0 {
		return "All measured vitals within normal ranges. Routine follow-up."
	}

	var b strings.Builder
	b.WriteString("Findings: ")
	b.WriteString(strings.Join(a.Findings, "; "))
	b.WriteString(". ")
	switch a.RiskLevel {
	case RiskHigh:
		b.WriteString("Refer to on-site physician before leaving the fair.")
	case RiskModerate:
		b.WriteString("Schedule a follow-up consultation within two weeks.")
	default:
		b.WriteString("Routine follow-up recommended.")
	}
	return b.String()
}
