package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/healthfair/clinicsync/internal/client/models"
)

func (a *App) addPatient(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Patient name", os.Stdout)
	if err != nil || name == "" {
		printlnFn("name is required")
		return
	}
	age, err := GetOptionalInt(a.reader, "Age (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid age")
		return
	}
	gender, _ := GetSimpleText(a.reader, "Gender (optional)", os.Stdout)
	email, _ := GetSimpleText(a.reader, "Email (optional)", os.Stdout)
	phone, _ := GetSimpleText(a.reader, "Phone (optional)", os.Stdout)
	condition, _ := GetSimpleText(a.reader, "Known condition (optional)", os.Stdout)

	rec, err := a.engine.CreateRecord(ctx, models.EntityPatient, models.Patient{
		Name:      name,
		Age:       age,
		Gender:    gender,
		Email:     email,
		Phone:     phone,
		Condition: condition,
	})
	if err != nil {
		printlnFn("failed to register patient:", err.Error())
		return
	}
	printlnFn(fmt.Sprintf("registered patient %s [%s]", rec.ID, rec.SyncStatus))
}

func (a *App) addVitals(ctx context.Context) {
	patientID, err := GetSimpleText(a.reader, "Patient id", os.Stdout)
	if err != nil || patientID == "" {
		printlnFn("patient id is required")
		return
	}

	height, err := GetOptionalFloat(a.reader, "Height, cm (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid height")
		return
	}
	weight, err := GetOptionalFloat(a.reader, "Weight, kg (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid weight")
		return
	}
	systolic, err := GetOptionalInt(a.reader, "Systolic BP (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid systolic BP")
		return
	}
	diastolic, err := GetOptionalInt(a.reader, "Diastolic BP (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid diastolic BP")
		return
	}
	heartRate, err := GetOptionalInt(a.reader, "Heart rate, bpm (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid heart rate")
		return
	}
	temp, err := GetOptionalFloat(a.reader, "Temperature, °C (optional)", os.Stdout)
	if err != nil {
		printlnFn("invalid temperature")
		return
	}

	rec, err := a.engine.CreateRecord(ctx, models.EntityVitals, models.Vitals{
		PatientID:   patientID,
		HeightCm:    height,
		WeightKg:    weight,
		SystolicBP:  systolic,
		DiastolicBP: diastolic,
		HeartRate:   heartRate,
		TempCelsius: temp,
	})
	if err != nil {
		printlnFn("failed to record vitals:", err.Error())
		return
	}
	printlnFn(fmt.Sprintf("recorded vitals %s [%s]", rec.ID, rec.SyncStatus))
}
