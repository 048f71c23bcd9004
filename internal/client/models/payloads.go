package models

// Patient holds intake data captured at registration.
type Patient struct {
	Name      string `json:"name"`
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// Vitals is a single set of measurements for a patient.
type Vitals struct {
	PatientID   string  `json:"patient_id"`
	HeightCm    float64 `json:"height_cm,omitempty"`
	WeightKg    float64 `json:"weight_kg,omitempty"`
	SystolicBP  int     `json:"systolic_bp,omitempty"`
	DiastolicBP int     `json:"diastolic_bp,omitempty"`
	HeartRate   int     `json:"heart_rate,omitempty"`
	TempCelsius float64 `json:"temp_celsius,omitempty"`
}

// Doctor identifies a practitioner reviewing intake results.
type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Recommendation is the stored output of the mocked health assessment.
type Recommendation struct {
	PatientID string `json:"patient_id"`
	RiskScore int    `json:"risk_score"`
	RiskLevel string `json:"risk_level"`
	Summary   string `json:"summary"`
}
