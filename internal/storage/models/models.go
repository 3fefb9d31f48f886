package models

import "time"

// Answers are the questionnaire answers exactly as submitted, kept for audit.
type Answers struct {
	Age             string
	Gender          string
	Polyuria        string
	Polydipsia      string
	WeightLoss      string
	Weakness        string
	Polyphagia      string
	GenitalThrush   string
	VisualBlurring  string
	Itching         string
	Irritability    string
	DelayedHealing  string
	PartialParesis  string
	MuscleStiffness string
	Alopecia        string
	Obesity         string
}

// PredictionRecord is one stored decision. Records are never updated.
type PredictionRecord struct {
	ID          int64
	TraceID     string
	Age         int
	Answers     Answers
	Label       int
	Probability float64
	ModelUsed   string
	CreatedAt   time.Time
}

type ModelUsage struct {
	ModelUsed string `json:"model_used"`
	Count     int    `json:"count"`
}
