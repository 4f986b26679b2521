package models

// Requests for the sales HTTP endpoints. Defined in domain for consistency and reuse.

type DayRequest struct {
	Date string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type PredictRequest struct {
	Days int `query:"days" json:"days" default:"7" validate:"gte=1,lte=60"`
}
