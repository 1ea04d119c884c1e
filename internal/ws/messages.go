package ws

import (
	"encoding/json"
	"time"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/electrification"
	"loadshape_toolkit/internal/model"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

// AggregationPayload mirrors the aggregation section of the config file.
type AggregationPayload struct {
	Mode       string `json:"mode,omitempty"`
	MonthStart int    `json:"month_start,omitempty"`
	MonthEnd   int    `json:"month_end,omitempty"`
	Season     string `json:"season,omitempty"`
	DayType    string `json:"day_type,omitempty"`
}

// CurvePayload overrides one adoption curve. Zero fields keep the
// configured value; an end-use stays enabled unless Disabled is set.
type CurvePayload struct {
	PeakYear float64 `json:"peak_year,omitempty"`
	PeakRate float64 `json:"peak_rate,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
}

// merge applies the override to base.
func (c CurvePayload) merge(base electrification.CurveParams) electrification.CurveParams {
	if c.PeakYear != 0 {
		base.PeakYear = c.PeakYear
	}
	if c.PeakRate != 0 {
		base.PeakRate = c.PeakRate
	}
	base.Enabled = !c.Disabled
	return base
}

// ProjectionRequestPayload asks for a study. Omitted fields fall back to the
// server's config.
type ProjectionRequestPayload struct {
	Dataset     string                  `json:"dataset,omitempty"`
	StudyYear   int                     `json:"study_year"`
	InitialYear int                     `json:"initial_year,omitempty"`
	TargetYear  int                     `json:"target_year,omitempty"`
	Aggregation *AggregationPayload     `json:"aggregation,omitempty"`
	Timezone    string                  `json:"timezone,omitempty"`
	Curves      map[string]CurvePayload `json:"curves,omitempty"`
	Save        bool                    `json:"save,omitempty"`
}

type AdoptionRequestPayload struct {
	EndUse      string        `json:"end_use"`
	InitialYear int           `json:"initial_year,omitempty"`
	TargetYear  int           `json:"target_year,omitempty"`
	Curve       *CurvePayload `json:"curve,omitempty"`
}

// Server -> Client messages

type TimeRangeInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DatasetInfo struct {
	Name            string        `json:"name"`
	Columns         []string      `json:"columns"`
	Rows            int           `json:"rows"`
	TimeRange       TimeRangeInfo `json:"time_range"`
	IntervalMinutes float64       `json:"interval_minutes"`
}

type DataLoadedPayload struct {
	Datasets  []DatasetInfo `json:"datasets"`
	TimeRange TimeRangeInfo `json:"time_range"`
	EndUses   []string      `json:"end_uses"`
}

// ProjectionResultPayload carries the electrified day. Hours with no data
// are null.
type ProjectionResultPayload struct {
	Dataset             string             `json:"dataset"`
	StudyYear           int                `json:"study_year"`
	Hours               []int              `json:"hours"`
	ElectricityTotal    []*float64         `json:"electricity_total"`
	NewElectricityTotal []*float64         `json:"new_electricity_total"`
	NewSupply           []*float64         `json:"new_supply"`
	Fractions           map[string]float64 `json:"fractions"`
	NewSupplyTWh        float64            `json:"new_supply_twh"`
	Summary             analysis.Summary   `json:"summary"`
	RunID               string             `json:"run_id,omitempty"`
}

type AdoptionPathPayload struct {
	EndUse    string    `json:"end_use"`
	Years     []float64 `json:"years"`
	Fractions []float64 `json:"fractions"`
}

type RunSavedPayload struct {
	ID        string           `json:"id"`
	Dataset   string           `json:"dataset"`
	StudyYear int              `json:"study_year"`
	Summary   analysis.Summary `json:"summary"`
}

type ErrorPayload struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

// Message type constants
const (
	// Client -> Server
	TypeProjectionRequest = "projection:request"
	TypeAdoptionRequest   = "adoption:request"

	// Server -> Client
	TypeDataLoaded       = "data:loaded"
	TypeProjectionResult = "projection:result"
	TypeAdoptionPath     = "adoption:path"
	TypeRunSaved         = "run:saved"
	TypeError            = "error"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func timeRangeInfo(tr model.TimeRange) TimeRangeInfo {
	return TimeRangeInfo{
		Start: tr.Start.Format(time.RFC3339),
		End:   tr.End.Format(time.RFC3339),
	}
}
