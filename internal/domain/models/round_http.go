package models

// Requests for round HTTP endpoints.

type AnalyzeRoundRequest struct {
	RoundID   string            `json:"round_id" validate:"required,max=128"`
	Events    []ShotEvent       `json:"events" validate:"required,min=1,max=400,dive"`
	Samples   []LocationSample  `json:"samples" validate:"max=200000,dive"`
	Stability []StabilityWindow `json:"stability" validate:"dive"`
}

func (r AnalyzeRoundRequest) Input() RoundInput {
	return RoundInput{RoundID: r.RoundID, Events: r.Events, Samples: r.Samples, Stability: r.Stability}
}

type RoundRequest struct {
	RoundID string `param:"id" validate:"required"`
}

type ExpectedStrokesRequest struct {
	Distance float64 `query:"distance" json:"distance" validate:"gte=0,lte=1000"`
	Lie      string  `query:"lie" json:"lie" default:"fairway" validate:"oneof=tee fairway rough deepRough bunker green fringe recovery unknown"`
	Putt     bool    `query:"putt" json:"putt"`
}

type ExpectedStrokesResponse struct {
	Distance        float64      `json:"distance"`
	Unit            DistanceUnit `json:"unit"`
	Lie             Lie          `json:"lie"`
	ExpectedStrokes float64      `json:"expected_strokes"`
}
