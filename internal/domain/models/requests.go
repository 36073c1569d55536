package models

// Requests for the analytics HTTP endpoints. Defined in domain for consistency and reuse.

type SnapshotRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,max=12"`
}

type VerdictRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,max=12"`
}

type SlippageRequest struct {
	Ticker   string  `param:"ticker" json:"ticker" validate:"required,alphanum,max=12"`
	Notional float64 `query:"notional" json:"notional" default:"100000" validate:"gt=0,lte=1000000000"`
	Sims     int     `query:"sims" json:"sims" default:"400" validate:"gte=1,lte=10000"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"600" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1m" validate:"oneof=1s 1m 5m"`
	// From/To accept RFC3339 or unix seconds; when absent the range is
	// derived from N and TF.
	From string `query:"from" json:"from" validate:"omitempty"`
	To   string `query:"to" json:"to" validate:"omitempty"`
}
