package models

import "time"

// FeatureRow is one bar of engineered microstructure features. Rolling
// quantities are NaN until their window fills; consumers must filter.
type FeatureRow struct {
	Bucket     time.Time `json:"bucket"`
	Symbol     string    `json:"symbol"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
	Returns    float64   `json:"returns"`
	HLCRatio   float64   `json:"hlc_ratio"`
	Amihud     float64   `json:"amihud"`
	Lambda     float64   `json:"lambda"`
	MFC        float64   `json:"mfc"`
	VolumeZ    float64   `json:"volume_z"`
	Volatility float64   `json:"volatility"`
	CoordFlow  float64   `json:"coordinated_flow"`
	TimeOfDay  float64   `json:"tod"`
}
