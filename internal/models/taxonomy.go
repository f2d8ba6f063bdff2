package models

// PropertyType is a taxonomy entry. Land parcels and real-estate units keep
// two independent taxonomies with the same shape; the type name is unique
// within its taxonomy.
type PropertyType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LandTypeRate is one land-type rate row, keyed by (type, year).
type LandTypeRate struct {
	ID          int64   `json:"id"`
	TypeID      int64   `json:"type_id"`
	Year        int     `json:"year"`
	RatePercent float64 `json:"rate_percent"`
}

// EstateTypeRate is one real-estate-type rate row, keyed by (type, year).
// AreaLimit is the taxable-area exemption in square meters.
type EstateTypeRate struct {
	ID          int64   `json:"id"`
	TypeID      int64   `json:"type_id"`
	Year        int     `json:"year"`
	RatePercent float64 `json:"rate_percent"`
	AreaLimit   float64 `json:"area_limit"`
}

// TypeRateRow is the per-year taxonomy projection: every known type joined
// against that year's rate row. Types without a rate for the year come back
// with nil rate fields so callers can flag incomplete years.
// AreaLimit stays nil for the land taxonomy.
type TypeRateRow struct {
	RateID      *int64   `json:"rate_id"`
	TypeName    string   `json:"type_name"`
	RatePercent *float64 `json:"rate_percent"`
	AreaLimit   *float64 `json:"area_limit,omitempty"`
}
