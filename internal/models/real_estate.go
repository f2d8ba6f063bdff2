package models

// RealEstate is a registered real-estate unit (anything other than a land
// parcel).
type RealEstate struct {
	ID      int64   `json:"id"`
	OwnerID int64   `json:"owner_id"`
	TypeID  int64   `json:"type_id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Area    float64 `json:"area"`
	Notes   string  `json:"notes"`
}

// RealEstateTax is the computed per-year real-estate tax row. One row per
// (unit, year), mutated in place after creation.
type RealEstateTax struct {
	EstateID int64   `json:"estate_id"`
	Year     int     `json:"year"`
	Tax      float64 `json:"tax"`
	Paid     bool    `json:"paid"`
}

// RealEstateYearRow is the denormalized per-year listing of a unit: the unit
// joined with its owner, type, and that year's rate and tax rows.
type RealEstateYearRow struct {
	ID          int64    `json:"id"`
	OwnerID     int64    `json:"owner_id"`
	OwnerName   string   `json:"owner_name"`
	TypeName    string   `json:"type_name"`
	RatePercent *float64 `json:"rate_percent"`
	AreaLimit   *float64 `json:"area_limit"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Area        float64  `json:"area"`
	Tax         *float64 `json:"tax"`
	Paid        *bool    `json:"paid"`
	Notes       string   `json:"notes"`
}

// MinimumSalary is the per-year statutory minimum salary, the single source
// for the real-estate tax base.
type MinimumSalary struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}
