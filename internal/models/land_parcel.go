package models

// LandParcel is a registered land parcel. A privileged parcel is exempt
// from tax regardless of computed value.
type LandParcel struct {
	ID         int64   `json:"id"`
	OwnerID    int64   `json:"owner_id"`
	TypeID     int64   `json:"type_id"`
	Address    string  `json:"address"`
	Area       float64 `json:"area"`
	Privileged bool    `json:"privileged"`
	Notes      string  `json:"notes"`
}

// NormativeValue is the official per-year assessed value of a land parcel,
// used as the land tax base. One row per (parcel, year).
type NormativeValue struct {
	ParcelID int64   `json:"parcel_id"`
	Year     int     `json:"year"`
	Value    float64 `json:"value"`
}

// LandTax is the computed per-year land tax row. One row per (parcel, year),
// mutated in place after creation.
type LandTax struct {
	ParcelID int64   `json:"parcel_id"`
	Year     int     `json:"year"`
	Tax      float64 `json:"tax"`
	Paid     bool    `json:"paid"`
}

// LandParcelYearRow is the denormalized per-year listing of a parcel: the
// parcel joined with its owner, type, and that year's rate, valuation and
// tax rows. LEFT JOIN absences surface as nil pointers.
type LandParcelYearRow struct {
	ID             int64    `json:"id"`
	OwnerID        int64    `json:"owner_id"`
	OwnerName      string   `json:"owner_name"`
	TypeName       string   `json:"type_name"`
	RatePercent    *float64 `json:"rate_percent"`
	Address        string   `json:"address"`
	Area           float64  `json:"area"`
	Privileged     bool     `json:"privileged"`
	NormativeValue *float64 `json:"normative_value"`
	Tax            *float64 `json:"tax"`
	Paid           *bool    `json:"paid"`
	Notes          string   `json:"notes"`
}
