package domain

import (
	"strings"
	"time"
)

// CompanyRow represents one company extracted from a Companies House
// basic data snapshot. Fields mirror the subset of snapshot columns the
// pipeline keeps; everything is carried as text because the snapshot
// itself is text and later stages decide how strict to be.
type CompanyRow struct {
	CompanyName     string `parquet:"company_name,optional" json:"company_name"`
	CompanyNumber   string `parquet:"company_number" json:"company_number"`
	CompanyURI      string `parquet:"company_uri,optional" json:"company_uri,omitempty"`
	SICCode         string `parquet:"sic_code,optional,dict" json:"sic_code,omitempty"`
	CompanyStatus   string `parquet:"company_status,optional,dict" json:"company_status,omitempty"`
	CompanyCategory string `parquet:"company_category,optional,dict" json:"company_category,omitempty"`
	AddressLine     string `parquet:"address_line,optional" json:"address_line,omitempty"`
	AddressTown     string `parquet:"address_town,optional" json:"address_town,omitempty"`
	AddressPostcode string `parquet:"address_post_code,optional" json:"address_post_code,omitempty"`
	// IncDate is the incorporation date in ISO-8601 (YYYY-MM-DD) when the
	// snapshot value parsed, otherwise the raw snapshot text so downstream
	// stages can count the row as malformed instead of silently losing it.
	IncDate string `parquet:"inc_date,optional" json:"inc_date,omitempty"`
	AccCat  string `parquet:"acc_cat,optional,dict" json:"acc_cat,omitempty"`
}

// IncDateLayout is the wire layout for CompanyRow.IncDate.
const IncDateLayout = "2006-01-02"

// IncorporationDate parses IncDate. The second return is false when the
// field is empty or not ISO-8601, which marks the row malformed for
// counting purposes.
func (c CompanyRow) IncorporationDate() (time.Time, bool) {
	if c.IncDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(IncDateLayout, c.IncDate)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Record reduces a CompanyRow to what the series stages consume.
func (c CompanyRow) Record() Record {
	r := Record{Postcode: c.AddressPostcode}
	if t, ok := c.IncorporationDate(); ok {
		r.IncorporationDate = &t
	}
	return r
}

// IsActive reports whether the company status reads as active. Status
// text in snapshots is not perfectly uniform, so the check is loose.
func (c CompanyRow) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(c.CompanyStatus), "active")
}

// Record represents the minimal unit the series pipeline consumes: a
// raw postcode and an incorporation date. A nil IncorporationDate means
// the source value was missing or unparsable; such records still flow
// through so the aggregator can account for every input row.
type Record struct {
	Postcode          string     `json:"postcode"`
	IncorporationDate *time.Time `json:"incorporation_date,omitempty"`
}

// HasDate reports whether the record carries a usable incorporation date.
func (r Record) HasDate() bool {
	return r.IncorporationDate != nil
}
