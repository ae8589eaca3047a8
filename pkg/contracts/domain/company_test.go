package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyRow_IncorporationDate(t *testing.T) {
	tests := []struct {
		name    string
		incDate string
		want    time.Time
		ok      bool
	}{
		{name: "iso date", incDate: "2015-06-23", want: time.Date(2015, 6, 23, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "leap day", incDate: "2020-02-29", want: time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "empty", incDate: "", ok: false},
		{name: "uk layout left raw", incDate: "23/06/2015", ok: false},
		{name: "garbage", incDate: "not-a-date", ok: false},
		{name: "impossible day", incDate: "2015-02-30", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := CompanyRow{IncDate: tt.incDate}
			got, ok := row.IncorporationDate()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want))
			}
		})
	}
}

func TestCompanyRow_Record(t *testing.T) {
	row := CompanyRow{
		CompanyName:     "ACME WIDGETS LTD",
		CompanyNumber:   "01234567",
		AddressPostcode: "SW1A 1AA",
		IncDate:         "2015-06-23",
	}

	rec := row.Record()
	assert.Equal(t, "SW1A 1AA", rec.Postcode)
	require.True(t, rec.HasDate())
	assert.True(t, rec.IncorporationDate.Equal(time.Date(2015, 6, 23, 0, 0, 0, 0, time.UTC)))
}

func TestCompanyRow_RecordWithoutDate(t *testing.T) {
	row := CompanyRow{
		CompanyNumber:   "01234567",
		AddressPostcode: "SW1A 1AA",
		IncDate:         "unknown",
	}

	rec := row.Record()
	assert.Equal(t, "SW1A 1AA", rec.Postcode)
	assert.False(t, rec.HasDate())
	assert.Nil(t, rec.IncorporationDate)
}

func TestCompanyRow_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{name: "exact", status: "Active", want: true},
		{name: "lower", status: "active", want: true},
		{name: "padded", status: "  ACTIVE  ", want: true},
		{name: "dissolved", status: "Dissolved", want: false},
		{name: "liquidation", status: "Liquidation", want: false},
		{name: "empty", status: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := CompanyRow{CompanyStatus: tt.status}
			assert.Equal(t, tt.want, row.IsActive())
		})
	}
}
