package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chcli/internal/errors"
	"chcli/pkg/contracts/domain"
)

func sampleRows() []domain.CompanyRow {
	return []domain.CompanyRow{
		{
			CompanyName:     "ACME WIDGETS LTD",
			CompanyNumber:   "01234567",
			CompanyStatus:   "Active",
			AddressPostcode: "SW1A 1AA",
			IncDate:         "2015-06-23",
		},
		{
			CompanyName:     "BETA TRADING LIMITED",
			CompanyNumber:   "07654321",
			CompanyStatus:   "Dissolved",
			AddressPostcode: "EC1A 1BB",
			IncDate:         "2019-11-02",
		},
		{
			CompanyName:   "GAMMA HOLDINGS",
			CompanyNumber: "SC123456",
			IncDate:       "31/12/2001", // preserved raw, not ISO
		},
	}
}

func readAll(t *testing.T, path string) []domain.CompanyRow {
	t.Helper()

	reader, err := OpenCompanyReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var out []domain.CompanyRow
	buf := make([]domain.CompanyRow, 2)
	for {
		n, err := reader.ReadBatch(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	return out
}

func TestCompanyWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.parquet")
	rows := sampleRows()

	writer, err := NewCompanyWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Write(rows[:2]))
	require.NoError(t, writer.Write(rows[2:]))
	assert.Equal(t, int64(3), writer.Rows())
	require.NoError(t, writer.Close())

	got := readAll(t, path)
	assert.Equal(t, rows, got)
}

func TestCompanyWriter_NoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "companies.parquet")

	writer, err := NewCompanyWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Write(sampleRows()))

	// Target does not exist until Close
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	writer.Abort()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompanyWriter_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staging", "deep", "part.parquet")

	writer, err := NewCompanyWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Write(sampleRows()[:1]))
	require.NoError(t, writer.Close())

	got := readAll(t, path)
	assert.Len(t, got, 1)
}

func TestCompanyReader_NumRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.parquet")

	writer, err := NewCompanyWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Write(sampleRows()))
	require.NoError(t, writer.Close())

	reader, err := OpenCompanyReader(path)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, int64(3), reader.NumRows())
}

func TestOpenCompanyReader_MissingFile(t *testing.T) {
	_, err := OpenCompanyReader(filepath.Join(t.TempDir(), "absent.parquet"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STORE_READ_FAILED"))
}

func TestOpenCompanyReader_NotParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.parquet")
	require.NoError(t, os.WriteFile(path, []byte("this is not parquet"), 0644))

	_, err := OpenCompanyReader(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "STORE_FORMAT"))
}
