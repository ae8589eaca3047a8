package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func writeTestFiles(t *testing.T, dir string, names []string) {
	t.Helper()
	for _, name := range names {
		err := os.WriteFile(filepath.Join(dir, name), []byte("test content"), 0644)
		require.NoError(t, err)
	}
}

func TestFindZipFiles(t *testing.T) {
	tests := []struct {
		name          string
		files         []string
		expectedNames []string
		description   string
	}{
		{
			name: "snapshot archives in name order",
			files: []string{
				"BasicCompanyData-2021-02-01-part2_6.zip",
				"BasicCompanyData-2021-01-01.zip",
				"BasicCompanyData-2021-02-01-part1_6.zip",
			},
			expectedNames: []string{
				"BasicCompanyData-2021-01-01.zip",
				"BasicCompanyData-2021-02-01-part1_6.zip",
				"BasicCompanyData-2021-02-01-part2_6.zip",
			},
			description: "Should sort by name ascending regardless of creation order",
		},
		{
			name: "non-snapshot files ignored",
			files: []string{
				"BasicCompanyData-2021-01-01.zip",
				"companies.parquet",
				"notes.txt",
				"other-archive.zip",
			},
			expectedNames: []string{"BasicCompanyData-2021-01-01.zip"},
			description:   "Should match only the snapshot naming scheme",
		},
		{
			name:          "empty directory",
			files:         []string{},
			expectedNames: []string{},
			description:   "Should handle empty directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			discovery := NewDiscovery(tmpDir)

			testDir := "zips"
			fullTestDir := filepath.Join(tmpDir, testDir)
			require.NoError(t, os.MkdirAll(fullTestDir, 0755))
			writeTestFiles(t, fullTestDir, tt.files)

			found, err := discovery.FindZipFiles(testDir)
			require.NoError(t, err, tt.description)

			names := make([]string, 0, len(found))
			for _, file := range found {
				names = append(names, file.Name)
				assert.NotEmpty(t, file.Path)
				assert.Greater(t, file.Size, int64(0))
				assert.False(t, file.ModTime.IsZero())
			}
			assert.Equal(t, tt.expectedNames, names, tt.description)
		})
	}
}

func TestFindZipFiles_AbsoluteDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFiles(t, tmpDir, []string{"BasicCompanyData-2021-01-01.zip"})

	discovery := NewDiscovery("/unrelated/base")
	found, err := discovery.FindZipFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestFindZipFiles_MissingDirectory(t *testing.T) {
	discovery := NewDiscovery(t.TempDir())
	_, err := discovery.FindZipFiles("does_not_exist")
	assert.Error(t, err)
}

func TestFindParquetFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFiles(t, tmpDir, []string{
		"part_002.part.parquet", // in progress, skipped
		"companies.parquet",
		"archive_01.parquet",
		"readme.md",
	})

	discovery := NewDiscovery(tmpDir)
	found, err := discovery.FindParquetFiles(tmpDir)
	require.NoError(t, err)

	names := make([]string, 0, len(found))
	for _, file := range found {
		names = append(names, file.Name)
	}
	assert.Equal(t, []string{"archive_01.parquet", "companies.parquet"}, names)
}

func TestFindStoreFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeTestFiles(t, tmpDir, []string{"series.arrow", "monthly.arrow", "series.csv"})

	discovery := NewDiscovery(tmpDir)
	found, err := discovery.FindStoreFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestGetLatestFile(t *testing.T) {
	base := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Name: "a.arrow", ModTime: base},
		{Name: "b.arrow", ModTime: base.Add(2 * time.Hour)},
		{Name: "c.arrow", ModTime: base.Add(time.Hour)},
	}

	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "b.arrow", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}

func TestTotalSize(t *testing.T) {
	files := []FileInfo{{Size: 100}, {Size: 250}, {Size: 0}}
	assert.Equal(t, int64(350), TotalSize(files))
	assert.Zero(t, TotalSize(nil))
}
