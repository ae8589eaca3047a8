package config

// Application constants - all hardcoded values for the registry series tools
const (
	// Application Info
	AppName   = "Company Registry Series Tools"
	AppVendor = "chcli"

	// Snapshot Files
	SnapshotZipPattern  = "BasicCompanyData.*\\.zip"
	SnapshotCSVPattern  = ".*\\.csv"
	CombinedParquetName = "companies.parquet"
	PartParquetSuffix   = ".part.parquet"

	// Series Store
	SeriesStoreExtension = ".arrow"
	DefaultStoreName     = "series"

	// Processing Defaults
	DefaultTruncateChars = 2
	DefaultBatchSize     = 100000
	DefaultGranularity   = "month"
	DefaultWorkers       = 4

	// Directory layout (relative to executable, see PathsAt)
	DataDirName    = "data"
	ZipsDirName    = "zips"
	StagingDirName = "staging"
	SeriesDirName  = "series"
	ChartsDirName  = "charts"
	MetricsDirName = "metrics"
	LogsDirName    = "logs"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/app.log"
)
