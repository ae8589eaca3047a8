// Package files provides file system operations and discovery utilities
// for the registry pipeline tools.
//
// This package contains two main components:
//
// Discovery: Finds the files the pipeline consumes and produces: snapshot
// ZIP archives, extracted parquet parts and finished series stores. ZIP
// discovery returns files in ascending name order, which is the order the
// extractor merges them in, so results are reproducible run to run.
//
// Manager: Basic file management built around config.Paths. It also carries
// WriteAtomic, the write-to-temp-then-rename helper every on-disk artefact
// goes through so readers never observe a half-written file.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.DataDir)
//
//	// Find snapshot archives, oldest name first
//	zips, err := discovery.FindZipFiles(paths.ZipsDir)
//
//	manager := files.NewManager(paths)
//	if manager.FileExists(paths.CombinedParquet) {
//	    // Reuse the previous extraction
//	}
package files
