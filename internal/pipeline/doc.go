// Package pipeline sequences the batch stages a binary runs.
//
// A Stage is a named unit of work; the Runner executes registered stages
// in order, logs each boundary, and wraps every stage in an OpenTelemetry
// span so enabling tracing shows where a run spent its time. The first
// failing stage stops the run; stages after it are reported as skipped.
//
// Example usage:
//
//	runner := pipeline.NewRunner(providers.Tracer)
//	runner.Add(
//		pipeline.NewStage("discover", "Discover archives", extractor.Discover),
//		pipeline.NewStage("unpack", "Unpack and parse", extractor.Unpack),
//		pipeline.NewStage("merge", "Merge parts", extractor.Merge),
//	)
//	result, err := runner.Run(ctx)
package pipeline
