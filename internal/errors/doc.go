// Package errors provides coded, operator-facing errors for formstore.
//
// Errors raised while loading configuration, opening storage or parsing
// CLI input carry a stable code, a plain-language detail and, where one
// exists, a hint on how to fix the problem:
//
//	err := errors.New("E103").
//	    WithDetail(`storage.backend is "gcs"`).
//	    WithSuggestion("Use one of: disk, s3, minio")
//
//	fmt.Fprint(os.Stderr, err.Format())
//	// ERROR E103: Unknown storage backend
//	//
//	//   storage.backend is "gcs"
//	//
//	//   Hint: Use one of: disk, s3, minio
//
// # Error Codes
//
//   - E100-E199: configuration
//   - E200-E299: storage
//   - E300-E399: command line
//
// Errors from the ingest pipeline itself are not coded; they are reported
// per part in the request outcome.
package errors
