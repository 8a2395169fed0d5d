package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E199)
	// ============================================

	"E100": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Check the --config path, or omit it to use defaults and FORMSTORE_ environment variables",
	},
	"E101": {
		Category:   CategoryConfig,
		Message:    "Invalid config file",
		Suggestion: "The file must be valid YAML or JSON",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
	},
	"E103": {
		Category:   CategoryConfig,
		Message:    "Unknown storage backend",
		Suggestion: "Use one of: disk, s3, minio",
	},
	"E104": {
		Category:   CategoryConfig,
		Message:    "Invalid field policy",
		Suggestion: "Each policy needs a field, a category (profile_image, team_image, video) and at least one allowed type",
	},
	"E105": {
		Category:   CategoryConfig,
		Message:    "Missing storage setting",
		Suggestion: "Object storage backends need a bucket; MinIO also needs an endpoint",
	},

	// ============================================
	// Storage Errors (E200-E299)
	// ============================================

	"E200": {
		Category:   CategoryStorage,
		Message:    "Storage directory not writable",
		Suggestion: "Create the directory or fix its permissions",
	},
	"E201": {
		Category:   CategoryStorage,
		Message:    "Bucket unavailable",
		Suggestion: "Check the endpoint, credentials and bucket name",
	},
	"E202": {
		Category: CategoryStorage,
		Message:  "Storage client initialization failed",
	},
	"E203": {
		Category:   CategoryStorage,
		Message:    "Sweep not supported",
		Suggestion: "Sweeping stale temporary files only applies to the disk backend",
	},

	// ============================================
	// CLI Errors (E300-E399)
	// ============================================

	"E300": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
	"E301": {
		Category: CategoryCLI,
		Message:  "Cannot read input",
	},
	"E302": {
		Category:   CategoryCLI,
		Message:    "Multipart boundary not found",
		Suggestion: "Pass --boundary, or make sure the input starts with a --boundary line",
	},
	"E303": {
		Category: CategoryCLI,
		Message:  "Server failed",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
