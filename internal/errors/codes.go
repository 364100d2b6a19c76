// Package errors provides structured error handling for fuzzymatch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and storage errors
//   - 4XX: Validation errors (schema, targets)
//   - 5XX: Matching and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk and vault errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates matching failures and unexpected errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound       = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid        = "ERR_102_CONFIG_INVALID"
	ErrCodeUnknownAlgorithm     = "ERR_104_UNKNOWN_ALGORITHM"
	ErrCodeEncryptionKeyMissing = "ERR_105_ENCRYPTION_KEY_MISSING"

	// IO errors (200-299)
	ErrCodeFileNotFound  = "ERR_201_FILE_NOT_FOUND"
	ErrCodeDiskFull      = "ERR_203_DISK_FULL"
	ErrCodeCorruptIndex  = "ERR_205_CORRUPT_INDEX"
	ErrCodeKeyMismatch   = "ERR_207_KEY_MISMATCH"
	ErrCodeStorageLocked = "ERR_208_STORAGE_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeMissingIDColumn   = "ERR_407_MISSING_ID_COLUMN"
	ErrCodeMissingFields     = "ERR_408_MISSING_FIELDS"
	ErrCodeIdentityCollision = "ERR_409_IDENTITY_COLLISION"
	ErrCodeInvalidTarget     = "ERR_410_INVALID_TARGET"

	// Matching and internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeMatchFailed    = "ERR_503_MATCH_FAILED"
	ErrCodeIndexFailed    = "ERR_505_INDEX_FAILED"
	ErrCodeNoResult       = "ERR_506_NO_RESULT"
	ErrCodeTeardownFailed = "ERR_507_TEARDOWN_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex, ErrCodeDiskFull, ErrCodeKeyMismatch:
		return SeverityFatal
	case ErrCodeStorageLocked:
		return SeverityWarning
	default:
		return SeverityError
	}
}
