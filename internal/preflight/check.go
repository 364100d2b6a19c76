package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/fuzzymatch/internal/config"
	"github.com/Aman-CERP/fuzzymatch/internal/store"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed successfully.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical warning.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status as its name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight validation checks.
type Checker struct {
	verbose bool
	output  io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check. cfg may be nil when loading failed with loadErr;
// checks that need it are then skipped.
func (c *Checker) RunAll(ctx context.Context, cfg *config.Config, loadErr error) []CheckResult {
	results := []CheckResult{c.CheckConfig(cfg, loadErr)}
	if cfg == nil {
		return append(results, c.CheckFileDescriptors())
	}

	key, keyResult := c.CheckEncryptionKey(cfg)
	results = append(results,
		keyResult,
		c.CheckWritePermissions(cfg.Storage.Path),
		c.CheckDiskSpace(cfg.Storage.Path),
		c.CheckFileDescriptors(),
	)
	if key != "" {
		results = append(results, c.CheckKeyMatch(cfg.Storage.Path, key))
	}
	results = append(results, c.CheckCatalog(ctx, cfg))
	return results
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == StatusWarn || r.Status == StatusFail {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "fuzzymatch doctor")
	_, _ = fmt.Fprintln(c.output, "=================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	var warnings, failures []string
	for _, r := range results {
		switch {
		case r.IsCritical():
			failures = append(failures, r.Name+": "+r.Message)
		case r.Status != StatusPass:
			warnings = append(warnings, r.Name+": "+r.Message)
		}
	}
	printList(c.output, "error(s)", failures)
	printList(c.output, "warning(s)", warnings)
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%d %s:\n", len(items), label)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "  - %s\n", item)
	}
}

// CheckConfig reports whether the configuration loaded and validated.
func (c *Checker) CheckConfig(cfg *config.Config, loadErr error) CheckResult {
	result := CheckResult{Name: "config", Required: true}

	if loadErr != nil {
		result.Status = StatusFail
		result.Message = loadErr.Error()
		return result
	}
	if cfg == nil {
		result.Status = StatusFail
		result.Message = "no configuration"
		return result
	}
	if err := cfg.Validate(); err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}
	if len(cfg.Fields) == 0 {
		result.Status = StatusFail
		result.Message = "no fields configured"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d fields, top_n %d", len(cfg.Fields), cfg.TopN)
	result.Details = "fields: " + strings.Join(cfg.FieldNames(), ", ")
	return result
}

// CheckEncryptionKey reports whether a key is configured, returning it.
func (c *Checker) CheckEncryptionKey(cfg *config.Config) (string, CheckResult) {
	result := CheckResult{Name: "encryption_key", Required: true}

	key, err := cfg.EncryptionKey()
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return "", result
	}

	env := cfg.Storage.EncryptionKeyEnv
	if env == "" {
		env = config.DefaultEncryptionKeyEnv
	}
	result.Status = StatusPass
	result.Message = "present in " + env
	if os.Getenv(env) == "" {
		result.Status = StatusWarn
		result.Message = "read from config file"
		result.Details = fmt.Sprintf("Prefer setting %s over storing the key in a file", env)
	}
	return key, result
}

// CheckKeyMatch reports whether key opens the vault at root. A storage
// root without a vault passes.
func (c *Checker) CheckKeyMatch(root, key string) CheckResult {
	result := CheckResult{Name: "key_match", Required: true}

	if !store.VaultExists(root) {
		result.Status = StatusPass
		result.Message = "no indices yet"
		return result
	}

	v, err := store.OpenVault(root, key)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}
	_ = v.Close()

	result.Status = StatusPass
	result.Message = "key opens storage"
	return result
}

// CheckWritePermissions checks the storage root, or its nearest existing
// parent when it does not exist yet, accepts new files.
func (c *Checker) CheckWritePermissions(path string) CheckResult {
	result := CheckResult{Name: "storage_writable", Required: true}

	dir, err := nearestExisting(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	f, err := os.CreateTemp(dir, ".fuzzymatch-write-test-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = "OK"
	result.Details = dir
	return result
}

// CheckCatalog lists built fields and warns about configured fields with
// no index.
func (c *Checker) CheckCatalog(ctx context.Context, cfg *config.Config) CheckResult {
	result := CheckResult{Name: "indices", Required: false}

	if _, err := os.Stat(filepath.Join(cfg.Storage.Path, store.CatalogFile)); errors.Is(err, fs.ErrNotExist) {
		result.Status = StatusWarn
		result.Message = "no indices built, run `fuzzymatch create`"
		return result
	}

	catalog, err := store.OpenCatalog(cfg.Storage.Path)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to open catalog: %v", err)
		return result
	}
	defer func() { _ = catalog.Close() }()

	infos, err := catalog.List(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to read catalog: %v", err)
		return result
	}

	built := make(map[string]bool, len(infos))
	for _, info := range infos {
		built[info.Field] = true
	}
	var missing []string
	for _, f := range cfg.FieldNames() {
		if !built[f] {
			missing = append(missing, f)
		}
	}

	if len(missing) > 0 {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%d of %d fields built", len(cfg.Fields)-len(missing), len(cfg.Fields))
		result.Details = "not built: " + strings.Join(missing, ", ")
		return result
	}
	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d fields built", len(infos))
	return result
}

// nearestExisting walks up from path to the first directory that exists.
func nearestExisting(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		dir = parent
	}
}
