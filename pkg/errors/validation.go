package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// Limits applied to user-supplied input.
const (
	MaxPackageNameLength = 214
	MaxBucketSize        = 365
	MaxSeriesLength      = 10000
)

// ValidatePackageName rejects names that are empty, too long, or contain
// control characters or path traversal sequences. Registry-specific rules
// are checked by ValidateRegistryPackage.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}
	if len(name) > MaxPackageNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", MaxPackageNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// npmPackageNameRegex matches valid npm package names, scoped or not.
var npmPackageNameRegex = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidateNpmPackageName validates an npm package name.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "npm package names must be lowercase: %q", name)
	}
	if !npmPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid npm package name: %q", name)
	}
	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a PyPI project name.
func ValidatePythonPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid Python package name: %q", name)
	}
	return nil
}

// cratesPackageNameRegex matches valid crates.io package names.
var cratesPackageNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateCratesPackageName validates a crates.io package name.
func ValidateCratesPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if !cratesPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid crates.io package name: %q", name)
	}
	return nil
}

var registryValidators = map[string]func(string) error{
	"npm":    ValidateNpmPackageName,
	"pypi":   ValidatePythonPackageName,
	"crates": ValidateCratesPackageName,
}

// ValidateRegistry checks that registry is one of npm, pypi or crates.
func ValidateRegistry(registry string) error {
	if _, ok := registryValidators[registry]; !ok {
		return New(ErrCodeInvalidRegistry, "unsupported registry: %q", registry)
	}
	return nil
}

// ValidateRegistryPackage checks that registry is supported and that name is
// valid for it.
func ValidateRegistryPackage(registry, name string) error {
	if err := ValidateRegistry(registry); err != nil {
		return err
	}
	return registryValidators[registry](name)
}

// ValidateBucketSize checks a bucket size for weekly aggregation.
// Zero selects the default size and is accepted.
func ValidateBucketSize(size int) error {
	if size < 0 || size > MaxBucketSize {
		return New(ErrCodeInvalidBucketSize, "bucket size must be between 1 and %d, got %d", MaxBucketSize, size)
	}
	return nil
}

// ValidateSeriesLength bounds the size of a series submitted for analysis.
func ValidateSeriesLength(n int) error {
	if n > MaxSeriesLength {
		return New(ErrCodeInvalidSeries, "series too long (max %d points, got %d)", MaxSeriesLength, n)
	}
	return nil
}
