// Package verify checks whether a file is a well-formed stripped ELF image:
// the magic signature intact and the header declaring no section headers.
package verify

import (
	"fmt"
	"time"

	"github.com/elf-tools/shstrip/internal/elfimage"
)

// Check defines the interface implemented by every verification check
type Check interface {
	// ID returns the unique identifier for this check
	ID() string

	// Description returns what this check validates
	Description() string

	// Execute runs the check against the file at path
	Execute(path string) Result
}

// Result contains the outcome of one check execution
type Result struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Status      string        `json:"status"` // "pass" or "fail"
	Details     string        `json:"details"`
	Duration    time.Duration `json:"duration"`
}

// Report contains the results of running all checks against one file
type Report struct {
	Path         string   `json:"path"`
	Results      []Result `json:"results"`
	TotalChecks  int      `json:"total_checks"`
	PassedChecks int      `json:"passed_checks"`
	FailedChecks int      `json:"failed_checks"`
}

// Registry manages a collection of verification checks
type Registry struct {
	checks []Check
}

// NewRegistry creates a registry preloaded with the standard checks.
func NewRegistry() *Registry {
	return &Registry{
		checks: []Check{
			&SignatureCheck{},
			&HeaderZeroCheck{},
		},
	}
}

// Register adds a check to the registry
func (r *Registry) Register(check Check) {
	r.checks = append(r.checks, check)
}

// List returns all registered checks
func (r *Registry) List() []Check {
	return r.checks
}

// Runner executes verification checks
type Runner struct {
	registry *Registry
}

// NewRunner creates a new runner over the given registry
func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

// RunAll executes every registered check against the file at path
func (r *Runner) RunAll(path string) *Report {
	report := &Report{Path: path}
	for _, check := range r.registry.List() {
		result := check.Execute(path)
		report.Results = append(report.Results, result)
		report.TotalChecks++
		if result.Status == "pass" {
			report.PassedChecks++
		} else {
			report.FailedChecks++
		}
	}
	return report
}

// SignatureCheck validates that the file still opens as a supported ELF image
type SignatureCheck struct{}

func (c *SignatureCheck) ID() string {
	return "elf-signature"
}

func (c *SignatureCheck) Description() string {
	return "Validates the ELF magic signature and class byte"
}

func (c *SignatureCheck) Execute(path string) Result {
	start := time.Now()
	result := Result{ID: c.ID(), Description: c.Description()}

	img, err := elfimage.Open(path)
	if err != nil {
		result.Status = "fail"
		result.Details = fmt.Sprintf("Failed to open as ELF: %v", err)
		result.Duration = time.Since(start)
		return result
	}
	defer img.Close()

	result.Status = "pass"
	result.Details = fmt.Sprintf("Valid %s image, %d bytes", img.Class(), img.Size())
	result.Duration = time.Since(start)
	return result
}

// HeaderZeroCheck validates that the header declares no section headers: the
// section-table offset, entry size, count, and string-table index all zero.
type HeaderZeroCheck struct{}

func (c *HeaderZeroCheck) ID() string {
	return "section-header-fields"
}

func (c *HeaderZeroCheck) Description() string {
	return "Validates that all section-table header fields read as zero"
}

func (c *HeaderZeroCheck) Execute(path string) Result {
	start := time.Now()
	result := Result{ID: c.ID(), Description: c.Description()}

	img, err := elfimage.Open(path)
	if err != nil {
		result.Status = "fail"
		result.Details = fmt.Sprintf("Failed to open as ELF: %v", err)
		result.Duration = time.Since(start)
		return result
	}
	defer img.Close()

	fields := map[string]elfimage.HeaderField{
		"e_shoff":     elfimage.SectionTableOffset,
		"e_shentsize": elfimage.SectionEntrySize,
		"e_shnum":     elfimage.SectionCount,
		"e_shstrndx":  elfimage.StringTableIndex,
	}
	nonzero := []string{}
	for name, field := range fields {
		v, err := img.ReadHeaderField(field)
		if err != nil {
			result.Status = "fail"
			result.Details = fmt.Sprintf("Failed to read %s: %v", name, err)
			result.Duration = time.Since(start)
			return result
		}
		if v != 0 {
			nonzero = append(nonzero, fmt.Sprintf("%s=%d", name, v))
		}
	}

	if len(nonzero) > 0 {
		result.Status = "fail"
		result.Details = fmt.Sprintf("File still references section headers: %v", nonzero)
	} else {
		result.Status = "pass"
		result.Details = "No section header references in the ELF header"
	}
	result.Duration = time.Since(start)
	return result
}
