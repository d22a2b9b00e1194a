package analysis

import (
	"fmt"
	"strings"

	"mixaudit/domain/core"
)

// MissingColumnError aborts a run: without the required columns no row
// can be normalized. It is the only fatal condition in the pipeline.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// WarningCode identifies a recoverable condition recorded during a run
type WarningCode string

const (
	// WarnCoercion counts rows dropped because a numeric or date cell
	// could not be coerced
	WarnCoercion WarningCode = "coercion"
	// WarnDivisionUndefined marks a batch excluded because its total
	// adjusted quantity was zero
	WarnDivisionUndefined WarningCode = "division_undefined"
	// WarnEmptyResult marks a stage that produced no output
	WarnEmptyResult WarningCode = "empty_result"
)

// Warning is one recoverable condition with enough detail to audit it
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Count   int         `json:"count,omitempty"`
	Detail  []string    `json:"detail,omitempty"`
}

// Diagnostics accumulates the warnings of one run together with the
// identifiers that tie results back to their exact input.
type Diagnostics struct {
	RunID       core.RunID       `json:"run_id"`
	Fingerprint core.Fingerprint `json:"fingerprint"`
	Warnings    []Warning        `json:"warnings"`
}

// Add appends a warning
func (d *Diagnostics) Add(w Warning) {
	d.Warnings = append(d.Warnings, w)
}

// Addf appends a warning with a formatted message
func (d *Diagnostics) Addf(code WarningCode, format string, args ...interface{}) {
	d.Add(Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// HasWarnings reports whether any warning was recorded
func (d *Diagnostics) HasWarnings() bool {
	return len(d.Warnings) > 0
}

// CountByCode returns how many warnings carry the given code
func (d *Diagnostics) CountByCode(code WarningCode) int {
	n := 0
	for _, w := range d.Warnings {
		if w.Code == code {
			n++
		}
	}
	return n
}
