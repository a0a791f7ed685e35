// Package errors provides the single structured diagnostic type every
// other package in this module reports through: construction-time typing
// failures, structural invariant violations, unimplemented lowering
// paths, and pass configuration errors (spec §7). It plays the same role
// here that AILANG's internal/errors package plays there -- one Report
// shape, one JSON encoding, a stable per-phase code taxonomy -- adapted
// from AILANG's parser/typechecker taxonomy to this compiler's phases.
package errors

import (
	stderrors "errors"
	"encoding/json"
	"fmt"
)

// Report is the canonical structured diagnostic. Every fatal error this
// module raises is built as a *Report and, for recoverable phases,
// returned wrapped as an error via Wrap; structural invariant violations
// are instead panicked with the *Report as the panic value (§7 -- those
// indicate a compiler bug, not bad input, mirroring how shady's own
// assert() calls are unconditional aborts rather than recoverable errors).
type Report struct {
	Schema   string         `json:"schema"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Severity string         `json:"severity"` // "error" or "warning"
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
}

const schemaV1 = "shadyir.error/v1"

// reportError wraps a Report as an error so it survives errors.As.
type reportError struct{ rep *Report }

func (e *reportError) Error() string {
	if e.rep == nil {
		return "unknown error"
	}
	return e.rep.Code + ": " + e.rep.Message
}

// Wrap turns a Report into an error. Nil in, nil out.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &reportError{rep: r}
}

// As extracts a *Report from an error chain, if one is present.
func As(err error) (*Report, bool) {
	var re *reportError
	if stderrors.As(err, &re) {
		return re.rep, true
	}
	return nil, false
}

func (r *Report) Error() string {
	return r.Code + ": " + r.Message
}

// ToJSON renders the report as deterministic JSON.
func (r *Report) ToJSON(indent bool) (string, error) {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func newReport(code, phase, severity, format string, args ...any) *Report {
	return &Report{
		Schema:   schemaV1,
		Code:     code,
		Phase:    phase,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Typing builds a TYP### report: the checker rejected a constructor's
// payload (§7 "Typing error").
func Typing(kind, format string, args ...any) error {
	r := newReport("TYP001", "typecheck", "error", format, args...)
	r.Data = map[string]any{"node_kind": kind}
	return Wrap(r)
}

// Structural builds an STR### report for a structural invariant
// violation. Callers panic with this value -- it is a compiler bug.
func Structural(where, format string, args ...any) *Report {
	r := newReport("STR001", "construct", "error", format, args...)
	r.Data = map[string]any{"where": where}
	return r
}

// Unimplemented builds a LOW### report: a pass observed a construct an
// earlier pass should have eliminated (§7 "Unimplemented / not-yet-lowered").
func Unimplemented(phase, format string, args ...any) error {
	r := newReport("LOW001", phase, "error", format, args...)
	return Wrap(r)
}

// Configuration builds a CFG### report: a pass precondition was violated
// by the compiler configuration (§7 "Configuration error").
func Configuration(phase, format string, args ...any) error {
	r := newReport("CFG001", phase, "error", format, args...)
	return Wrap(r)
}

// Warning builds a WRN### non-fatal report. Never returned as an error;
// callers log it and continue. cmd/shadyc prints its own warnings
// directly and does not call this.
func Warning(phase, format string, args ...any) *Report {
	return newReport("WRN001", phase, "warning", format, args...)
}
