// Package diagnostics describes events pushed to /diag listeners.
package diagnostics

import "fmt"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// ProgramRejected reports a program that failed validation.
func ProgramRejected(name, code, detail string) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     "PROGRAM.REJECTED",
		Summary:  fmt.Sprintf("Program rejected: %s", code),
		Detail:   detail,
		Evidence: map[string]any{"name": name, "result": code},
	}
}

// ProgramLoaded reports a newly active program.
func ProgramLoaded(name, fingerprint string) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     "PROGRAM.LOADED",
		Summary:  "Program loaded",
		Detail:   name,
		Evidence: map[string]any{"fingerprint": fingerprint},
	}
}

// ProgramTooBig reports a program that validated but did not fit the arena.
func ProgramTooBig(name string, leaves, repeats int) Diagnostic {
	return Diagnostic{
		Severity:       Err,
		Code:           "PROGRAM.ARENA_FULL",
		Summary:        "Program does not fit the instruction arena",
		Detail:         name,
		LikelyCauses:   []string{"more instructions or loops than the engine was sized for"},
		SuggestedFixes: []string{"merge instructions", "raise engine.max_leaves or engine.max_repeats"},
		Evidence:       map[string]any{"max_leaves": leaves, "max_repeats": repeats},
	}
}

// DriverFault reports a failed frame write.
func DriverFault(driver string, err error) Diagnostic {
	return Diagnostic{
		Severity:       Err,
		Code:           "DRIVER.WRITE",
		Summary:        "Frame write failed",
		Detail:         err.Error(),
		LikelyCauses:   []string{"SPI port unavailable", "strip length does not match the driver"},
		SuggestedFixes: []string{"check wiring and driver.spi_port", "restart with -driver sim"},
		Evidence:       map[string]any{"driver": driver},
	}
}

func TestRunning(pattern string) Diagnostic {
	return Diagnostic{Severity: Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: pattern}
}

func TestDone(pattern string) Diagnostic {
	return Diagnostic{Severity: Info, Code: "TEST.DONE", Summary: "Test complete", Detail: pattern}
}
