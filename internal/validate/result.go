package validate

import "fmt"

// Code is the outcome of validating a light program. The values are part of
// the command surface and must not be renumbered.
type Code int

const (
	Valid Code = iota + 1
	ProgramTooBig
	OnlyOneInfiniteLoopAllowed
	MissingMandatoryProperties
	NoInstructionsInLoop
	InvalidInstruction
	NoInstructions
	InvalidProperty
	Maximum5NestedLoopsAllowed
	LoopHasInvalidTimesValue
)

var codeNames = map[Code]string{
	Valid:                      "Valid",
	ProgramTooBig:              "ProgramTooBig",
	OnlyOneInfiniteLoopAllowed: "OnlyOneInfiniteLoopAllowed",
	MissingMandatoryProperties: "MissingMandatoryProperties",
	NoInstructionsInLoop:       "NoInstructionsInLoop",
	InvalidInstruction:         "InvalidInstruction",
	NoInstructions:             "NoInstructions",
	InvalidProperty:            "InvalidProperty",
	Maximum5NestedLoopsAllowed: "Maximum5NestedLoopsAllowed",
	LoopHasInvalidTimesValue:   "LoopHasInvalidTimesValue",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Result is a validation outcome. Detail names the offending instruction,
// key or value when there is one.
type Result struct {
	Code   Code   `json:"result"`
	Detail string `json:"detail,omitempty"`
}

func (r Result) OK() bool { return r.Code == Valid }

func (r Result) String() string {
	if r.Detail == "" {
		return r.Code.String()
	}
	return r.Code.String() + ": " + r.Detail
}

func fail(c Code, detail string) Result {
	return Result{Code: c, Detail: detail}
}
