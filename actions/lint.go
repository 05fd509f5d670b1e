package actions

import (
	"fmt"
	"io"

	"github.com/rhysd/actionlint"
)

// Finding is one lint problem.
type Finding struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d:%d: %s [%s]", f.File, f.Line, f.Column, f.Message, f.Kind)
}

// Lint checks workflow content with actionlint. External checkers
// (shellcheck, pyflakes) are not run. The error result is reserved for
// linter failures; problems in the workflow come back as findings.
func Lint(name string, content []byte) ([]Finding, error) {
	linter, err := actionlint.NewLinter(io.Discard, &actionlint.LinterOptions{})
	if err != nil {
		return nil, fmt.Errorf("create linter: %w", err)
	}

	errs, err := linter.Lint(name, content, nil)
	if err != nil {
		return nil, fmt.Errorf("lint %s: %w", name, err)
	}

	findings := make([]Finding, 0, len(errs))
	for _, e := range errs {
		findings = append(findings, Finding{
			File:    name,
			Line:    e.Line,
			Column:  e.Column,
			Kind:    e.Kind,
			Message: e.Message,
		})
	}
	return findings, nil
}
