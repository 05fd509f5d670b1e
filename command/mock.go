package command

import (
	"context"
	"fmt"
	"sync"
)

// MockRunner returns canned results keyed by the full command line.
// Unknown commands succeed with empty output.
type MockRunner struct {
	mu      sync.Mutex
	outputs map[string]mockOutput
	Calls   []Command
}

type mockOutput struct {
	stdout string
	err    error
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{outputs: make(map[string]mockOutput)}
}

// On registers the output for a command line such as "git rev-parse HEAD".
func (m *MockRunner) On(cmdline, stdout string, err error) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[cmdline] = mockOutput{stdout: stdout, err: err}
	return m
}

// Run implements Runner.
func (m *MockRunner) Run(_ context.Context, c Command) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
	out, ok := m.outputs[c.String()]
	if !ok {
		return &Result{}, nil
	}
	return &Result{Stdout: out.stdout}, out.err
}

// SequentialMockRunner returns canned results in call order.
type SequentialMockRunner struct {
	mu      sync.Mutex
	outputs []seqOutput
	Calls   []Command
}

type seqOutput struct {
	stdout string
	stderr string
	err    error
}

// NewSequentialMockRunner creates an empty SequentialMockRunner.
func NewSequentialMockRunner() *SequentialMockRunner {
	return &SequentialMockRunner{}
}

// AddOutput queues stdout and error for the next call.
func (m *SequentialMockRunner) AddOutput(stdout string, err error) {
	m.AddOutputError(stdout, "", err)
}

// AddOutputError queues stdout, stderr and error for the next call.
func (m *SequentialMockRunner) AddOutputError(stdout, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, seqOutput{stdout: stdout, stderr: stderr, err: err})
}

// Run implements Runner.
func (m *SequentialMockRunner) Run(_ context.Context, c Command) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, c)
	if len(m.outputs) == 0 {
		return nil, fmt.Errorf("unexpected command: %s", c.String())
	}
	out := m.outputs[0]
	m.outputs = m.outputs[1:]
	return &Result{Stdout: out.stdout, Stderr: out.stderr}, out.err
}
