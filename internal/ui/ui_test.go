package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/combitest/combinatorial/domain"
	"github.com/example/combitest/combinatorial/report"
	"github.com/example/combitest/internal/modelfile"
	"github.com/example/combitest/internal/storage"
)

const testModel = `
parameters:
  - name: browser
    values: [chrome, firefox]
  - name: os
    values: [linux, windows]
`

func parseModel(t *testing.T) *modelfile.Model {
	t.Helper()
	m, err := modelfile.Parse([]byte(testModel))
	require.NoError(t, err)
	return m
}

func TestInputsTable(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).InputsTable(parseModel(t), []domain.Combination{{0, 1}, {1, 0}})

	out := buf.String()
	assert.Contains(t, out, "browser")
	assert.Contains(t, out, "os")
	assert.Contains(t, out, "chrome")
	assert.Contains(t, out, "windows")
	assert.Contains(t, out, "firefox")
	assert.Contains(t, out, "linux")
}

func TestFailureInducingTable(t *testing.T) {
	model := parseModel(t)

	var buf bytes.Buffer
	New(&buf).FailureInducingTable(model, []domain.Combination{{1, domain.NoValue}})
	assert.Contains(t, buf.String(), "browser=firefox")
	assert.NotContains(t, buf.String(), "os=")

	buf.Reset()
	New(&buf).FailureInducingTable(model, nil)
	assert.Contains(t, buf.String(), "No failure-inducing combinations")
}

func TestGroupsTable(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).GroupsTable([]report.GroupSummary{
		{ID: "positive", InitialInputs: 4, AdditionalInputs: 2, Characterized: true},
	})
	out := buf.String()
	assert.Contains(t, out, "positive")
	assert.Contains(t, out, "yes")
}

func TestSessionsTable(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	New(&buf).SessionsTable([]*storage.Session{{
		ID:         "abc",
		ModelPath:  "model.yaml",
		Strength:   2,
		State:      storage.SessionFinished,
		Executed:   7,
		Failed:     1,
		CreatedAt:  created,
		FinishedAt: created.Add(90 * time.Second),
	}})
	out := buf.String()
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "finished")
	assert.Contains(t, out, "model.yaml")
	assert.Contains(t, out, "1m30s")

	buf.Reset()
	New(&buf).SessionsTable(nil)
	assert.Contains(t, buf.String(), "No sessions")
}

func TestResult(t *testing.T) {
	model := parseModel(t)

	var buf bytes.Buffer
	p := New(&buf)
	p.Result(model, domain.TestExecution{Input: domain.Combination{0, 0}, Result: domain.Success()})
	p.Result(model, domain.TestExecution{Input: domain.Combination{1, 1}, Result: domain.Failure("boom")})

	out := buf.String()
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "browser=chrome, os=linux")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "boom")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Summary(10, 2, 1, 3*time.Second)
	out := buf.String()
	assert.Contains(t, out, "Tests executed:    10")
	assert.Contains(t, out, "Found 1 failure-inducing combination(s)")

	buf.Reset()
	New(&buf).Summary(4, 0, 0, time.Millisecond)
	assert.Contains(t, buf.String(), "All tests passed")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{125 * time.Second, "2m5s"},
		{2*time.Hour + 3*time.Minute, "2h3m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}
