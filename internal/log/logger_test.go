package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Component: ComponentMerge, Output: &buf})
	logger.Info("Merged prices", FieldRows, 3)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record[FieldComponent] != ComponentMerge {
		t.Errorf("component = %v, want %s", record[FieldComponent], ComponentMerge)
	}
	if record[FieldRows] != float64(3) {
		t.Errorf("rows = %v, want 3", record[FieldRows])
	}
}

func TestNewTextLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: FormatText, Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentReserves).
		WithOperation(OpAggregate).
		WithInput("reserves.xlsx", "").
		WithError(errors.New("boom"))

	if _, ok := fields[FieldSheet]; ok {
		t.Error("empty sheet should be omitted")
	}
	if fields[FieldError] != "boom" {
		t.Errorf("error = %v", fields[FieldError])
	}
	if got := len(fields.ToSlice()); got != 2*len(fields) {
		t.Errorf("ToSlice() length = %d, want %d", got, 2*len(fields))
	}
}
