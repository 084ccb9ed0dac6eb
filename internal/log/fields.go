package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldPipeline  = "pipeline"
	FieldDuration  = "duration_ms"
	FieldSuccess   = "success"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldSource    = "source"
	FieldSheet     = "sheet"
	FieldRows      = "rows"
	FieldCountry   = "country"
	FieldPath      = "path"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentMerge    = "merge"
	ComponentReserves = "reserves"
	ComponentChart    = "chart"
	ComponentAMQP     = "amqp"
	ComponentBackend  = "backend"
	ComponentWatcher  = "watcher"
)

// Operations defines standard operation names
const (
	OpRead       = "read"
	OpWrite      = "write"
	OpParse      = "parse"
	OpDistribute = "distribute"
	OpMerge      = "merge"
	OpAggregate  = "aggregate"
	OpRender     = "render"
	OpPersist    = "persist"
	OpPublish    = "publish"
	OpValidate   = "validate"
	OpStartup    = "startup"
	OpWatch      = "watch"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithInput adds the source and sheet of a read.
func (f LogFields) WithInput(source, sheet string) LogFields {
	f[FieldSource] = source
	if sheet != "" {
		f[FieldSheet] = sheet
	}
	return f
}

// WithRun adds run identification fields
func (f LogFields) WithRun(runID, pipeline string) LogFields {
	f[FieldRunID] = runID
	f[FieldPipeline] = pipeline
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
