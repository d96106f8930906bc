package recorder

// MultiRecorder fans records out to several sinks. The first error wins but
// every sink still sees the record.
type MultiRecorder struct {
	sinks []Recorder
}

func NewMultiRecorder(sinks ...Recorder) *MultiRecorder {
	return &MultiRecorder{sinks: sinks}
}

func (m *MultiRecorder) RecordOperation(rec *OperationRecord) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordOperation(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiRecorder) RecordRun(rec *RunRecord) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordRun(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *MultiRecorder) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
