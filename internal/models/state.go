// Conversation state structures.
package models

// FlowState is the durable per-user progress within one flow. It exists iff
// a flow is mid-progress; absence means "ready for new-intent routing". The
// orchestrator alone persists it; state machines receive and return it by
// value and never touch the store.
type FlowState struct {
	Step StepType       `json:"step"`
	Data map[string]any `json:"data,omitempty"`
}

// NewFlowState returns a state at the given step with an empty data map.
func NewFlowState(step StepType) FlowState {
	return FlowState{Step: step, Data: map[string]any{}}
}

// Get returns the value stored under key, or nil.
func (s FlowState) Get(key DataKey) any {
	if s.Data == nil {
		return nil
	}
	return s.Data[string(key)]
}

// Str returns the string stored under key, or "".
func (s FlowState) Str(key DataKey) string {
	v, _ := s.Get(key).(string)
	return v
}

// Int returns the integer stored under key, or 0. Values that traveled
// through JSON come back as float64.
func (s FlowState) Int(key DataKey) int {
	switch v := s.Get(key).(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// RecordAt returns the Record stored under key, or nil.
func (s FlowState) RecordAt(key DataKey) Record {
	return AsRecord(s.Get(key))
}

// RecordsAt returns the list of Records stored under key, or nil.
func (s FlowState) RecordsAt(key DataKey) []Record {
	switch vs := s.Get(key).(type) {
	case []Record:
		return vs
	case []any:
		out := make([]Record, 0, len(vs))
		for _, v := range vs {
			if r := AsRecord(v); r != nil {
				out = append(out, r)
			}
		}
		return out
	default:
		return nil
	}
}

// With returns a copy of the state with key set, leaving the receiver's
// data untouched.
func (s FlowState) With(key DataKey, value any) FlowState {
	data := make(map[string]any, len(s.Data)+1)
	for k, v := range s.Data {
		data[k] = v
	}
	data[string(key)] = value
	return FlowState{Step: s.Step, Data: data}
}

// Without returns a copy of the state with key removed.
func (s FlowState) Without(key DataKey) FlowState {
	data := make(map[string]any, len(s.Data))
	for k, v := range s.Data {
		if k != string(key) {
			data[k] = v
		}
	}
	return FlowState{Step: s.Step, Data: data}
}

// At returns a copy of the state positioned at step.
func (s FlowState) At(step StepType) FlowState {
	return FlowState{Step: step, Data: s.Data}
}

// StoredState is the persisted wire shape of a conversation state as the
// backend returns it: the flow name beside the step and data payload.
type StoredState struct {
	ContactID string    `json:"contactId"`
	Flow      FlowType  `json:"flow"`
	State     FlowState `json:"state"`
}
