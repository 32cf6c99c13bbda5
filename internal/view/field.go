package view

import (
	"sort"
	"sync"
)

// InputListener is invoked after a field value changes
type InputListener func(value string)

// Field is a text input
type Field struct {
	ID string

	value     string
	listeners []InputListener

	mu sync.RWMutex
}

// NewField creates a field with an initial value
func NewField(id, value string) *Field {
	return &Field{ID: id, value: value}
}

// Value returns the current value
func (f *Field) Value() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.value
}

// OnInput registers a listener fired on every Assign
func (f *Field) OnInput(listener InputListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, listener)
}

// Assign replaces the value and then fires input listeners synchronously, in registration order
func (f *Field) Assign(value string) {
	f.mu.Lock()
	f.value = value
	listeners := make([]InputListener, len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
}

// Form groups the text fields a voice trigger may target
type Form struct {
	fields map[string]*Field
}

// NewForm creates one empty field per id
func NewForm(ids ...string) *Form {
	form := &Form{fields: make(map[string]*Field, len(ids))}
	for _, id := range ids {
		form.fields[id] = NewField(id, "")
	}
	return form
}

// Field returns the field with the given id
func (f *Form) Field(id string) (*Field, bool) {
	field, ok := f.fields[id]
	return field, ok
}

// IDs returns the field ids in lexical order
func (f *Form) IDs() []string {
	ids := make([]string, 0, len(f.fields))
	for id := range f.fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
