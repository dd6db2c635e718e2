// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import "sync"

// Probe is a named accessor for one piece of application state.
//
// Read and Write are called by the probe server with the access gate
// held, so at most one probe operation runs at a time across the
// process. Implementations that also touch the same state from
// application goroutines must synchronize that access themselves.
type Probe interface {
	// Name is the registry key and the command a harness uses to
	// address the probe. It must not change while registered.
	Name() string

	// Read returns the current value. The boolean is false when the
	// probe has nothing to report, which the server renders as 404.
	Read() (Value, bool)

	// Write applies a harness-supplied parameter.
	Write(Value)
}

// Func adapts a pair of closures to the Probe interface. A nil ReadFunc
// makes the probe write-only (reads report no value); a nil WriteFunc
// ignores writes.
type Func struct {
	ProbeName string
	ReadFunc  func() (Value, bool)
	WriteFunc func(Value)
}

// Name implements Probe.
func (f *Func) Name() string { return f.ProbeName }

// Read implements Probe.
func (f *Func) Read() (Value, bool) {
	if f.ReadFunc == nil {
		return Value{}, false
	}
	return f.ReadFunc()
}

// Write implements Probe.
func (f *Func) Write(v Value) {
	if f.WriteFunc != nil {
		f.WriteFunc(v)
	}
}

// Reader returns a read-only probe backed by read.
func Reader(name string, read func() Value) *Func {
	return &Func{
		ProbeName: name,
		ReadFunc:  func() (Value, bool) { return read(), true },
	}
}

// Variable is a probe holding a single value: writes replace it, reads
// return it. A Variable created with NewTypedVariable coerces writes to
// its kind and keeps the previous value when coercion fails.
type Variable struct {
	name string

	mu    sync.Mutex
	value Value
	set   bool
	kind  Kind
	typed bool
}

// NewVariable returns a Variable holding initial. Written parameters
// are stored as given.
func NewVariable(name string, initial Value) *Variable {
	return &Variable{name: name, value: initial, set: true}
}

// NewTypedVariable returns a Variable that converts written parameters
// to initial's kind, so a point variable written with "3 4" reads back
// as a point.
func NewTypedVariable(name string, initial Value) *Variable {
	return &Variable{name: name, value: initial, set: true, kind: initial.Kind(), typed: true}
}

// NewEmptyVariable returns a Variable that reports no value until it is
// first written.
func NewEmptyVariable(name string) *Variable {
	return &Variable{name: name}
}

// Name implements Probe.
func (v *Variable) Name() string { return v.name }

// Read implements Probe.
func (v *Variable) Read() (Value, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.set
}

// Write implements Probe.
func (v *Variable) Write(value Value) {
	_ = v.Set(value)
}

// Set stores value, converting it first for typed variables. The
// conversion error is returned to application callers; the probe
// server path drops it and the previous value stays in place.
func (v *Variable) Set(value Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.typed {
		converted, err := value.As(v.kind)
		if err != nil {
			return err
		}
		value = converted
	}
	v.value = value
	v.set = true
	return nil
}

// Clear makes subsequent reads report no value.
func (v *Variable) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = Value{}
	v.set = false
}
