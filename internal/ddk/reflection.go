package ddk

import (
	"fmt"
	"reflect"
	"sync"
)

// DriverEntryType describes a loaded driver's initializer surface: the
// type the reflection exports search for, and the methods on it the loader
// invokes (Probe/Bind/GetDevice, per internal/driverloader).
type DriverEntryType struct {
	Name  string
	Value reflect.Value
}

// ReflectionExports implements the Reflection_* export group: a registry
// of driver entry types by name (populated through RegisterDriverEntryType;
// internal/driverloader does not register into it), method lookup by name,
// and initializer invocation.
type ReflectionExports struct {
	mu    sync.RWMutex
	types map[string]DriverEntryType
}

// NewReflectionExports returns an empty registry.
func NewReflectionExports() *ReflectionExports {
	return &ReflectionExports{types: make(map[string]DriverEntryType)}
}

// RegisterDriverEntryType makes a loaded driver's entry value reachable by
// name through FindDriverEntryType.
func (r *ReflectionExports) RegisterDriverEntryType(name string, entry any) {
	r.mu.Lock()
	r.types[name] = DriverEntryType{Name: name, Value: reflect.ValueOf(entry)}
	r.mu.Unlock()
}

// FindDriverEntryType looks up a previously registered entry type by name.
func (r *ReflectionExports) FindDriverEntryType(name string) (DriverEntryType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// FindMethodByName resolves a method on an entry type's value by name.
func (r *ReflectionExports) FindMethodByName(entry DriverEntryType, methodName string) (reflect.Value, error) {
	m := entry.Value.MethodByName(methodName)
	if !m.IsValid() {
		return reflect.Value{}, fmt.Errorf("ddk: entry type %q has no method %q", entry.Name, methodName)
	}
	return m, nil
}

// InvokeInitializer calls a resolved zero-argument initializer method and
// reports whether it ran without panicking; a panicking initializer is
// recovered and converted to a failure return per the kernel export ABI's
// never-unwind-across-the-boundary rule (spec section 7).
func InvokeInitializer(initializer reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ddk: driver initializer panicked: %v", r)
		}
	}()
	initializer.Call(nil)
	return nil
}
