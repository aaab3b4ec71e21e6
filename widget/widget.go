// Package widget defines the capability contract a display module must
// satisfy and the registry tracking which modules are usable.
//
// A module is anything that can produce a raster surface of a requested
// size. Modules register a named factory at init time; the registry
// instantiates them at load time and keeps one instance per module for
// the process lifetime, so a module may carry private cache state
// across render calls.
package widget

import (
	"image"

	"github.com/fbdash/fbdash/internal/errors"
)

// Renderable is the one capability a widget module must expose.
type Renderable interface {
	// Render produces a surface of exactly the requested size. The
	// returned image is owned by the caller.
	Render(width, height int) (image.Image, error)
}

// RenderFunc adapts a plain function to the Renderable contract.
type RenderFunc func(width, height int) (image.Image, error)

func (f RenderFunc) Render(width, height int) (image.Image, error) { return f(width, height) }

var _ Renderable = (RenderFunc)(nil)

// Factory creates one module instance. It runs once per successful
// load; returning an error marks the module failed until the next
// retry sweep.
type Factory func() (Renderable, error)

var factoriesRegistered = make(map[string]Factory)

// Register makes a module factory available under name. Built-in
// modules call this from their package init.
func Register(name string, f Factory) {
	if len(name) == 0 || f == nil {
		return
	}
	factoriesRegistered[name] = f
}

// RegisteredFactory returns the factory registered under name, if any.
func RegisteredFactory(name string) (Factory, bool) {
	f, ok := factoriesRegistered[name]
	return f, ok
}

// LoadError records why a module could not be loaded.
type LoadError struct {
	Module string
	Cause  error
}

func (e *LoadError) Error() string {
	if e == nil {
		return `<nil>`
	}
	return `loading module ` + e.Module + `: ` + e.Cause.Error()
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

var _ error = (*LoadError)(nil)

func newLoadError(name string, cause error) error {
	return errors.New(&LoadError{Module: name, Cause: cause})
}
