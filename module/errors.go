package module

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies runtime failures so hosts can react programmatically.
type Kind string

const (
	KindUnknown      Kind = ""
	KindDiscovery    Kind = "discovery"
	KindCycle        Kind = "cycle"
	KindNotFound     Kind = "not-found"
	KindRegistration Kind = "registration"
	KindDuplicate    Kind = "duplicate"
	KindExport       Kind = "export"
)

var (
	ErrCycleDetected      = errors.New("module: dependency cycle detected")
	ErrModuleNotFound     = errors.New("module: module not found")
	ErrRegistrationFailed = errors.New("module: registration failed")
	ErrDuplicateModule    = errors.New("module: duplicate module")
)

// CycleError names the edge that closes a dependency cycle.
type CycleError struct {
	From string
	To   string
	// Path lists the traversal from To back around to To when known.
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) > 1 {
		return fmt.Sprintf("module: dependency cycle detected at %s -> %s (%s)", e.From, e.To, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("module: dependency cycle detected at %s -> %s", e.From, e.To)
}

func (e *CycleError) Is(target error) bool { return target == ErrCycleDetected }

// Kind implements Classified.
func (e *CycleError) Kind() Kind { return KindCycle }

// NotFoundError reports a requested or required module that was never discovered.
type NotFoundError struct {
	Name       string
	RequiredBy string
}

func (e *NotFoundError) Error() string {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Sprintf("module: blank name %q not found", e.Name)
	}
	if e.RequiredBy != "" {
		return fmt.Sprintf("module: %s (required by %s) not found", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("module: %s not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrModuleNotFound }

// Kind implements Classified.
func (e *NotFoundError) Kind() Kind { return KindNotFound }

// RegistrationError wraps a failure raised by RegisterServices.
type RegistrationError struct {
	Name string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("module: register %s: %v", e.Name, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

func (e *RegistrationError) Is(target error) bool { return target == ErrRegistrationFailed }

// Kind implements Classified.
func (e *RegistrationError) Kind() Kind { return KindRegistration }

// DuplicateError is returned by strict registries when two discovered modules
// share a name.
type DuplicateError struct {
	Name     string
	Existing string
	Incoming string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("module: duplicate module %s (%s and %s)", e.Name, e.Existing, e.Incoming)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateModule }

// Kind implements Classified.
func (e *DuplicateError) Kind() Kind { return KindDuplicate }

// Classified is implemented by errors that carry a Kind.
type Classified interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var classified Classified
	if errors.As(err, &classified) {
		return classified.Kind()
	}
	return KindUnknown
}
