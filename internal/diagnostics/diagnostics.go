// Package diagnostics provides the diagnostic vocabulary and sink used by
// the lumen compiler's middle-end passes. The definite-initialization pass
// (internal/definit) is its primary producer: every use-before-init,
// double-init, and partial-init-at-boundary finding is reported through a
// Kind defined here, anchored to a position.Span.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/lumen-lang/lumen/internal/position"
)

// Level represents the severity of a diagnostic.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelNote
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	default:
		return "unknown"
	}
}

// Kind enumerates the diagnostic kinds the definite-initialization pass can
// emit. Names mirror the vocabulary of spec.md §6 rather than the Go types
// that trigger them, so a reader can map a Kind straight back to the use
// that produced it.
type Kind int

const (
	KindStoredPropertyNotInitialized Kind = iota
	KindVariableUsedBeforeInitialized
	KindVariableInoutBeforeInitialized
	KindVariableEscapeBeforeInitialized
	KindVariableAddrTakenBeforeInitialized
	KindGlobalVariableFunctionUseUninit
	KindStructNotFullyInitialized
	KindImmutablePropertyAlreadyInitialized
	KindImmutablePropertyPassedInout
	KindSelfUseBeforeInitInDelegatingInit
	KindReturnFromInitWithoutSelfInit
	KindReturnFromInitWithoutInitingSelf
	KindReturnFromInitWithoutInitingStoredProperties
	KindSelfUseBeforeFullyInit
	KindSelfBeforeSuperSelfInit
	KindUseOfSelfBeforeFullyInit
	KindSuperSelfInitNotCalledBeforeReturn
	KindIvarNotInitializedAtSuperInit
	KindIvarNotInitializedAtImplicitSuperInit
	KindSelfInitMultipleTimes
	KindObjectNotFullyInitializedBeforeFailure
)

var kindNames = map[Kind]string{
	KindStoredPropertyNotInitialized:                 "stored_property_not_initialized",
	KindVariableUsedBeforeInitialized:                "variable_used_before_initialized",
	KindVariableInoutBeforeInitialized:                "variable_inout_before_initialized",
	KindVariableEscapeBeforeInitialized:               "variable_escape_before_initialized",
	KindVariableAddrTakenBeforeInitialized:            "variable_addrtaken_before_initialized",
	KindGlobalVariableFunctionUseUninit:               "global_variable_function_use_uninit",
	KindStructNotFullyInitialized:                     "struct_not_fully_initialized",
	KindImmutablePropertyAlreadyInitialized:           "immutable_property_already_initialized",
	KindImmutablePropertyPassedInout:                  "immutable_property_passed_inout",
	KindSelfUseBeforeInitInDelegatingInit:             "self_use_before_init_in_delegating_init",
	KindReturnFromInitWithoutSelfInit:                 "return_from_init_without_self_init",
	KindReturnFromInitWithoutInitingSelf:              "return_from_init_without_initing_self",
	KindReturnFromInitWithoutInitingStoredProperties:  "return_from_init_without_initing_stored_properties",
	KindSelfUseBeforeFullyInit:                        "self_use_before_fully_init",
	KindSelfBeforeSuperSelfInit:                       "self_before_superselfinit",
	KindUseOfSelfBeforeFullyInit:                      "use_of_self_before_fully_init",
	KindSuperSelfInitNotCalledBeforeReturn:            "superselfinit_not_called_before_return",
	KindIvarNotInitializedAtSuperInit:                 "ivar_not_initialized_at_superinit",
	KindIvarNotInitializedAtImplicitSuperInit:         "ivar_not_initialized_at_implicit_superinit",
	KindSelfInitMultipleTimes:                         "selfinit_multiple_times",
	KindObjectNotFullyInitializedBeforeFailure:        "object_not_fully_initialized_before_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "unknown_diagnostic_kind"
}

// Level classifies whether a Kind is always fatal to the compilation. Every
// DI diagnostic is an error: the pass has no warning-level findings.
func (k Kind) Level() Level { return LevelError }

// Diagnostic is a single finding anchored to a source span.
type Diagnostic struct {
	Kind    Kind
	Level   Level
	Message string
	Span    position.Span

	// PathString names the memory-object element the diagnostic concerns,
	// e.g. "self.name" or "x.1", for interpolation into Message by callers
	// that want a uniform rendering.
	PathString string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.String(), d.Level, d.Message)
}

// Sink accepts diagnostics produced by a pass. Report is its only method;
// the pass-manager harness that owns the Sink reads the collected
// diagnostics back through the concrete type (e.g. Manager).
type Sink interface {
	Report(Diagnostic)
}

// Manager is a Sink that de-duplicates by source location: spec.md §7
// requires at most one diagnostic per source location per run, since a
// single invalid use can otherwise cascade into several misleading
// downstream findings.
type Manager struct {
	diagnostics []Diagnostic
	seenAt      map[string]bool
}

// NewManager creates an empty diagnostic manager.
func NewManager() *Manager {
	return &Manager{seenAt: make(map[string]bool)}
}

// Report records d unless another diagnostic already fired at the same
// location.
func (m *Manager) Report(d Diagnostic) {
	key := d.Span.String()
	if m.seenAt[key] {
		return
	}

	m.seenAt[key] = true
	m.diagnostics = append(m.diagnostics, d)
}

// Diagnostics returns all recorded diagnostics in report order.
func (m *Manager) Diagnostics() []Diagnostic {
	return m.diagnostics
}

// HasErrors reports whether any diagnostic at Level error was recorded.
func (m *Manager) HasErrors() bool {
	for _, d := range m.diagnostics {
		if d.Level == LevelError {
			return true
		}
	}

	return false
}

// SortByLocation orders diagnostics by file, then line, then column. Callers
// that render a batch of diagnostics to a terminal or log want a stable,
// source-order presentation regardless of the order passes ran in.
func (m *Manager) SortByLocation() {
	sort.SliceStable(m.diagnostics, func(i, j int) bool {
		a, b := m.diagnostics[i].Span.Start, m.diagnostics[j].Span.Start
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}

		if a.Line != b.Line {
			return a.Line < b.Line
		}

		return a.Column < b.Column
	})
}
