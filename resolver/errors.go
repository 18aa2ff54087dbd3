package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centraunit/grapht/internal/metrics"
	"github.com/centraunit/grapht/spi"
)

// Error codes reported by Code methods.
const (
	CodeUnresolvable        = "UNRESOLVABLE_DESIRE"
	CodeAmbiguous           = "AMBIGUOUS_BINDING"
	CodeCyclic              = "CYCLIC_DEPENDENCY"
	CodeResolutionLoop      = "RESOLUTION_LOOP"
	CodeInvalidSatisfaction = "INVALID_SATISFACTION"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrUnresolvable        = errors.New("unresolvable desire")
	ErrAmbiguous           = errors.New("ambiguous binding")
	ErrCyclic              = errors.New("cyclic dependency")
	ErrResolutionLoop      = errors.New("resolution loop")
	ErrInvalidSatisfaction = errors.New("invalid satisfaction")
)

func contextString(ctx []spi.ContextElement) string {
	if len(ctx) == 0 {
		return "[]"
	}
	parts := make([]string, len(ctx))
	for i, e := range ctx {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func chainString(chain []spi.Desire) string {
	parts := make([]string, len(chain))
	for i, d := range chain {
		parts[i] = d.String()
	}
	return strings.Join(parts, " -> ")
}

// UnresolvableDesireError is returned when no bind rule applies to a desire
// and it has no default.
type UnresolvableDesireError struct {
	Desire  spi.Desire
	Context []spi.ContextElement
	Err     error
}

func (e *UnresolvableDesireError) Error() string {
	msg := fmt.Sprintf("no binding found for %s in context %s", e.Desire, contextString(e.Context))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnresolvableDesireError) Unwrap() error { return e.Err }

func (e *UnresolvableDesireError) Is(target error) bool { return target == ErrUnresolvable }

func (e *UnresolvableDesireError) Code() string { return CodeUnresolvable }

// AmbiguousBindingError is returned when equally specific rules without a
// declared order rewrite a desire differently.
type AmbiguousBindingError struct {
	Desire  spi.Desire
	Context []spi.ContextElement
	Rules   []spi.BindRule
}

func (e *AmbiguousBindingError) Error() string {
	rules := make([]string, len(e.Rules))
	for i, r := range e.Rules {
		rules[i] = r.String()
	}
	return fmt.Sprintf("ambiguous binding for %s in context %s: %s",
		e.Desire, contextString(e.Context), strings.Join(rules, "; "))
}

func (e *AmbiguousBindingError) Is(target error) bool { return target == ErrAmbiguous }

func (e *AmbiguousBindingError) Code() string { return CodeAmbiguous }

// CyclicDependencyError is returned when a desire depends on itself. Chain
// lists the desires forming the cycle, outermost first.
type CyclicDependencyError struct {
	Chain []spi.Desire
}

func (e *CyclicDependencyError) Error() string {
	return "circular dependency detected: " + chainString(e.Chain)
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclic }

func (e *CyclicDependencyError) Code() string { return CodeCyclic }

// ResolutionLoopError is returned when bind rules rewrite a desire back to
// an earlier form or exceed the rewrite limit.
type ResolutionLoopError struct {
	Desire spi.Desire
	Chain  []spi.Desire
	Limit  int
}

func (e *ResolutionLoopError) Error() string {
	return fmt.Sprintf("resolution loop for %s (limit %d): %s", e.Desire, e.Limit, chainString(e.Chain))
}

func (e *ResolutionLoopError) Is(target error) bool { return target == ErrResolutionLoop }

func (e *ResolutionLoopError) Code() string { return CodeResolutionLoop }

// InvalidSatisfactionError is returned when the final satisfaction does not
// produce the type originally desired.
type InvalidSatisfactionError struct {
	Desire       spi.Desire
	Satisfaction spi.Satisfaction
}

func (e *InvalidSatisfactionError) Error() string {
	return fmt.Sprintf("%s produces %v, which is not assignable to %v",
		e.Satisfaction, e.Satisfaction.Type(), e.Desire.Type())
}

func (e *InvalidSatisfactionError) Is(target error) bool { return target == ErrInvalidSatisfaction }

func (e *InvalidSatisfactionError) Code() string { return CodeInvalidSatisfaction }

// outcome maps err to a metrics outcome label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeResolved
	case errors.Is(err, ErrUnresolvable):
		return metrics.OutcomeUnresolvable
	case errors.Is(err, ErrAmbiguous):
		return metrics.OutcomeAmbiguous
	case errors.Is(err, ErrCyclic):
		return metrics.OutcomeCycle
	case errors.Is(err, ErrResolutionLoop):
		return metrics.OutcomeLoop
	case errors.Is(err, ErrInvalidSatisfaction):
		return metrics.OutcomeInvalid
	}
	return metrics.OutcomeError
}
