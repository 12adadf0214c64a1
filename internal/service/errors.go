package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/maheshrc27/postbridge/internal/provider"
	"github.com/maheshrc27/postbridge/internal/repository"
)

const (
	KindConfiguration      = "configuration"
	KindValidation         = "validation"
	KindProviderAuth       = "provider_auth"
	KindProviderTransient  = "provider_transient"
	KindProviderValidation = "provider_validation"
	KindStateConflict      = "state_conflict"
	KindNotFound           = "not_found"
	KindInternal           = "internal"
)

// OrchestrationError is the typed failure returned by orchestration and
// provider-facing services. Retriable tells the caller whether invoking the
// same operation again may succeed.
type OrchestrationError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retriable bool   `json:"retriable"`
	Err       error  `json:"-"`
}

func (e *OrchestrationError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

func configurationError(format string, args ...any) *OrchestrationError {
	return &OrchestrationError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...any) *OrchestrationError {
	return &OrchestrationError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func stateConflict(format string, args ...any) *OrchestrationError {
	return &OrchestrationError{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *OrchestrationError {
	return &OrchestrationError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// classify lifts any error into an OrchestrationError.
func classify(err error) *OrchestrationError {
	if err == nil {
		return nil
	}

	var oe *OrchestrationError
	if errors.As(err, &oe) {
		return oe
	}

	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		out := &OrchestrationError{Message: pe.Message, Err: err}
		switch pe.Kind {
		case provider.KindAuth:
			out.Kind = KindProviderAuth
		case provider.KindTransient:
			out.Kind = KindProviderTransient
			out.Retriable = true
		default:
			out.Kind = KindProviderValidation
		}
		return out
	}

	var ue *provider.UnsupportedProviderError
	if errors.As(err, &ue) {
		return &OrchestrationError{Kind: KindConfiguration, Message: ue.Error(), Err: err}
	}

	if errors.Is(err, provider.ErrMissingCredentials) {
		return &OrchestrationError{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}

	if errors.Is(err, repository.ErrStaleState) {
		return &OrchestrationError{Kind: KindStateConflict, Message: err.Error(), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &OrchestrationError{Kind: KindProviderTransient, Message: err.Error(), Retriable: true, Err: err}
	}

	return &OrchestrationError{Kind: KindInternal, Message: err.Error(), Err: err}
}
