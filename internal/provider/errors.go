package provider

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindTransient  ErrorKind = "transient"
	KindValidation ErrorKind = "validation"
)

var ErrMissingCredentials = errors.New("provider credentials not configured")

// ProviderError is returned for every failed provider call. StatusCode is 0
// for network level failures.
type ProviderError struct {
	Provider    string
	Message     string
	StatusCode  int
	RawResponse string
	Kind        ErrorKind
	Err         error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Transient() bool { return e.Kind == KindTransient }

type UnsupportedProviderError struct {
	Type      string
	Available []string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q, available: %s", e.Type, strings.Join(e.Available, ", "))
}

func classifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests:
		return KindTransient
	case code >= 500:
		return KindTransient
	default:
		return KindValidation
	}
}

func newStatusError(provider string, code int, body []byte) *ProviderError {
	msg := extractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("%s API error: %d", provider, code)
	}
	return &ProviderError{
		Provider:    provider,
		Message:     msg,
		StatusCode:  code,
		RawResponse: string(body),
		Kind:        classifyStatus(code),
	}
}

func newNetworkError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Message:  err.Error(),
		Kind:     KindTransient,
		Err:      err,
	}
}

// newResponseError reports a 2xx response whose body the provider marked as
// rejected, e.g. Buffer's {"success": false}.
func newResponseError(provider string, code int, obj map[string]any, body []byte) *ProviderError {
	msg := messageFrom(obj)
	if msg == "" {
		msg = fmt.Sprintf("%s rejected the request", provider)
	}
	return &ProviderError{
		Provider:    provider,
		Message:     msg,
		StatusCode:  code,
		RawResponse: string(body),
		Kind:        KindValidation,
	}
}

// extractMessage pulls a readable message out of an error body, falling back
// to the raw text.
func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		if msg := messageFrom(obj); msg != "" {
			return msg
		}
	}
	return truncate(string(trimmed), maxMessageLen)
}

const maxMessageLen = 500

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func messageFrom(obj map[string]any) string {
	if obj == nil {
		return ""
	}
	if msg, ok := obj["message"].(string); ok && msg != "" {
		return msg
	}
	switch e := obj["error"].(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if errs, ok := obj["errors"].([]any); ok {
		for _, item := range errs {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["message"].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	return ""
}
