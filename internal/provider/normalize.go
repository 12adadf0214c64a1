package provider

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Vendor payloads are decoded into generic maps and read through the lookups
// below, so a field that changes type or disappears degrades to a zero value
// instead of failing the whole response.

func decodeAny(provider string, raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ProviderError{
			Provider:    provider,
			Message:     "malformed response body",
			RawResponse: string(trimmed),
			Kind:        KindTransient,
			Err:         err,
		}
	}
	return v, nil
}

func decodeObject(provider string, raw []byte) (map[string]any, error) {
	v, err := decodeAny(provider, raw)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case nil:
		return map[string]any{}, nil
	default:
		return map[string]any{"data": t}, nil
	}
}

func decodeList(provider string, raw []byte, keys ...string) ([]map[string]any, error) {
	v, err := decodeAny(provider, raw)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []any:
		return objects(t), nil
	case map[string]any:
		for _, k := range keys {
			if arr, ok := t[k].([]any); ok {
				return objects(arr), nil
			}
		}
	}
	return []map[string]any{}, nil
}

func objects(arr []any) []map[string]any {
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func objectsAt(m map[string]any, key string) []map[string]any {
	arr, _ := m[key].([]any)
	return objects(arr)
}

func objectAt(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

// str returns the first non-empty value among keys, formatting numbers.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int64:
			return strconv.FormatInt(v, 10)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func integer(m map[string]any, keys ...string) int64 {
	for _, k := range keys {
		if n, ok := toFloat(m[k]); ok {
			return int64(n)
		}
	}
	return 0
}

func float(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if n, ok := toFloat(m[k]); ok {
			return n
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		return f, err == nil
	}
	return 0, false
}

// boolean returns the first key holding a boolean-like value, else def.
func boolean(m map[string]any, def bool, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n != 0
			}
		}
	}
	return def
}

// timestamp accepts unix seconds or RFC 3339 strings.
func timestamp(m map[string]any, keys ...string) *time.Time {
	for _, k := range keys {
		switch v := m[k].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil && n > 0 {
				t := time.Unix(n, 0).UTC()
				return &t
			}
		case float64:
			if v > 0 {
				t := time.Unix(int64(v), 0).UTC()
				return &t
			}
		case string:
			if v == "" {
				continue
			}
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				t = t.UTC()
				return &t
			}
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				t := time.Unix(n, 0).UTC()
				return &t
			}
		}
	}
	return nil
}

// rawMetadata copies m minus the keys already lifted into normalized fields.
func rawMetadata(m map[string]any, mapped ...string) map[string]any {
	skip := make(map[string]struct{}, len(mapped))
	for _, k := range mapped {
		skip[k] = struct{}{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := skip[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

// engagementRate prefers a provider supplied rate and otherwise derives one
// from interactions over impressions, as a percentage with two decimals.
func engagementRate(supplied float64, s *AnalyticsSnapshot) float64 {
	rate := supplied
	if rate == 0 && s.Impressions > 0 {
		interactions := s.Likes + s.Comments + s.Shares + s.Clicks
		rate = float64(interactions) / float64(s.Impressions) * 100
	}
	r, _ := strconv.ParseFloat(fmt.Sprintf("%.2f", rate), 64)
	return r
}

func stringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
