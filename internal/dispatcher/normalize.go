package dispatcher

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	"github.com/tekup/cursorhooks/pkg/hook"
)

var (
	// ErrNoValue is returned when a hook returns nothing.
	ErrNoValue = errors.New("hook returned no value")

	// ErrMalformedResult is returned when a hook's return value is not structured.
	ErrMalformedResult = errors.New("hook returned a malformed result")
)

const (
	fieldSuccess  = "success"
	fieldData     = "data"
	fieldError    = "error"
	fieldWarnings = "warnings"
)

// normalize converts the raw return value of a hook into a Result.
//
// hook.Result values pass through unchanged. Maps and structs are read in
// place and their data is kept as the original Go value. JSON text returned
// by script and executable hooks is inspected with gjson. Lists are accepted
// and carry nothing but success. Everything else is malformed.
func normalize(raw any) (hook.Result, error) {
	switch v := raw.(type) {
	case nil:
		return hook.Result{}, ErrNoValue
	case hook.Result:
		return v, nil
	case *hook.Result:
		if v == nil {
			return hook.Result{}, ErrNoValue
		}

		return *v, nil
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	case map[string]any:
		return fromFields(func(name string) (any, bool) {
			value, ok := v[name]

			return value, ok
		}), nil
	}

	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return hook.Result{}, ErrNoValue
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return hook.Result{}, errors.Wrapf(ErrMalformedResult, "map keys of %T are not strings", raw)
		}

		return fromFields(mapLookup(rv)), nil
	case reflect.Struct:
		return fromFields(structLookup(rv)), nil
	case reflect.Slice, reflect.Array:
		return hook.Result{Success: true}, nil
	default:
		return hook.Result{}, errors.Wrapf(ErrMalformedResult, "expected a structured value, got %T", raw)
	}
}

// fromFields builds a Result from a field lookup. Only an explicit boolean
// false clears success.
func fromFields(lookup func(name string) (any, bool)) hook.Result {
	result := hook.Result{Success: true}

	if s, ok := lookup(fieldSuccess); ok {
		if b, isBool := s.(bool); isBool && !b {
			result.Success = false
		}
	}

	if data, ok := lookup(fieldData); ok {
		result.Data = data
	}

	if msg, ok := lookup(fieldError); ok {
		result.Error = errorText(msg)
	}

	if warnings, ok := lookup(fieldWarnings); ok {
		result.Warnings = warningList(warnings)
	}

	return result
}

func mapLookup(rv reflect.Value) func(string) (any, bool) {
	return func(name string) (any, bool) {
		value := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}

		return value.Interface(), true
	}
}

// structLookup matches exported fields by json tag name or field name,
// ignoring case.
func structLookup(rv reflect.Value) func(string) (any, bool) {
	t := rv.Type()

	return func(name string) (any, bool) {
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			key := field.Name

			if tag, _, _ := strings.Cut(field.Tag.Get("json"), ","); tag == "-" {
				continue
			} else if tag != "" {
				key = tag
			}

			if strings.EqualFold(key, name) {
				return rv.Field(i).Interface(), true
			}
		}

		return nil, false
	}
}

func errorText(v any) string {
	switch msg := v.(type) {
	case nil:
		return ""
	case string:
		return msg
	case error:
		return msg.Error()
	}

	if doc, err := json.Marshal(v); err == nil {
		return string(doc)
	}

	return fmt.Sprint(v)
}

func warningList(v any) []string {
	switch w := v.(type) {
	case nil:
		return nil
	case string:
		return []string{w}
	case []string:
		return w
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []string{fmt.Sprint(v)}
	}

	warnings := make([]string, 0, rv.Len())
	for i := range rv.Len() {
		warnings = append(warnings, fmt.Sprint(rv.Index(i).Interface()))
	}

	return warnings
}

// normalizeJSON reads a result from JSON text. Data is kept as the raw JSON
// so numbers survive unchanged.
func normalizeJSON(doc []byte) (hook.Result, error) {
	if len(strings.TrimSpace(string(doc))) == 0 {
		return hook.Result{}, ErrNoValue
	}

	if !gjson.ValidBytes(doc) {
		return hook.Result{}, errors.Wrap(ErrMalformedResult, "output is not valid JSON")
	}

	parsed := gjson.ParseBytes(doc)

	switch {
	case parsed.IsArray():
		return hook.Result{Success: true}, nil
	case !parsed.IsObject():
		return hook.Result{}, errors.Wrapf(ErrMalformedResult, "expected an object, got %s", describe(parsed))
	}

	result := hook.Result{Success: true}

	if s := parsed.Get(fieldSuccess); s.Exists() && s.Type == gjson.False {
		result.Success = false
	}

	if data := parsed.Get(fieldData); data.Exists() {
		result.Data = json.RawMessage(data.Raw)
	}

	if msg := parsed.Get(fieldError); msg.Exists() && msg.Type != gjson.Null {
		if msg.Type == gjson.String {
			result.Error = msg.String()
		} else {
			result.Error = msg.Raw
		}
	}

	switch warnings := parsed.Get(fieldWarnings); {
	case warnings.IsArray():
		for _, w := range warnings.Array() {
			result.Warnings = append(result.Warnings, w.String())
		}
	case warnings.Type == gjson.String:
		result.Warnings = []string{warnings.String()}
	}

	return result, nil
}

func describe(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.String:
		return "a string"
	case gjson.Number:
		return "a number"
	case gjson.True, gjson.False:
		return "a boolean"
	default:
		return r.Type.String()
	}
}
