package wsdecksdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
	timeType       = reflect.TypeOf(time.Time{})
)

// Decode turns a JSON payload into T. It fails with *ContractViolation when a
// required key is missing or null, when an enumeration literal is outside its
// set, or when any nested value does not decode. Optional keys that are absent
// stay nil.
func Decode[T any](data []byte) (T, error) {
	var out T
	entity := typeName(reflect.TypeOf(out))
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return out, violation(entity, "", "empty payload")
	}
	if err := checkRequired(entity, reflect.TypeOf(out), data, ""); err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, asViolation(entity, err)
	}
	return out, nil
}

// DecodeReader is Decode for a stream. The whole body is read first.
func DecodeReader[T any](r io.Reader) (T, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read payload: %w", err)
	}
	return Decode[T](data)
}

// Encode is the structural inverse of Decode. Absent optional fields are
// omitted; enumeration literals are checked on the way out.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, asViolation(typeName(reflect.TypeOf(v)), err)
	}
	return data, nil
}

func asViolation(entity string, err error) error {
	var cv *ContractViolation
	if errors.As(err, &cv) {
		if cv.Entity == entity {
			return cv
		}
		reason := cv.Reason
		if cv.Entity != "" {
			reason = cv.Entity + ": " + reason
		}
		return &ContractViolation{Entity: entity, Path: cv.Path, Reason: reason, Err: err}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ContractViolation{
			Entity: entity,
			Path:   typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
			Err:    err,
		}
	}
	return &ContractViolation{Entity: entity, Reason: "malformed payload", Err: err}
}

// checkRequired walks the declared shape of t alongside the raw payload and
// reports the first required key that is missing or null.
func checkRequired(entity string, t reflect.Type, raw json.RawMessage, path string) error {
	if t == rawMessageType || t == timeType {
		return nil
	}
	if isNull(raw) {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
			return nil
		}
		return violation(entity, path, "must not be null")
	}
	switch t.Kind() {
	case reflect.Pointer:
		return checkRequired(entity, t.Elem(), raw, path)
	case reflect.Struct:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return violation(entity, path, "expected object")
		}
		return checkFields(entity, t, obj, path)
	case reflect.Slice, reflect.Array:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			// Byte arrays such as uuid.UUID are text on the wire.
			return nil
		}
		for i, item := range items {
			if err := checkRequired(entity, t.Elem(), item, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
	case reflect.Map:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return violation(entity, path, "expected object")
		}
		for key, item := range obj {
			if err := checkRequired(entity, t.Elem(), item, joinPath(path, key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFields(entity string, t reflect.Type, obj map[string]json.RawMessage, path string) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, optional, skip := jsonField(f)
		if skip {
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if err := checkFields(entity, ft, obj, path); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		fieldPath := joinPath(path, name)
		raw, ok := obj[name]
		if !ok {
			if optional || f.Type.Kind() == reflect.Pointer {
				continue
			}
			return violation(entity, fieldPath, "required field missing")
		}
		if err := checkRequired(entity, f.Type, raw, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func jsonField(f reflect.StructField) (name string, optional, skip bool) {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			optional = true
		}
	}
	return parts[0], optional, false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}
