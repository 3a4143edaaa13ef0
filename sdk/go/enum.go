package wsdecksdk

import (
	"slices"
	"strconv"
	"strings"
)

// Every enumeration in this package is a closed set of string literals. The
// helpers below back MarshalText/UnmarshalText so that a literal outside the set
// never crosses the JSON boundary in either direction.

func marshalEnum[E ~string](name string, v E, set []E) ([]byte, error) {
	if !slices.Contains(set, v) {
		return nil, enumViolation(name, string(v), set)
	}
	return []byte(v), nil
}

func unmarshalEnum[E ~string](name string, text []byte, set []E, dst *E) error {
	v := E(text)
	if !slices.Contains(set, v) {
		return enumViolation(name, string(text), set)
	}
	*dst = v
	return nil
}

func enumViolation[E ~string](name, got string, set []E) *ContractViolation {
	tags := make([]string, 0, len(set))
	for _, v := range set {
		tags = append(tags, strconv.Quote(string(v)))
	}
	return violation(name, "", "%q is not one of [%s]", got, strings.Join(tags, " "))
}

// ParseEnum validates a raw string against an ordered literal set. It is the
// non-JSON entry point used by query parsers and CLI flags.
func ParseEnum[E ~string](name, raw string, set []E) (E, error) {
	var v E
	if err := unmarshalEnum(name, []byte(raw), set, &v); err != nil {
		return v, err
	}
	return v, nil
}
