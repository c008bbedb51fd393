package internal

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrInvalidValueType = errors.New("invalid value type")

// ByteLength reports the size of an already-serialized value. Strings, byte
// slices and named types built on them (json.RawMessage etc) are measurable.
func ByteLength(value interface{}) (int, error) {
	switch v := value.(type) {
	case string:
		return len(v), nil
	case []byte:
		return len(v), nil
	case nil:
		return 0, fmt.Errorf("%w: value cannot be nil", ErrInvalidValueType)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len(), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Len(), nil
		}
	}

	return 0, fmt.Errorf("%w: %T has no byte length", ErrInvalidValueType, value)
}
