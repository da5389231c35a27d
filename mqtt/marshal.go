package mqtt

import (
	"strconv"
	"strings"
)

// ValueMarshaler converts values of type T to a payload for an MQTT Topic.
type ValueMarshaler[T any] func(v T) ([]byte, error)

// ValueUnmarshaler converts an MQTT payload to a value of type T.
type ValueUnmarshaler[T any] func([]byte) (T, error)

var (
	StringMarshaler ValueMarshaler[string] = func(v string) ([]byte, error) {
		return []byte(v), nil
	}

	StringUnmarshaler ValueUnmarshaler[string] = func(bytes []byte) (string, error) {
		return string(bytes), nil
	}

	UintMarshaler ValueMarshaler[uint] = func(v uint) ([]byte, error) {
		return strconv.AppendUint(nil, uint64(v), 10), nil
	}

	// UintUnmarshaler accepts integers and integral floats such as "42.0".
	UintUnmarshaler ValueUnmarshaler[uint] = func(bytes []byte) (uint, error) {
		s := strings.TrimSpace(string(bytes))

		v, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return uint(v), nil
		}

		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f < 0 || f != float64(uint64(f)) {
			return 0, err
		}

		return uint(f), nil
	}
)
