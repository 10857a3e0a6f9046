// Package convert normalises values exchanged with the protocol engine
// between their textual and binary forms.
package convert

import (
	"fmt"
	"reflect"
)

// ToString returns the byte-for-byte string form of thing.
//
// Go strings are byte sequences, so no transcoding happens: every byte maps
// to itself, matching a "binary" encoding.
func ToString(thing any) (string, error) {
	switch v := thing.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	if b, ok := byteSlice(thing); ok {
		return string(b), nil
	}
	return "", fmt.Errorf("convert: cannot convert %T to string", thing)
}

// ToBytes returns the binary form of thing. A nil input yields nil.
func ToBytes(thing any) ([]byte, error) {
	switch v := thing.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	if b, ok := byteSlice(thing); ok {
		return b, nil
	}
	return nil, fmt.Errorf("convert: tried to convert a non-string of type %T to bytes", thing)
}

// byteSlice unwraps named byte slice types such as domain.Bytes.
func byteSlice(thing any) ([]byte, bool) {
	rv := reflect.ValueOf(thing)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	return rv.Bytes(), true
}

// FromByteValues packs a list of byte values, as found in JSON-encoded
// buffers, into a byte slice.
func FromByteValues(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("convert: value %d at index %d out of byte range", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Equal reports whether a and b have the same binary form.
func Equal(a, b any) (bool, error) {
	as, err := ToString(a)
	if err != nil {
		return false, err
	}
	bs, err := ToString(b)
	if err != nil {
		return false, err
	}
	return as == bs, nil
}
