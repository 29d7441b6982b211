package codec

import (
	"math"
	"strconv"
)

// Encoder appends the line protocol form of v to dst and returns the extended slice.
// The returned line carries no trailing newline.
type Encoder[T any] func(dst []byte, v T) []byte

// appendMeasurement escapes commas and spaces.
func appendMeasurement(dst []byte, name string) []byte {
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case ',', ' ':
			dst = append(dst, '\\', c)
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// appendTag writes ",key=value", escaping commas, spaces and equal signs in both halves.
func appendTag(dst []byte, key, value string) []byte {
	dst = append(dst, ',')
	dst = appendTagPart(dst, key)
	dst = append(dst, '=')
	return appendTagPart(dst, value)
}

// appendTagPart escapes commas, spaces and equal signs. Line breaks cannot be
// escaped in line protocol and are dropped.
func appendTagPart(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case ',', ' ', '=':
			dst = append(dst, '\\', c)
		case '\n', '\r':
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// fieldSet writes the field section. Non-finite floats have no line protocol
// form and are left out; the integer volume field keeps the set non-empty.
type fieldSet struct {
	dst []byte
	n   int
}

func (f *fieldSet) float(key string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	f.key(key)
	f.dst = strconv.AppendFloat(f.dst, v, 'f', -1, 64)
}

func (f *fieldSet) int(key string, v int64) {
	f.key(key)
	f.dst = strconv.AppendInt(f.dst, v, 10)
}

func (f *fieldSet) key(key string) {
	if f.n == 0 {
		f.dst = append(f.dst, ' ')
	} else {
		f.dst = append(f.dst, ',')
	}
	f.n++
	f.dst = append(f.dst, key...)
	f.dst = append(f.dst, '=')
}

func appendTimestamp(dst []byte, ts int64) []byte {
	dst = append(dst, ' ')
	return strconv.AppendInt(dst, ts, 10)
}
