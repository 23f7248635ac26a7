package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

// Width is the size in bytes of a fixed-width little-endian integer field.
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

var ErrBufferTooShort = errors.New("buffer too short")

// BufferTooShortError names the first field that does not fit in the buffer.
type BufferTooShortError struct {
	Field string
	Need  int
	Have  int
}

func (e *BufferTooShortError) Error() string {
	return fmt.Sprintf("buffer too short for field %q: need %d bytes, got %d", e.Field, e.Need, e.Have)
}

func (e *BufferTooShortError) Is(target error) bool {
	return target == ErrBufferTooShort
}

// Field locates one integer inside an account buffer.
type Field struct {
	Offset int
	Width  Width
	Signed bool
}

func (f Field) end() int {
	return f.Offset + int(f.Width)
}

// Table maps field names to their location. Tables are static per account
// type and layout version.
type Table map[string]Field

// Values holds decoded fields by name.
type Values map[string]int64

// Size returns the minimum buffer length the table needs.
func (t Table) Size() int {
	size := 0
	for _, f := range t {
		if f.end() > size {
			size = f.end()
		}
	}
	return size
}

// names returns the field names in sorted order so errors are deterministic.
func (t Table) names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects negative offsets, unsupported widths and fields whose end
// does not fit in an int.
func (t Table) Validate() error {
	for _, name := range t.names() {
		f := t[name]
		if f.Offset < 0 {
			return fmt.Errorf("field %q: negative offset %d", name, f.Offset)
		}
		switch f.Width {
		case Width8, Width16, Width32, Width64:
		default:
			return fmt.Errorf("field %q: unsupported width %d", name, f.Width)
		}
		if f.Offset > math.MaxInt-int(f.Width) {
			return fmt.Errorf("field %q: offset %d overflows", name, f.Offset)
		}
	}
	return nil
}

// Decode reads every field of table from buf. All fields are bounds-checked
// before any is read; a short buffer never yields partial values.
func Decode(buf []byte, table Table) (Values, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	names := table.names()
	for _, name := range names {
		f := table[name]
		if f.end() > len(buf) {
			return nil, &BufferTooShortError{Field: name, Need: f.end(), Have: len(buf)}
		}
	}

	out := make(Values, len(names))
	for _, name := range names {
		out[name] = readField(buf, table[name])
	}
	return out, nil
}

func readField(buf []byte, f Field) int64 {
	b := buf[f.Offset:f.end()]
	switch f.Width {
	case Width8:
		if f.Signed {
			return int64(int8(b[0]))
		}
		return int64(b[0])
	case Width16:
		v := binary.LittleEndian.Uint16(b)
		if f.Signed {
			return int64(int16(v))
		}
		return int64(v)
	case Width32:
		v := binary.LittleEndian.Uint32(b)
		if f.Signed {
			return int64(int32(v))
		}
		return int64(v)
	default:
		// 64-bit fields keep their bit pattern; unsigned callers cast back to uint64
		return int64(binary.LittleEndian.Uint64(b))
	}
}
