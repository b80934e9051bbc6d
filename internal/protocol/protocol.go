// Package protocol implements the binary room protocol exchanged with the room server.
//
// Every WebSocket frame carries exactly one envelope encoded with the protobuf wire format.
// Client and server envelopes are closed sum types: each variant is a Go struct sealed by an
// unexported case method, so a type switch over an envelope covers a known, finite set.
package protocol

import (
	"errors"
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	maxPayloadSize = 10 * 1024 * 1024 // 10MB max frame size
)

var (
	errPayloadTooLarge = errors.New("payload exceeds maximum size")
	errWireType        = errors.New("unexpected wire type")
)

// DecodeError reports a frame that could not be decoded.
type DecodeError struct {
	Envelope string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Envelope, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// message is implemented by every struct that travels on the wire.
type message interface {
	appendTo(e *encoder)
	unmarshal(b []byte) error
}

type encoder struct {
	buf []byte
}

func (e *encoder) varint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
}

func (e *encoder) int32(num protowire.Number, v int32) {
	e.varint(num, uint64(int64(v)))
}

func (e *encoder) uint32(num protowire.Number, v uint32) {
	e.varint(num, uint64(v))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	e.varint(num, protowire.EncodeBool(v))
}

// optional fields are written whenever present, even when zero.
func (e *encoder) optUint32(num protowire.Number, v *uint32) {
	if v == nil {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, uint64(*v))
}

func (e *encoder) optBool(num protowire.Number, v *bool) {
	if v == nil {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, protowire.EncodeBool(*v))
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendString(e.buf, v)
}

func (e *encoder) strings(num protowire.Number, vs []string) {
	for _, v := range vs {
		e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
		e.buf = protowire.AppendString(e.buf, v)
	}
}

func (e *encoder) int32s(num protowire.Number, vs []int32) {
	for _, v := range vs {
		e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
		e.buf = protowire.AppendVarint(e.buf, uint64(int64(v)))
	}
}

// message always writes the field so that empty variants keep their presence.
func (e *encoder) message(num protowire.Number, m message) {
	sub := encoder{}
	m.appendTo(&sub)
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, sub.buf)
}

// stringMap writes map<string,string> entries sorted by key so output is deterministic.
func (e *encoder) stringMap(num protowire.Number, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry := encoder{}
		entry.string(1, k)
		entry.string(2, m[k])
		e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
		e.buf = protowire.AppendBytes(e.buf, entry.buf)
	}
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

type field struct {
	num protowire.Number
	typ protowire.Type
	x   uint64
	raw []byte
	// err collects the first wire type mismatch seen by a reader.
	err *error
}

func (f field) is(want protowire.Type) bool {
	if f.typ == want {
		return true
	}
	if f.err != nil && *f.err == nil {
		*f.err = fmt.Errorf("field %d: %w: got %d, want %d", f.num, errWireType, f.typ, want)
	}
	return false
}

func (f field) int32() int32 {
	if !f.is(protowire.VarintType) {
		return 0
	}
	return int32(f.x)
}

func (f field) uint32() uint32 {
	if !f.is(protowire.VarintType) {
		return 0
	}
	return uint32(f.x)
}

func (f field) bool() bool {
	if !f.is(protowire.VarintType) {
		return false
	}
	return f.x != 0
}

func (f field) string() string {
	if !f.is(protowire.BytesType) {
		return ""
	}
	return string(f.raw)
}

// bytes returns the payload of a length-delimited field, such as an embedded message.
func (f field) bytes() []byte {
	if !f.is(protowire.BytesType) {
		return nil
	}
	return f.raw
}

// int32s accepts both packed and unpacked repeated encodings.
func (f field) int32s() ([]int32, error) {
	if f.typ == protowire.VarintType {
		return []int32{int32(f.x)}, nil
	}
	var out []int32
	b := f.raw
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, int32(v))
		b = b[n:]
	}
	return out, nil
}

// eachField walks the top-level fields of b. Fixed-width fields are skipped.
func eachField(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.x, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.raw, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.VarintType && typ != protowire.BytesType {
			continue
		}
		var mismatch error
		f.err = &mismatch
		if err := fn(f); err != nil {
			return err
		}
		if mismatch != nil {
			return mismatch
		}
	}
	return nil
}

func decodeStringMapEntry(raw []byte) (string, string, error) {
	var k, v string
	err := eachField(raw, func(f field) error {
		switch f.num {
		case 1:
			k = f.string()
		case 2:
			v = f.string()
		}
		return nil
	})
	return k, v, err
}

func encodeEnvelope(num protowire.Number, m message) ([]byte, error) {
	e := encoder{}
	e.message(num, m)
	if len(e.buf) > maxPayloadSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", errPayloadTooLarge, len(e.buf), maxPayloadSize)
	}
	return e.buf, nil
}

type oneofCase[T message] struct {
	name string
	new  func() T
}

// decodeOneof returns the last recognized variant of a oneof envelope, or the zero T when the
// envelope carries no variant this build knows about.
func decodeOneof[T message](data []byte, cases map[protowire.Number]oneofCase[T]) (T, error) {
	var out T
	err := eachField(data, func(f field) error {
		c, ok := cases[f.num]
		if !ok {
			return nil
		}
		m := c.new()
		if err := m.unmarshal(f.bytes()); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
		out = m
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
