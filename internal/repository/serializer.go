package repository

import (
	"bytes"
	"encoding/binary"

	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/dispatch"
)

// serialOp tags each record in a serialized value stream (spec §4.11): a
// value is written as a sequence of operation codes plus references to
// previously-written sub-values, the same nybble/byte-stream-of-opcodes
// idiom component C's CompiledCode uses for instructions, so a cyclic or
// merely shared object graph serializes in finite space and round-trips
// through identity-preserving backreferences rather than copies.
type serialOp byte

const (
	opInteger serialOp = iota
	opAtom
	opTuple
	opBackref
)

// Serializer writes descriptor.Value graphs as an operation-code stream.
// A registry of already-written values, keyed by pointer identity after
// following indirections, lets a shared or self-referential structure
// serialize as a backreference instead of recursing forever.
type Serializer struct {
	seen map[*descriptor.Value]uint32
	next uint32
	buf  bytes.Buffer
}

func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize encodes v as a self-contained byte stream, suitable for
// storage as an Entity's Data and for Deserializer.Deserialize to read
// back.
func (s *Serializer) Serialize(v *descriptor.Value) []byte {
	s.seen = make(map[*descriptor.Value]uint32)
	s.next = 0
	s.buf.Reset()
	s.write(v)
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out
}

func (s *Serializer) write(v *descriptor.Value) {
	v = descriptor.Traversed(v)
	if ref, ok := s.seen[v]; ok {
		s.writeOp(opBackref)
		s.writeVarint(uint64(ref))
		return
	}
	ref := s.next
	s.next++
	s.seen[v] = ref

	switch v.Descriptor().Family() {
	case descriptor.FamilyInteger:
		s.writeOp(opInteger)
		s.writeVarint(zigzag(descriptor.IntegerValue(v)))

	case descriptor.FamilyAtom:
		s.writeOp(opAtom)
		name := descriptor.AtomName(v)
		s.writeVarint(uint64(len(name)))
		s.buf.WriteString(name)

	case descriptor.FamilyTuple:
		tl := v.Descriptor().(descriptor.TupleLike)
		n := tl.Len(v)
		s.writeOp(opTuple)
		s.writeVarint(uint64(n))
		for i := 1; i <= n; i++ {
			s.write(tl.At(v, i))
		}

	default:
		// Families not yet backed by a concrete descriptor.Value
		// constructor in this tree (map, set, function, continuation,
		// variable, type, phrase) have no encoding to fall back to;
		// extending this switch is where that support belongs.
		panic("serializer: unsupported value family " + v.Descriptor().Name())
	}
}

func (s *Serializer) writeOp(op serialOp) { s.buf.WriteByte(byte(op)) }

func (s *Serializer) writeVarint(n uint64) {
	var tmp [binary.MaxVarintLen64]byte
	k := binary.PutUvarint(tmp[:], n)
	s.buf.Write(tmp[:k])
}

func zigzag(n int64) uint64   { return uint64((n << 1) ^ (n >> 63)) }
func unzigzag(n uint64) int64 { return int64(n>>1) ^ -int64(n&1) }

// Deserializer reads back a stream produced by Serializer, reconstructing
// shared and cyclic structure from backreferences and interning every
// atom it reads through atoms, so repeated atom names resolve to the
// same process-wide identity on the far side of a round trip (spec §8
// property 6).
type Deserializer struct {
	atoms *dispatch.AtomTable
	buf   []byte
	pos   int
	built []*descriptor.Value
}

// NewDeserializer builds a Deserializer that interns decoded atom names
// through atoms. Passing the same table used to build the original
// values is what makes atom identity survive the round trip: interning
// is idempotent, so a name already known to the table resolves to the
// existing *dispatch.Atom rather than a fresh one.
func NewDeserializer(atoms *dispatch.AtomTable) *Deserializer {
	return &Deserializer{atoms: atoms}
}

// Deserialize reads one value from data, which must be exactly the
// output of a prior Serializer.Serialize call.
func (d *Deserializer) Deserialize(data []byte) (*descriptor.Value, error) {
	d.buf = data
	d.pos = 0
	d.built = nil
	v, err := d.read()
	if err != nil {
		return nil, diagnostic.Runtime(diagnostic.CodeSerializationFailed, "deserializing value: %v", err)
	}
	return v, nil
}

func (d *Deserializer) read() (*descriptor.Value, error) {
	if d.pos >= len(d.buf) {
		return nil, errTruncatedStream
	}
	op := serialOp(d.buf[d.pos])
	d.pos++
	switch op {
	case opBackref:
		ref, err := d.readVarint()
		if err != nil {
			return nil, err
		}
		if int(ref) >= len(d.built) {
			return nil, errDanglingBackref
		}
		return d.built[ref], nil

	case opInteger:
		zz, err := d.readVarint()
		if err != nil {
			return nil, err
		}
		v := descriptor.NewInteger(unzigzag(zz))
		d.built = append(d.built, v)
		return v, nil

	case opAtom:
		n, err := d.readVarint()
		if err != nil {
			return nil, err
		}
		if d.pos+int(n) > len(d.buf) {
			return nil, errTruncatedStream
		}
		name := string(d.buf[d.pos : d.pos+int(n)])
		d.pos += int(n)
		if d.atoms != nil {
			d.atoms.Intern(name)
		}
		v := descriptor.NewAtomValue(name)
		d.built = append(d.built, v)
		return v, nil

	case opTuple:
		n, err := d.readVarint()
		if err != nil {
			return nil, err
		}
		// Register the tuple's final identity before descending into its
		// elements: a self-referential element's backreference needs to
		// resolve to this exact *descriptor.Value, not a copy built after
		// the fact.
		v := descriptor.NewObjectTuplePlaceholder(int(n))
		d.built = append(d.built, v)
		for i := 1; i <= int(n); i++ {
			e, err := d.read()
			if err != nil {
				return nil, err
			}
			descriptor.PatchObjectTupleSlot(v, i, e)
		}
		return v, nil

	default:
		return nil, errUnknownOp
	}
}

func (d *Deserializer) readVarint() (uint64, error) {
	n, k := binary.Uvarint(d.buf[d.pos:])
	if k <= 0 {
		return 0, errMalformedVarint
	}
	d.pos += k
	return n, nil
}

type serializerError string

func (e serializerError) Error() string { return string(e) }

const (
	errTruncatedStream  = serializerError("truncated stream")
	errDanglingBackref  = serializerError("dangling backreference")
	errUnknownOp        = serializerError("unknown operation code")
	errMalformedVarint  = serializerError("malformed varint")
)
