package record

import (
	"fmt"

	"firestige.xyz/stratum/pkg/wire"
)

// Payload is anything that can serialize itself as a record's body,
// typically the next header of a packet stack.
type Payload interface {
	Serialize(dst []byte) []byte
	Size() int
}

// Integer and byte-string access capabilities of field codecs.
type (
	uintField  interface{ Value() uint64 }
	uintSetter interface{ Set(uint64) }
	byteSetter interface{ Set([]byte) }
)

type slot struct {
	def   Def
	field wire.Field
	group *bitGroup
	seq   *Sequence
}

type ref struct {
	sl  *slot
	sub string // non-empty when the name addresses a bit-group sub-field
}

// Record is an ordered, named collection of typed fields plus a trailing
// body slot holding either raw bytes or the next header. Fields are read
// and written in serialization order, which defaults to declaration
// order and may be overridden per record type.
type Record struct {
	name    string
	slots   []*slot
	byField map[string]ref
	order   []*slot
	body    []byte
	payload Payload

	lenField string
	lenFn    func(*Record) uint64
}

// New instantiates a record from its field declarations and applies
// defaults and derived-default builders. Declaration mistakes (duplicate
// names, bad bit widths, unknown cross-references) panic: they are
// programming errors in a protocol definition, not runtime conditions.
func New(name string, defs ...Def) *Record {
	r := &Record{
		name:    name,
		byField: make(map[string]ref, len(defs)),
	}
	for i := range defs {
		def := defs[i]
		sl := &slot{def: def}
		switch {
		case def.group != nil:
			def.group.validate(name)
			sl.group = &bitGroup{def: def.group, phys: def.group.newField(name)}
			for _, sub := range def.group.subs {
				r.declare(sub.name, ref{sl: sl, sub: sub.name})
			}
		case def.makeSeq != nil:
			sl.seq = def.makeSeq()
		default:
			if def.make == nil {
				panic(fmt.Sprintf("stratum: record %s: field %s has no codec", name, def.name))
			}
			sl.field = def.make()
		}
		r.declare(def.name, ref{sl: sl})
		r.slots = append(r.slots, sl)
	}
	r.order = r.slots

	r.applyDefaults()
	for _, sl := range r.slots {
		if sl.def.build != nil {
			if err := r.SetUint(sl.def.name, sl.def.build(r)); err != nil {
				panic(fmt.Sprintf("stratum: record %s: built default for %s: %v", name, sl.def.name, err))
			}
		}
	}
	return r
}

func (r *Record) declare(name string, rf ref) {
	if name == "" {
		panic(fmt.Sprintf("stratum: record %s: empty field name", r.name))
	}
	if _, dup := r.byField[name]; dup {
		panic(fmt.Sprintf("stratum: record %s: duplicate field %s", r.name, name))
	}
	r.byField[name] = rf
}

func (r *Record) applyDefaults() {
	for _, sl := range r.slots {
		switch {
		case sl.group != nil:
			for _, sub := range sl.def.group.subs {
				if sub.hasDefault {
					if err := sl.group.set(sub.name, sub.defaultVal); err != nil {
						panic(fmt.Sprintf("stratum: record %s: default for %s: %v", r.name, sub.name, err))
					}
				}
			}
		case sl.field != nil:
			if sl.def.hasDefault {
				if s, ok := sl.field.(uintSetter); ok {
					s.Set(sl.def.defaultUint)
				}
			}
			if sl.def.defaultBytes != nil {
				if s, ok := sl.field.(byteSetter); ok {
					s.Set(sl.def.defaultBytes)
				}
			}
		}
	}
}

// WithOrder overrides the serialization order. Every slot name must
// appear exactly once; bit-group subs are addressed by their group name.
func (r *Record) WithOrder(names ...string) *Record {
	if len(names) != len(r.slots) {
		panic(fmt.Sprintf("stratum: record %s: order names %d, slots %d", r.name, len(names), len(r.slots)))
	}
	order := make([]*slot, 0, len(names))
	for _, name := range names {
		rf, ok := r.byField[name]
		if !ok || rf.sub != "" {
			panic(fmt.Sprintf("stratum: record %s: order references unknown slot %s", r.name, name))
		}
		order = append(order, rf.sl)
	}
	r.order = order
	return r
}

// WithCalcLength installs the record's length derivation: CalcLength
// stores fn's result into the named field. Derivation never runs
// implicitly on mutation.
func (r *Record) WithCalcLength(field string, fn func(*Record) uint64) *Record {
	if _, ok := r.byField[field]; !ok {
		panic(fmt.Sprintf("stratum: record %s: length field %s not declared", r.name, field))
	}
	r.lenField = field
	r.lenFn = fn
	return r
}

// ProtocolName returns the record's protocol name.
func (r *Record) ProtocolName() string { return r.name }

// FieldNames returns the leaf field names in declaration order, with
// bit-group sub-fields expanded in place of their group.
func (r *Record) FieldNames() []string {
	names := make([]string, 0, len(r.slots))
	for _, sl := range r.slots {
		if sl.group != nil {
			for _, sub := range sl.def.group.subs {
				names = append(names, sub.name)
			}
			continue
		}
		names = append(names, sl.def.name)
	}
	return names
}

func (r *Record) resolve(name string) (ref, error) {
	rf, ok := r.byField[name]
	if !ok {
		return ref{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, r.name, name)
	}
	return rf, nil
}

// Uint returns the integer value of a field or bit-group sub-field.
func (r *Record) Uint(name string) (uint64, error) {
	rf, err := r.resolve(name)
	if err != nil {
		return 0, err
	}
	switch {
	case rf.sub != "":
		return rf.sl.group.get(rf.sub)
	case rf.sl.group != nil:
		return rf.sl.group.phys.Value(), nil
	default:
		if f, ok := rf.sl.field.(uintField); ok {
			return f.Value(), nil
		}
	}
	return 0, fmt.Errorf("%w: %s.%s is not an integer field", ErrFieldType, r.name, name)
}

// SetUint stores an integer into a field or bit-group sub-field.
func (r *Record) SetUint(name string, v uint64) error {
	rf, err := r.resolve(name)
	if err != nil {
		return err
	}
	switch {
	case rf.sub != "":
		return rf.sl.group.set(rf.sub, v)
	case rf.sl.group != nil:
		rf.sl.group.phys.Set(v)
		return nil
	default:
		if f, ok := rf.sl.field.(uintSetter); ok {
			f.Set(v)
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s is not an integer field", ErrFieldType, r.name, name)
}

// Bytes returns the current wire form of a single field.
func (r *Record) Bytes(name string) ([]byte, error) {
	rf, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	switch {
	case rf.sl.group != nil:
		return rf.sl.group.phys.Serialize(nil), nil
	case rf.sl.seq != nil:
		return rf.sl.seq.Serialize(nil), nil
	default:
		return rf.sl.field.Serialize(nil), nil
	}
}

// SetBytes stores byte content into a byte-string field.
func (r *Record) SetBytes(name string, v []byte) error {
	rf, err := r.resolve(name)
	if err != nil {
		return err
	}
	if rf.sl.field != nil {
		if f, ok := rf.sl.field.(byteSetter); ok {
			f.Set(v)
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s is not a byte-string field", ErrFieldType, r.name, name)
}

// Sequence returns the sequence backing a List field.
func (r *Record) Sequence(name string) (*Sequence, error) {
	rf, err := r.resolve(name)
	if err != nil {
		return nil, err
	}
	if rf.sl.seq == nil {
		return nil, fmt.Errorf("%w: %s.%s is not a sequence field", ErrFieldType, r.name, name)
	}
	return rf.sl.seq, nil
}

// Set stores a value of flexible type: integers store directly, byte
// slices store as content, and strings resolve through the field's enum
// table first, then through the codec's own human-form parser.
func (r *Record) Set(name string, v any) error {
	switch val := v.(type) {
	case uint64:
		return r.SetUint(name, val)
	case uint:
		return r.SetUint(name, uint64(val))
	case uint32:
		return r.SetUint(name, uint64(val))
	case uint16:
		return r.SetUint(name, uint64(val))
	case uint8:
		return r.SetUint(name, uint64(val))
	case int:
		return r.SetUint(name, uint64(val))
	case int64:
		return r.SetUint(name, uint64(val))
	case []byte:
		return r.SetBytes(name, val)
	case string:
		return r.setSymbol(name, val)
	}
	return fmt.Errorf("%w: %s.%s cannot hold %T", ErrFieldType, r.name, name, v)
}

func (r *Record) setSymbol(name, symbol string) error {
	rf, err := r.resolve(name)
	if err != nil {
		return err
	}
	if rf.sl.def.enum != nil {
		v, ok := rf.sl.def.enum[symbol]
		if !ok {
			return fmt.Errorf("%w: %q is not a value of %s.%s", ErrUnknownEnum, symbol, r.name, name)
		}
		return r.SetUint(name, v)
	}
	if rf.sl.field != nil {
		if hs, ok := rf.sl.field.(wire.HumanSetter); ok {
			return hs.SetHuman(symbol)
		}
	}
	return fmt.Errorf("%w: %s.%s cannot be set from a string", ErrFieldType, r.name, name)
}

// Human returns the display form of a field: the matching enum symbol
// when one exists, otherwise the codec's own rendering.
func (r *Record) Human(name string) string {
	rf, err := r.resolve(name)
	if err != nil {
		return ""
	}
	if rf.sl.def.enum != nil {
		if v, err := r.Uint(name); err == nil {
			for sym, ev := range rf.sl.def.enum {
				if ev == v {
					return sym
				}
			}
		}
	}
	switch {
	case rf.sub != "":
		return rf.sl.group.human(rf.sub)
	case rf.sl.group != nil:
		return rf.sl.group.phys.Human()
	case rf.sl.seq != nil:
		return fmt.Sprintf("%d elements", rf.sl.seq.Len())
	default:
		return rf.sl.field.Human()
	}
}

// Read decodes the declared fields, in serialization order, from the
// front of b and returns the bytes consumed. Remaining bytes are left
// alone; Decode additionally claims them as the record body.
func (r *Record) Read(b []byte) (int, error) {
	rest := b
	consumed := 0
	for _, sl := range r.order {
		n, err := r.readSlot(sl, rest)
		if err != nil {
			return consumed, fmt.Errorf("%s.%s: %w", r.name, sl.def.name, err)
		}
		rest = rest[n:]
		consumed += n
	}
	return consumed, nil
}

func (r *Record) readSlot(sl *slot, rest []byte) (int, error) {
	// Count-driven sequences read exactly the sibling-decoded number of
	// elements; everything else is bounded in bytes.
	if sl.seq != nil && sl.def.countBy != nil {
		return sl.seq.ReadCount(rest, int(sl.def.countBy(r)))
	}

	extent := rest
	if sl.def.lengthBy != nil {
		want := sl.def.lengthBy(r)
		if want > uint64(len(rest)) {
			return 0, fmt.Errorf("%w: length source wants %d bytes, %d remain",
				wire.ErrStructural, want, len(rest))
		}
		extent = rest[:want]
	}

	switch {
	case sl.group != nil:
		return sl.group.phys.Read(extent)
	case sl.seq != nil:
		return sl.seq.ReadBudget(extent)
	default:
		return sl.field.Read(extent)
	}
}

// Decode reads the declared fields and claims any trailing bytes as the
// record's raw body, replacing whatever body or payload it held.
func (r *Record) Decode(b []byte) error {
	n, err := r.Read(b)
	if err != nil {
		return err
	}
	r.SetBody(b[n:])
	return nil
}

// SerializeFields appends the declared fields, in serialization order,
// without the body.
func (r *Record) SerializeFields(dst []byte) []byte {
	for _, sl := range r.order {
		switch {
		case sl.group != nil:
			dst = sl.group.phys.Serialize(dst)
		case sl.seq != nil:
			dst = sl.seq.Serialize(dst)
		default:
			dst = sl.field.Serialize(dst)
		}
	}
	return dst
}

// Serialize appends the declared fields followed by the body: raw bytes,
// or the nested payload's own serialization. Stored values are emitted
// as-is; length recomputation is the explicit CalcLength operation.
func (r *Record) Serialize(dst []byte) []byte {
	dst = r.SerializeFields(dst)
	if r.payload != nil {
		return r.payload.Serialize(dst)
	}
	return append(dst, r.body...)
}

// SizeFields reports the serialized length of the declared fields alone.
func (r *Record) SizeFields() int {
	n := 0
	for _, sl := range r.order {
		switch {
		case sl.group != nil:
			n += sl.group.phys.Size()
		case sl.seq != nil:
			n += sl.seq.Size()
		default:
			n += sl.field.Size()
		}
	}
	return n
}

// Size reports the full serialized length including the body.
func (r *Record) Size() int {
	n := r.SizeFields()
	if r.payload != nil {
		return n + r.payload.Size()
	}
	return n + len(r.body)
}

// Body returns the raw body bytes, nil when the body is a nested payload.
func (r *Record) Body() []byte { return r.body }

// SetBody stores a copy of raw bytes as the body, dropping any payload.
// The record exclusively owns its body.
func (r *Record) SetBody(b []byte) {
	r.payload = nil
	if len(b) == 0 {
		r.body = nil
		return
	}
	r.body = append([]byte(nil), b...)
}

// Payload returns the nested payload, nil when the body is raw bytes.
func (r *Record) Payload() Payload { return r.payload }

// SetPayload hands body ownership to a nested payload, dropping any raw
// bytes. Replacing the payload drops the previous owner.
func (r *Record) SetPayload(p Payload) {
	r.body = nil
	r.payload = p
}

// CalcLength recomputes the record's length field through the derivation
// installed with WithCalcLength. Records without one do nothing.
func (r *Record) CalcLength() {
	if r.lenFn == nil {
		return
	}
	if err := r.SetUint(r.lenField, r.lenFn(r)); err != nil {
		panic(fmt.Sprintf("stratum: record %s: calc length: %v", r.name, err))
	}
}
