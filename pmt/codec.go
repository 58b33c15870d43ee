package pmt

import "github.com/vmihailenco/msgpack/v5"

// wireValue is the on-the-wire shape used to msgpack-encode a Value. It is
// unexported; callers only ever see Value, which implements
// msgpack.CustomEncoder/CustomDecoder in terms of this shape.
type wireValue struct {
	Kind   Kind        `msgpack:"k"`
	Sym    string      `msgpack:"s,omitempty"`
	Int    int64       `msgpack:"i,omitempty"`
	Real   float64     `msgpack:"f,omitempty"`
	Bool   bool        `msgpack:"b,omitempty"`
	Str    string      `msgpack:"str,omitempty"`
	Pair   []wireValue `msgpack:"p,omitempty"`
	Vector []wireValue `msgpack:"v,omitempty"`
}

func (v Value) toWire() wireValue {
	w := wireValue{Kind: v.kind}
	switch v.kind {
	case KindSymbol:
		w.Sym = v.sym.name
	case KindInt:
		w.Int = v.i
	case KindReal:
		w.Real = v.f
	case KindBool:
		w.Bool = v.b
	case KindString:
		w.Str = v.s
	case KindPair:
		w.Pair = []wireValue{v.pair[0].toWire(), v.pair[1].toWire()}
	case KindVector:
		w.Vector = make([]wireValue, len(v.vec))
		for i, e := range v.vec {
			w.Vector[i] = e.toWire()
		}
	}
	return w
}

func fromWire(w wireValue) Value {
	switch w.Kind {
	case KindSymbol:
		return FromSymbolName(w.Sym)
	case KindInt:
		return FromInt(w.Int)
	case KindReal:
		return FromReal(w.Real)
	case KindBool:
		return FromBool(w.Bool)
	case KindString:
		return FromString(w.Str)
	case KindPair:
		return FromPair(fromWire(w.Pair[0]), fromWire(w.Pair[1]))
	case KindVector:
		vs := make([]Value, len(w.Vector))
		for i, e := range w.Vector {
			vs[i] = fromWire(e)
		}
		return FromVector(vs...)
	default:
		return Nil
	}
}

// EncodeMsgpack implements msgpack.CustomEncoder so a Value can be embedded
// directly in any msgpack-encoded struct, or encoded on its own with
// Marshal (the control plane decodes its command payloads with Unmarshal).
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(v.toWire())
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w wireValue
	if err := dec.Decode(&w); err != nil {
		return err
	}
	*v = fromWire(w)
	return nil
}

// Marshal encodes v as a standalone msgpack payload.
func Marshal(v Value) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes a standalone msgpack payload produced by Marshal.
func Unmarshal(data []byte) (Value, error) {
	var v Value
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return Nil, err
	}
	return v, nil
}
