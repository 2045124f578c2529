package idl

import (
	"encoding/hex"
	"strconv"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const maxTypeDepth = 32

// DecodedField is one named argument in declaration order.
type DecodedField struct {
	Name  string
	Type  string
	Value interface{}
}

type DecodedInstruction struct {
	Name        string
	Instruction *IDLInstruction
	Args        []DecodedField
}

// ArgsMap returns the decoded arguments keyed by name.
func (d *DecodedInstruction) ArgsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Args))
	for _, arg := range d.Args {
		out[arg.Name] = arg.Value
	}
	return out
}

// DecodeInstruction matches data against the IDL's discriminators and decodes
// the borsh encoded arguments that follow. Integers wider than 32 bits are
// rendered as decimal strings, public keys as base58, byte strings as hex.
func (idl *IDL) DecodeInstruction(data []byte) (*DecodedInstruction, error) {
	ix, err := idl.InstructionFor(data)
	if err != nil {
		return nil, err
	}

	dec := &argDecoder{
		idl: idl,
		bin: ag_binary.NewBorshDecoder(data[len(ix.Discriminator):]),
	}
	out := &DecodedInstruction{
		Name:        ix.Name,
		Instruction: ix,
		Args:        make([]DecodedField, 0, len(ix.Args)),
	}
	for _, arg := range ix.Args {
		value, err := dec.decode(arg.Type, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %s: arg %s", ix.Name, arg.Name)
		}
		out.Args = append(out.Args, DecodedField{
			Name:  arg.Name,
			Type:  arg.Type.String(),
			Value: value,
		})
	}
	return out, nil
}

type argDecoder struct {
	idl *IDL
	bin *ag_binary.Decoder
}

func (d *argDecoder) decode(t IDLType, depth int) (interface{}, error) {
	if depth > maxTypeDepth {
		return nil, errors.Wrapf(ErrUnsupportedType, "type nesting deeper than %d", maxTypeDepth)
	}

	switch {
	case t.Option != nil:
		some, err := d.bin.ReadOption()
		if err != nil || !some {
			return nil, err
		}
		return d.decode(*t.Option, depth+1)

	case t.COption != nil:
		some, err := d.bin.ReadCOption()
		if err != nil || !some {
			return nil, err
		}
		return d.decode(*t.COption, depth+1)

	case t.Vec != nil:
		n, err := d.bin.ReadLength()
		if err != nil {
			return nil, err
		}
		return d.decodeSeq(*t.Vec, n, depth)

	case t.Array != nil:
		if t.ArrayLen < 0 {
			return nil, errors.Wrapf(ErrInvalidIDL, "negative array length %d", t.ArrayLen)
		}
		if t.Array.Primitive == "u8" {
			b, err := d.bin.ReadNBytes(t.ArrayLen)
			if err != nil {
				return nil, err
			}
			return hex.EncodeToString(b), nil
		}
		return d.decodeSeq(*t.Array, t.ArrayLen, depth)

	case t.Defined != "":
		return d.decodeDefined(t.Defined, depth)

	case t.Unsupported != "":
		return nil, errors.Wrapf(ErrUnsupportedType, "%s", t.Unsupported)
	}

	return d.decodePrimitive(t.Primitive)
}

func (d *argDecoder) decodeSeq(elem IDLType, n int, depth int) (interface{}, error) {
	// Elements take at least one byte each; anything longer than the
	// remaining data cannot decode.
	if n > d.bin.Remaining() {
		return nil, errors.Errorf("sequence length %d exceeds remaining %d bytes", n, d.bin.Remaining())
	}
	out := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.decode(elem, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}

func (d *argDecoder) decodePrimitive(name string) (interface{}, error) {
	switch name {
	case "bool":
		return d.bin.ReadBool()
	case "u8":
		return d.bin.ReadUint8()
	case "i8":
		return d.bin.ReadInt8()
	case "u16":
		return d.bin.ReadUint16(ag_binary.LE)
	case "i16":
		return d.bin.ReadInt16(ag_binary.LE)
	case "u32":
		return d.bin.ReadUint32(ag_binary.LE)
	case "i32":
		return d.bin.ReadInt32(ag_binary.LE)
	case "u64":
		v, err := d.bin.ReadUint64(ag_binary.LE)
		if err != nil {
			return nil, err
		}
		return strconv.FormatUint(v, 10), nil
	case "i64":
		v, err := d.bin.ReadInt64(ag_binary.LE)
		if err != nil {
			return nil, err
		}
		return strconv.FormatInt(v, 10), nil
	case "u128":
		v, err := d.bin.ReadUint128(ag_binary.LE)
		if err != nil {
			return nil, err
		}
		return v.DecimalString(), nil
	case "i128":
		v, err := d.bin.ReadInt128(ag_binary.LE)
		if err != nil {
			return nil, err
		}
		return v.DecimalString(), nil
	case "f32":
		return d.bin.ReadFloat32(ag_binary.LE)
	case "f64":
		return d.bin.ReadFloat64(ag_binary.LE)
	case "string":
		return d.bin.ReadString()
	case "bytes":
		b, err := d.bin.ReadByteSlice()
		if err != nil {
			return nil, err
		}
		return hex.EncodeToString(b), nil
	case "publicKey", "pubkey":
		b, err := d.bin.ReadNBytes(32)
		if err != nil {
			return nil, err
		}
		return base58.Encode(b), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "%q", name)
}

func (d *argDecoder) decodeDefined(name string, depth int) (interface{}, error) {
	def, ok := d.idl.typeDef(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedType, "undefined type %q", name)
	}

	switch def.Type.Kind {
	case "struct":
		return d.decodeFields(def.Type.Fields, depth)

	case "enum":
		idx, err := d.bin.ReadUint8()
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(def.Type.Variants) {
			return nil, errors.Errorf("enum %s: variant %d out of range", name, idx)
		}
		variant := def.Type.Variants[idx]
		if variant.Fields.Len() == 0 {
			return variant.Name, nil
		}
		fields, err := d.decodeFields(variant.Fields, depth)
		if err != nil {
			return nil, errors.Wrapf(err, "enum %s variant %s", name, variant.Name)
		}
		return map[string]interface{}{variant.Name: fields}, nil

	case "type", "alias":
		if def.Type.Alias == nil {
			return nil, errors.Wrapf(ErrUnsupportedType, "alias %q has no target", name)
		}
		return d.decode(*def.Type.Alias, depth+1)
	}
	return nil, errors.Wrapf(ErrUnsupportedType, "kind %q of %q", def.Type.Kind, name)
}

func (d *argDecoder) decodeFields(fields IDLFields, depth int) (interface{}, error) {
	if len(fields.Tuple) > 0 {
		out := make([]interface{}, 0, len(fields.Tuple))
		for i, t := range fields.Tuple {
			v, err := d.decode(t, depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "field %d", i)
			}
			out = append(out, v)
		}
		return out, nil
	}

	out := make(map[string]interface{}, len(fields.Named))
	for _, f := range fields.Named {
		v, err := d.decode(f.Type, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		out[f.Name] = v
	}
	return out, nil
}
