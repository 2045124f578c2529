// Package idl reads Anchor interface descriptions and uses them to decode
// instruction arguments for programs that have no hand-written decoder.
package idl

import (
	"bytes"
	"encoding/json"
	"strconv"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

var (
	ErrIDLNotFound         = errors.New("idl not found")
	ErrUnknownInstruction  = errors.New("no instruction matches discriminator")
	ErrUnsupportedType     = errors.New("unsupported idl type")
	ErrInvalidIDL          = errors.New("invalid idl")
	ErrDiscriminatorLength = errors.New("instruction data shorter than discriminator")
)

// IDL covers both the legacy layout (top level name, camelCase identifiers,
// no discriminators) and the 0.30 layout (metadata block, explicit
// discriminators).
type IDL struct {
	Version      string              `json:"version"`
	Name         string              `json:"name"`
	Address      string              `json:"address"`
	Metadata     *IDLMetadata        `json:"metadata,omitempty"`
	Instructions []IDLInstruction    `json:"instructions"`
	Accounts     []IDLTypeDefinition `json:"accounts"`
	Events       []IDLEvent          `json:"events"`
	Types        []IDLTypeDefinition `json:"types"`
	Errors       []IDLError          `json:"errors"`

	types map[string]*IDLTypeDefinition
}

type IDLMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Spec    string `json:"spec"`
	Address string `json:"address"`
}

type IDLInstruction struct {
	Name          string       `json:"name"`
	Discriminator []byte       `json:"discriminator"`
	Args          []IDLField   `json:"args"`
	Accounts      []IDLAccount `json:"accounts"`
}

type IDLEvent struct {
	Name          string     `json:"name"`
	Discriminator []byte     `json:"discriminator"`
	Fields        []IDLField `json:"fields"`
}

type IDLField struct {
	Name string  `json:"name"`
	Type IDLType `json:"type"`
}

// IDLAccount is an instruction account. Composite accounts nest their
// members under Accounts.
type IDLAccount struct {
	Name     string       `json:"name"`
	IsMut    bool         `json:"isMut"`
	IsSigner bool         `json:"isSigner"`
	Writable bool         `json:"writable"`
	Signer   bool         `json:"signer"`
	Optional bool         `json:"optional"`
	Accounts []IDLAccount `json:"accounts"`
}

type IDLTypeDefinition struct {
	Name          string          `json:"name"`
	Discriminator []byte          `json:"discriminator"`
	Type          IDLTypeDefShape `json:"type"`
}

type IDLTypeDefShape struct {
	Kind     string           `json:"kind"`
	Fields   IDLFields        `json:"fields"`
	Variants []IDLEnumVariant `json:"variants"`
	Alias    *IDLType         `json:"alias,omitempty"`
}

type IDLEnumVariant struct {
	Name   string    `json:"name"`
	Fields IDLFields `json:"fields"`
}

type IDLError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// IDLFields is either a list of named fields or, for tuple structs and
// tuple enum variants, a list of bare types.
type IDLFields struct {
	Named []IDLField
	Tuple []IDLType
}

func (f IDLFields) Len() int {
	return len(f.Named) + len(f.Tuple)
}

func (f *IDLFields) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "fields must be an array")
	}
	for _, item := range raw {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(item, &probe); err == nil {
			_, hasName := probe["name"]
			_, hasType := probe["type"]
			if hasName && hasType {
				var field IDLField
				if err := json.Unmarshal(item, &field); err != nil {
					return err
				}
				f.Named = append(f.Named, field)
				continue
			}
		}
		var typ IDLType
		if err := json.Unmarshal(item, &typ); err != nil {
			return err
		}
		f.Tuple = append(f.Tuple, typ)
	}
	return nil
}

// IDLType is one argument type. Exactly one of the members is set.
// Unsupported holds the raw JSON of a type this package cannot decode; the
// error surfaces only when an argument of that type is decoded.
type IDLType struct {
	Primitive   string
	Option      *IDLType
	COption     *IDLType
	Vec         *IDLType
	Array       *IDLType
	ArrayLen    int
	Defined     string
	Unsupported string
}

func (t *IDLType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &t.Primitive)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrapf(err, "type %s", string(data))
	}

	switch {
	case obj["option"] != nil:
		t.Option = new(IDLType)
		return json.Unmarshal(obj["option"], t.Option)
	case obj["coption"] != nil:
		t.COption = new(IDLType)
		return json.Unmarshal(obj["coption"], t.COption)
	case obj["vec"] != nil:
		t.Vec = new(IDLType)
		return json.Unmarshal(obj["vec"], t.Vec)
	case obj["array"] != nil:
		var pair []json.RawMessage
		if err := json.Unmarshal(obj["array"], &pair); err != nil || len(pair) != 2 {
			return errors.Wrapf(ErrInvalidIDL, "array %s", string(obj["array"]))
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(pair[1])))
		if err != nil {
			// Lengths given as generic constants cannot be resolved.
			t.Unsupported = string(data)
			return nil
		}
		if n < 0 {
			return errors.Wrapf(ErrInvalidIDL, "negative array length %d", n)
		}
		t.Array = new(IDLType)
		if err := json.Unmarshal(pair[0], t.Array); err != nil {
			return err
		}
		t.ArrayLen = n
		return nil
	case obj["defined"] != nil:
		raw := bytes.TrimSpace(obj["defined"])
		if len(raw) > 0 && raw[0] == '"' {
			return json.Unmarshal(raw, &t.Defined)
		}
		var named struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &named); err != nil {
			return errors.Wrap(err, "defined type")
		}
		t.Defined = named.Name
		return nil
	}
	t.Unsupported = string(data)
	return nil
}

func (t IDLType) String() string {
	switch {
	case t.Option != nil:
		return "option<" + t.Option.String() + ">"
	case t.COption != nil:
		return "coption<" + t.COption.String() + ">"
	case t.Vec != nil:
		return "vec<" + t.Vec.String() + ">"
	case t.Array != nil:
		return "[" + t.Array.String() + "; " + strconv.Itoa(t.ArrayLen) + "]"
	case t.Defined != "":
		return t.Defined
	case t.Unsupported != "":
		return t.Unsupported
	}
	return t.Primitive
}

// ParseIDL unmarshals an IDL document and fills in the discriminators the
// legacy layout leaves implicit.
func ParseIDL(idlBytes []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(idlBytes, &idl); err != nil {
		return nil, errors.Wrapf(ErrInvalidIDL, "error unmarshalling IDL JSON: %v", err)
	}
	if len(idl.Instructions) == 0 {
		return nil, errors.Wrap(ErrInvalidIDL, "no instructions")
	}

	for i := range idl.Instructions {
		ix := &idl.Instructions[i]
		if len(ix.Discriminator) == 0 {
			ix.Discriminator = ag_binary.SighashInstruction(ix.Name)
		}
	}
	for i := range idl.Events {
		ev := &idl.Events[i]
		if len(ev.Discriminator) == 0 {
			ev.Discriminator = ag_binary.Sighash("event", ev.Name)
		}
	}

	idl.types = make(map[string]*IDLTypeDefinition, len(idl.Types)+len(idl.Accounts))
	for i := range idl.Accounts {
		// Legacy IDLs declare account structs here and nowhere else.
		if idl.Accounts[i].Type.Kind != "" {
			idl.types[idl.Accounts[i].Name] = &idl.Accounts[i]
		}
	}
	for i := range idl.Types {
		idl.types[idl.Types[i].Name] = &idl.Types[i]
	}
	return &idl, nil
}

// ProgramName is the metadata name for 0.30 documents and the top level name
// for legacy ones.
func (idl *IDL) ProgramName() string {
	if idl.Metadata != nil && idl.Metadata.Name != "" {
		return idl.Metadata.Name
	}
	return idl.Name
}

// InstructionFor finds the instruction whose discriminator prefixes data.
func (idl *IDL) InstructionFor(data []byte) (*IDLInstruction, error) {
	for i := range idl.Instructions {
		ix := &idl.Instructions[i]
		if len(data) < len(ix.Discriminator) {
			continue
		}
		if bytes.Equal(data[:len(ix.Discriminator)], ix.Discriminator) {
			return ix, nil
		}
	}
	if len(data) < ag_binary.ACCOUNT_DISCRIMINATOR_SIZE {
		return nil, ErrDiscriminatorLength
	}
	return nil, errors.Wrapf(ErrUnknownInstruction, "%x", data[:ag_binary.ACCOUNT_DISCRIMINATOR_SIZE])
}

func (idl *IDL) typeDef(name string) (*IDLTypeDefinition, bool) {
	if idl.types != nil {
		def, ok := idl.types[name]
		return def, ok
	}
	for i := range idl.Types {
		if idl.Types[i].Name == name {
			return &idl.Types[i], true
		}
	}
	return nil, false
}

// FlatAccounts lists the instruction's accounts in the order they appear in
// the instruction, expanding composite groups.
func (ix *IDLInstruction) FlatAccounts() []IDLAccount {
	var out []IDLAccount
	var walk func(accounts []IDLAccount)
	walk = func(accounts []IDLAccount) {
		for _, acc := range accounts {
			if len(acc.Accounts) > 0 {
				walk(acc.Accounts)
				continue
			}
			out = append(out, acc)
		}
	}
	walk(ix.Accounts)
	return out
}
