package idl

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyIDL = `{
  "version": "0.1.0",
  "name": "gopher_swap",
  "instructions": [
    {
      "name": "swapExactIn",
      "accounts": [
        {"name": "pool", "isMut": true, "isSigner": false},
        {"name": "inputMint", "isMut": false, "isSigner": false},
        {
          "name": "user",
          "accounts": [
            {"name": "authority", "isMut": false, "isSigner": true},
            {"name": "outputMint", "isMut": false, "isSigner": false}
          ]
        }
      ],
      "args": [
        {"name": "amountIn", "type": "u64"},
        {"name": "minOut", "type": "u64"},
        {"name": "memo", "type": {"option": "string"}},
        {"name": "route", "type": {"vec": {"defined": "Hop"}}},
        {"name": "side", "type": {"defined": "Side"}},
        {"name": "tag", "type": {"array": ["u8", 4]}},
        {"name": "owner", "type": "publicKey"}
      ]
    }
  ],
  "types": [
    {
      "name": "Hop",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "poolIndex", "type": "u8"},
          {"name": "fee", "type": "u16"}
        ]
      }
    },
    {
      "name": "Side",
      "type": {"kind": "enum", "variants": [{"name": "Bid"}, {"name": "Ask"}]}
    }
  ]
}`

const anchor030IDL = `{
  "address": "Counter111111111111111111111111111111111111",
  "metadata": {"name": "counter", "version": "0.1.0", "spec": "0.1.0"},
  "instructions": [
    {
      "name": "increment",
      "discriminator": [11, 18, 104, 9, 104, 174, 59, 33],
      "accounts": [{"name": "counter", "writable": true}],
      "args": [
        {"name": "by", "type": "u32"},
        {"name": "kind", "type": {"defined": {"name": "Kind"}}},
        {"name": "limit", "type": {"option": "i64"}}
      ]
    }
  ],
  "types": [
    {
      "name": "Kind",
      "type": {
        "kind": "enum",
        "variants": [
          {"name": "Plain"},
          {"name": "Weighted", "fields": [{"name": "weight", "type": "u8"}]},
          {"name": "Pair", "fields": ["u8", "bool"]}
        ]
      }
    }
  ]
}`

func sighash(preimage string) []byte {
	sum := sha256.Sum256([]byte(preimage))
	return sum[:8]
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func TestParseIDL_LegacyFillsDiscriminators(t *testing.T) {
	doc, err := ParseIDL([]byte(legacyIDL))
	require.NoError(t, err)

	assert.Equal(t, "gopher_swap", doc.ProgramName())
	require.Len(t, doc.Instructions, 1)
	assert.Equal(t, sighash("global:swap_exact_in"), doc.Instructions[0].Discriminator)

	var names []string
	for _, acc := range doc.Instructions[0].FlatAccounts() {
		names = append(names, acc.Name)
	}
	assert.Equal(t, []string{"pool", "inputMint", "authority", "outputMint"}, names)
}

func TestParseIDL_Anchor030(t *testing.T) {
	doc, err := ParseIDL([]byte(anchor030IDL))
	require.NoError(t, err)

	assert.Equal(t, "counter", doc.ProgramName())
	assert.Equal(t, []byte{11, 18, 104, 9, 104, 174, 59, 33}, doc.Instructions[0].Discriminator)
	assert.Equal(t, "Kind", doc.Instructions[0].Args[1].Type.Defined)
	assert.Equal(t, "option<i64>", doc.Instructions[0].Args[2].Type.String())
}

func TestParseIDL_Invalid(t *testing.T) {
	_, err := ParseIDL([]byte(`{"name": "empty", "instructions": []}`))
	assert.ErrorIs(t, err, ErrInvalidIDL)

	_, err = ParseIDL([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidIDL)

	_, err = ParseIDL([]byte(`{"instructions": [{"name": "x", "args": [{"name": "a", "type": {"array": ["u64", -1]}}]}]}`))
	assert.ErrorIs(t, err, ErrInvalidIDL)
}

func TestParseIDL_UnsupportedTypesFailOnlyWhenDecoded(t *testing.T) {
	doc, err := ParseIDL([]byte(`{
	  "name": "generic",
	  "instructions": [
	    {"name": "ping", "args": [{"name": "n", "type": "u8"}]},
	    {"name": "lookup", "args": [{"name": "table", "type": {"hashMap": ["u8", "u8"]}}]}
	  ],
	  "types": [
	    {"name": "Buffer", "type": {"kind": "struct", "fields": [{"name": "data", "type": {"array": ["u8", {"generic": "N"}]}}]}}
	  ]
	}`))
	require.NoError(t, err)

	decoded, err := doc.DecodeInstruction(append(sighash("global:ping"), 7))
	require.NoError(t, err)
	assert.Equal(t, uint8(7), decoded.ArgsMap()["n"])

	_, err = doc.DecodeInstruction(append(sighash("global:lookup"), 0, 0, 0, 0))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestDecodeInstruction_Legacy(t *testing.T) {
	doc, err := ParseIDL([]byte(legacyIDL))
	require.NoError(t, err)

	owner := solana.NewWallet().PublicKey()
	data := bytes.Join([][]byte{
		sighash("global:swap_exact_in"),
		le64(1_000),
		le64(900),
		{1}, le32(2), []byte("hi"),
		le32(2), {1}, le16(30), {2}, le16(5),
		{1},
		{0xde, 0xad, 0xbe, 0xef},
		owner[:],
	}, nil)

	decoded, err := doc.DecodeInstruction(data)
	require.NoError(t, err)
	assert.Equal(t, "swapExactIn", decoded.Name)

	args := decoded.ArgsMap()
	assert.Equal(t, "1000", args["amountIn"])
	assert.Equal(t, "900", args["minOut"])
	assert.Equal(t, "hi", args["memo"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"poolIndex": uint8(1), "fee": uint16(30)},
		map[string]interface{}{"poolIndex": uint8(2), "fee": uint16(5)},
	}, args["route"])
	assert.Equal(t, "Ask", args["side"])
	assert.Equal(t, "deadbeef", args["tag"])
	assert.Equal(t, owner.String(), args["owner"])

	assert.Equal(t, "vec<Hop>", decoded.Args[3].Type)
}

func TestDecodeInstruction_EnumWithFieldsAndNoneOption(t *testing.T) {
	doc, err := ParseIDL([]byte(anchor030IDL))
	require.NoError(t, err)

	data := bytes.Join([][]byte{
		{11, 18, 104, 9, 104, 174, 59, 33},
		le32(5),
		{1, 7},
		{0},
	}, nil)

	decoded, err := doc.DecodeInstruction(data)
	require.NoError(t, err)

	args := decoded.ArgsMap()
	assert.Equal(t, uint32(5), args["by"])
	assert.Equal(t, map[string]interface{}{"Weighted": map[string]interface{}{"weight": uint8(7)}}, args["kind"])
	assert.Nil(t, args["limit"])
}

func TestDecodeInstruction_TupleVariant(t *testing.T) {
	doc, err := ParseIDL([]byte(anchor030IDL))
	require.NoError(t, err)

	data := bytes.Join([][]byte{
		{11, 18, 104, 9, 104, 174, 59, 33},
		le32(1),
		{2, 3, 1},
		{1}, le64(uint64(1 << 40)),
	}, nil)

	decoded, err := doc.DecodeInstruction(data)
	require.NoError(t, err)

	args := decoded.ArgsMap()
	assert.Equal(t, map[string]interface{}{"Pair": []interface{}{uint8(3), true}}, args["kind"])
	assert.Equal(t, "1099511627776", args["limit"])
}

func TestDecodeInstruction_Errors(t *testing.T) {
	doc, err := ParseIDL([]byte(anchor030IDL))
	require.NoError(t, err)

	_, err = doc.DecodeInstruction([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrDiscriminatorLength)

	_, err = doc.DecodeInstruction([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.ErrorIs(t, err, ErrUnknownInstruction)

	// Truncated arguments.
	_, err = doc.DecodeInstruction([]byte{11, 18, 104, 9, 104, 174, 59, 33, 5})
	assert.Error(t, err)

	// Enum variant out of range.
	_, err = doc.DecodeInstruction(bytes.Join([][]byte{
		{11, 18, 104, 9, 104, 174, 59, 33}, le32(1), {9},
	}, nil))
	assert.Error(t, err)
}

func TestDecodeInstruction_VecLengthBeyondData(t *testing.T) {
	doc, err := ParseIDL([]byte(legacyIDL))
	require.NoError(t, err)

	data := bytes.Join([][]byte{
		sighash("global:swap_exact_in"),
		le64(1), le64(1),
		{0},
		le32(1 << 30),
	}, nil)

	_, err = doc.DecodeInstruction(data)
	assert.Error(t, err)
}

func TestDecodeInstruction_ArrayLongerThanData(t *testing.T) {
	doc, err := ParseIDL([]byte(`{
	  "name": "big",
	  "instructions": [{"name": "fill", "args": [{"name": "slots", "type": {"array": ["u64", 2000000000]}}]}]
	}`))
	require.NoError(t, err)

	_, err = doc.DecodeInstruction(append(sighash("global:fill"), le64(1)...))
	assert.Error(t, err)
}

func TestDecodeInstruction_NegativeArrayLength(t *testing.T) {
	doc := &IDL{Instructions: []IDLInstruction{{
		Name:          "fill",
		Discriminator: sighash("global:fill"),
		Args: []IDLField{
			{Name: "slots", Type: IDLType{Array: &IDLType{Primitive: "u64"}, ArrayLen: -1}},
		},
	}}}

	var err error
	assert.NotPanics(t, func() {
		_, err = doc.DecodeInstruction(append(sighash("global:fill"), le64(1)...))
	})
	assert.ErrorIs(t, err, ErrInvalidIDL)
}
