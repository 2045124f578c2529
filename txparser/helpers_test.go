package txparser

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	lookup "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func newKeys(n int) solana.PublicKeySlice {
	keys := make(solana.PublicKeySlice, n)
	for i := range keys {
		keys[i] = newKey()
	}
	return keys
}

func u64le(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func borshBytes(t *testing.T, v interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, ag_binary.NewBorshEncoder(&buf).Encode(v))
	return buf.Bytes()
}

// systemTransferData builds a System Program transfer:
// [0..4] instruction type (u32, 2 = Transfer), [4..12] lamports (u64).
func systemTransferData(lamports uint64) []byte {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return data
}

func rawInstruction(programID solana.PublicKey, data []byte, accounts ...solana.PublicKey) *RawInstruction {
	return &RawInstruction{
		ProgramID:   programID,
		Accounts:    accounts,
		Data:        data,
		ParentIndex: -1,
	}
}

// addressTableAccount encodes an active lookup table holding addresses.
func addressTableAccount(t *testing.T, addresses solana.PublicKeySlice) *rpc.GetAccountInfoResult {
	t.Helper()
	state := lookup.AddressLookupTableState{
		TypeIndex:        1,
		DeactivationSlot: math.MaxUint64,
		Addresses:        addresses,
	}
	var buf bytes.Buffer
	require.NoError(t, state.MarshalWithEncoder(ag_binary.NewBinEncoder(&buf)))
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(buf.Bytes())},
	}
}

// transactionResult builds a getTransaction response the way the node returns
// it for base64 encoding. metaJSON is the raw "meta" object.
func transactionResult(t *testing.T, tx *solana.Transaction, blockTime int64, metaJSON string) *rpc.GetTransactionResult {
	t.Helper()
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	body := fmt.Sprintf(
		`{"slot": 42, "blockTime": %d, "transaction": [%q, "base64"], "meta": %s}`,
		blockTime, base64.StdEncoding.EncodeToString(raw), metaJSON,
	)
	var res rpc.GetTransactionResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	return &res
}
