package txparser

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemDecoder_Transfer(t *testing.T) {
	from, to := newKey(), newKey()
	ix := rawInstruction(solana.SystemProgramID, systemTransferData(10_000_000_000), from, to)

	action, err := NewSystemDecoder().Decode(ix)
	require.NoError(t, err)

	assert.Equal(t, PROTOCOL_SYSTEM, action.Protocol)
	assert.Equal(t, "Transfer", action.Type)
	assert.Equal(t, "Transferred 10.000000000 SOL", action.Summary)
	assert.Equal(t, "10000000000", action.Details["amount"])
	assert.Equal(t, from.String(), action.Details["from"])
	assert.Equal(t, to.String(), action.Details["to"])
	assert.Equal(t, DirectionUnknown, action.Direction)
}

func TestSystemDecoder_SelfTransfer(t *testing.T) {
	wallet := newKey()
	ix := rawInstruction(solana.SystemProgramID, systemTransferData(1), wallet, wallet)

	action, err := NewSystemDecoder().Decode(ix)
	require.NoError(t, err)
	assert.Equal(t, DirectionSelf, action.Direction)
}

func TestSystemDecoder_CreateAccount(t *testing.T) {
	owner := solana.TokenProgramID
	data := make([]byte, 52)
	binary.LittleEndian.PutUint32(data[0:4], 0)
	binary.LittleEndian.PutUint64(data[4:12], 2039280)
	binary.LittleEndian.PutUint64(data[12:20], 165)
	copy(data[20:52], owner[:])

	action, err := NewSystemDecoder().Decode(rawInstruction(solana.SystemProgramID, data, newKey(), newKey()))
	require.NoError(t, err)

	assert.Equal(t, "CreateAccount", action.Type)
	assert.Equal(t, "2039280", action.Details["lamports"])
	assert.Equal(t, "165", action.Details["space"])
	assert.Equal(t, owner.String(), action.Details["owner"])
}

func TestSystemDecoder_OtherInstructionIsNamed(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 8) // Allocate

	action, err := NewSystemDecoder().Decode(rawInstruction(solana.SystemProgramID, data))
	require.NoError(t, err)
	assert.Equal(t, "Allocate", action.Type)
}

func TestSystemDecoder_ShortPayloads(t *testing.T) {
	decoder := NewSystemDecoder()

	_, err := decoder.Decode(rawInstruction(solana.SystemProgramID, []byte{2, 0}))
	assert.ErrorIs(t, err, ErrDecodeMismatch)

	_, err = decoder.Decode(rawInstruction(solana.SystemProgramID, []byte{2, 0, 0, 0, 1}))
	assert.ErrorIs(t, err, ErrDecodeMismatch)
}
