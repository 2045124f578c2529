package txparser

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDecoder struct {
	programID solana.PublicKey
	name      string
	action    *Action
	err       error
}

func (d *stubDecoder) ProgramID() solana.PublicKey { return d.programID }

func (d *stubDecoder) Name() string { return d.name }

func (d *stubDecoder) Decode(ix *RawInstruction) (*Action, error) {
	return d.action, d.err
}

func TestRegistry_LaterRegistrationReplaces(t *testing.T) {
	programID := newKey()
	reg := NewRegistry()
	reg.Register(&stubDecoder{programID: programID, name: "first"})
	reg.Register(&stubDecoder{programID: programID, name: "second"})

	decoder, ok := reg.Lookup(programID)
	require.True(t, ok)
	assert.Equal(t, "second", decoder.Name())
	assert.Len(t, reg.List(), 1)
}

func TestRegistry_LookupMissing(t *testing.T) {
	_, ok := NewRegistry().Lookup(newKey())
	assert.False(t, ok)
}

func TestDefaultRegistry_BuiltinPrograms(t *testing.T) {
	reg := NewDefaultRegistry()

	for _, programID := range []solana.PublicKey{
		solana.SystemProgramID,
		solana.TokenProgramID,
		solana.Token2022ProgramID,
		JUPITER_PROGRAM_ID,
		RAYDIUM_V4_PROGRAM_ID,
		ORCA_PROGRAM_ID,
		PUMP_FUN_PROGRAM_ID,
		PUMPSWAP_PROGRAM_ID,
	} {
		decoder, ok := reg.Lookup(programID)
		require.True(t, ok, programID.String())
		assert.Equal(t, programID, decoder.ProgramID())
	}

	list := reg.List()
	require.Len(t, list, 8)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ProgramID().String(), list[i].ProgramID().String())
	}
}
