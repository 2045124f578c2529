package txparser

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var RAYDIUM_V4_PROGRAM_ID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

const (
	raydiumSwapBaseIn  uint8 = 9
	raydiumSwapBaseOut uint8 = 11
)

// Raydium AMM v4 swap layout.
const (
	raydiumAmmIndex         = 1
	raydiumSwapMinAccounts  = 17
	raydiumSwapMinDataBytes = 17
)

type RaydiumDecoder struct{}

func NewRaydiumDecoder() *RaydiumDecoder {
	return &RaydiumDecoder{}
}

func (d *RaydiumDecoder) ProgramID() solana.PublicKey { return RAYDIUM_V4_PROGRAM_ID }

func (d *RaydiumDecoder) Name() string { return PROTOCOL_RAYDIUM }

func (d *RaydiumDecoder) Decode(ix *RawInstruction) (*Action, error) {
	if len(ix.Data) == 0 {
		return nil, mismatchf("empty raydium instruction")
	}
	code := ix.Data[0]

	switch code {
	case raydiumSwapBaseIn, raydiumSwapBaseOut:
		if len(ix.Data) < raydiumSwapMinDataBytes {
			return nil, mismatchf("raydium swap too short: %d bytes", len(ix.Data))
		}
	default:
		action := newAction(PROTOCOL_RAYDIUM, ActionTypeUnknown, fmt.Sprintf("Raydium Instruction (ID: %d)", code))
		action.Details["discriminator"] = code
		return action, nil
	}

	first := binary.LittleEndian.Uint64(ix.Data[1:9])
	second := binary.LittleEndian.Uint64(ix.Data[9:17])

	var action *Action
	if code == raydiumSwapBaseIn {
		action = newAction(
			PROTOCOL_RAYDIUM,
			"Swap (BaseIn)",
			fmt.Sprintf("Raydium Swap: %s -> min %s", formatUint(first), formatUint(second)),
		)
		action.Details["amountIn"] = formatUint(first)
		action.Details["minAmountOut"] = formatUint(second)
	} else {
		action = newAction(
			PROTOCOL_RAYDIUM,
			"Swap (BaseOut)",
			fmt.Sprintf("Raydium Swap: max %s -> %s", formatUint(first), formatUint(second)),
		)
		action.Details["maxAmountIn"] = formatUint(first)
		action.Details["amountOut"] = formatUint(second)
	}

	// The swap carries 17 or 18 accounts depending on whether the target
	// orders account is present; the user accounts are always the last three.
	if n := len(ix.Accounts); n >= raydiumSwapMinAccounts {
		action.Details["amm"] = ix.accountString(raydiumAmmIndex)
		action.Details["userSource"] = ix.accountString(n - 3)
		action.Details["userDestination"] = ix.accountString(n - 2)
		action.Details["userOwner"] = ix.accountString(n - 1)
	}
	return action, nil
}
