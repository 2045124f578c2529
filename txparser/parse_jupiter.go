package txparser

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var JUPITER_PROGRAM_ID = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")

type jupiterRoute struct {
	typ         string
	summary     string
	instruction string
	exactOut    bool
}

var jupiterRoutes = map[string]jupiterRoute{
	calculateDiscriminator("global:route"): {
		typ: "Swap (Route)", summary: "Jupiter Swap", instruction: "route",
	},
	calculateDiscriminator("global:shared_accounts_route"): {
		typ: "Swap (SharedAccounts)", summary: "Jupiter Swap (Shared Accounts)", instruction: "shared_accounts_route",
	},
	calculateDiscriminator("global:exact_out_route"): {
		typ: "Swap (ExactOutRoute)", summary: "Jupiter Swap (Exact Out)", instruction: "exact_out_route", exactOut: true,
	},
	calculateDiscriminator("global:shared_accounts_exact_out_route"): {
		typ: "Swap (SharedAccountsExactOutRoute)", summary: "Jupiter Swap (Shared Accounts, Exact Out)", instruction: "shared_accounts_exact_out_route", exactOut: true,
	},
}

// jupiterRouteTrailer is the fixed tail shared by every route instruction:
// two u64 amounts, slippage_bps u16 and platform_fee_bps u8. The route plan
// in front of it is variable length.
const jupiterRouteTrailer = 8 + 8 + 2 + 1

type JupiterDecoder struct{}

func NewJupiterDecoder() *JupiterDecoder {
	return &JupiterDecoder{}
}

func (d *JupiterDecoder) ProgramID() solana.PublicKey { return JUPITER_PROGRAM_ID }

func (d *JupiterDecoder) Name() string { return PROTOCOL_JUPITER }

func (d *JupiterDecoder) Decode(ix *RawInstruction) (*Action, error) {
	disc, ok := discriminatorOf(ix.Data)
	if !ok {
		return nil, mismatchf("jupiter instruction too short: %d bytes", len(ix.Data))
	}

	route, ok := jupiterRoutes[disc]
	if !ok {
		action := newAction(PROTOCOL_JUPITER, ActionTypeUnknown, "Jupiter Instruction")
		action.Details["discriminator"] = disc
		return action, nil
	}

	action := newAction(PROTOCOL_JUPITER, route.typ, route.summary)
	action.Details["instruction"] = route.instruction
	if len(ix.Data) >= 8+jupiterRouteTrailer {
		tail := ix.Data[len(ix.Data)-jupiterRouteTrailer:]
		first := binary.LittleEndian.Uint64(tail[0:8])
		second := binary.LittleEndian.Uint64(tail[8:16])
		if route.exactOut {
			action.Details["outAmount"] = formatUint(first)
			action.Details["quotedInAmount"] = formatUint(second)
		} else {
			action.Details["inAmount"] = formatUint(first)
			action.Details["quotedOutAmount"] = formatUint(second)
		}
		action.Details["slippageBps"] = binary.LittleEndian.Uint16(tail[16:18])
		action.Details["platformFeeBps"] = tail[18]
	}
	return action, nil
}
