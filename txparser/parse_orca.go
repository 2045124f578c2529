package txparser

import (
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ORCA_PROGRAM_ID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

var (
	orcaSwapDiscriminator   = calculateDiscriminator("global:swap")
	orcaSwapV2Discriminator = calculateDiscriminator("global:swap_v2")
)

type OrcaSwapArgs struct {
	Amount                 uint64
	OtherAmountThreshold   uint64
	SqrtPriceLimit         ag_binary.Uint128
	AmountSpecifiedIsInput bool
	AToB                   bool
}

type OrcaDecoder struct{}

func NewOrcaDecoder() *OrcaDecoder {
	return &OrcaDecoder{}
}

func (d *OrcaDecoder) ProgramID() solana.PublicKey { return ORCA_PROGRAM_ID }

func (d *OrcaDecoder) Name() string { return PROTOCOL_ORCA }

func (d *OrcaDecoder) Decode(ix *RawInstruction) (*Action, error) {
	disc, ok := discriminatorOf(ix.Data)
	if !ok {
		return nil, mismatchf("orca instruction too short: %d bytes", len(ix.Data))
	}

	var typ string
	switch disc {
	case orcaSwapDiscriminator:
		typ = "Swap"
	case orcaSwapV2Discriminator:
		typ = "SwapV2"
	default:
		action := newAction(PROTOCOL_ORCA, ActionTypeUnknown, "Orca Whirlpool Instruction")
		action.Details["discriminator"] = disc
		return action, nil
	}

	var args OrcaSwapArgs
	if err := ag_binary.NewBorshDecoder(ix.Data[8:]).Decode(&args); err != nil {
		return nil, mismatchf("orca swap args: %s", err)
	}

	amount := formatUint(args.Amount)
	threshold := formatUint(args.OtherAmountThreshold)
	var summary string
	if args.AmountSpecifiedIsInput {
		summary = fmt.Sprintf("Orca Swap: %s (Input) -> min %s", amount, threshold)
	} else {
		summary = fmt.Sprintf("Orca Swap: max %s -> %s (Output)", threshold, amount)
	}

	action := newAction(PROTOCOL_ORCA, typ, summary)
	action.Details["amount"] = amount
	action.Details["otherAmountThreshold"] = threshold
	action.Details["sqrtPriceLimit"] = args.SqrtPriceLimit.String()
	action.Details["amountSpecifiedIsInput"] = args.AmountSpecifiedIsInput
	action.Details["aToB"] = args.AToB

	if typ == "Swap" {
		// token_program, token_authority, whirlpool, ...
		action.Details["whirlpool"] = ix.accountString(2)
	} else {
		// token_program_a, token_program_b, memo_program, token_authority,
		// whirlpool, token_mint_a, token_mint_b, ...
		action.Details["whirlpool"] = ix.accountString(4)
		action.Details["tokenMintA"] = ix.accountString(5)
		action.Details["tokenMintB"] = ix.accountString(6)
	}
	return action, nil
}
