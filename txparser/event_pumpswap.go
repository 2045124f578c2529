package txparser

import (
	"bytes"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var PUMPSWAP_PROGRAM_ID = solana.MustPublicKeyFromBase58("pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA")

var (
	PumpSwapSellEventDiscriminator = [16]byte{228, 69, 165, 46, 81, 203, 154, 29, 62, 47, 55, 10, 165, 3, 220, 42}
	PumpSwapBuyEventDiscriminator  = [16]byte{228, 69, 165, 46, 81, 203, 154, 29, 103, 244, 82, 31, 44, 245, 119, 119}
)

/*
BuyEvent as logged by the program:
timestamp, baseAmountOut, maxQuoteAmountIn, userBaseTokenReserves,
userQuoteTokenReserves, poolBaseTokenReserves, poolQuoteTokenReserves,
quoteAmountIn, lpFeeBasisPoints, lpFee, protocolFeeBasisPoints, protocolFee,
quoteAmountInWithLpFee, userQuoteAmountIn, pool, user, userBaseTokenAccount,
userQuoteTokenAccount, protocolFeeRecipient, protocolFeeRecipientTokenAccount,
coinCreator, coinCreatorFeeBasisPoints, coinCreatorFee, ...
*/

type PumpSwapBuyEvent struct {
	Timestamp                        int64
	BaseAmountOut                    uint64
	MaxQuoteAmountIn                 uint64
	UserBaseTokenReserves            uint64
	UserQuoteTokenReserves           uint64
	PoolBaseTokenReserves            uint64
	PoolQuoteTokenReserves           uint64
	QuoteAmountIn                    uint64
	LpFeeBasisPoints                 uint64
	LpFee                            uint64
	ProtocolFeeBasisPoints           uint64
	ProtocolFee                      uint64
	QuoteAmountInWithLpFee           uint64
	UserQuoteAmountIn                uint64
	Pool                             solana.PublicKey
	User                             solana.PublicKey
	UserBaseTokenAccount             solana.PublicKey
	UserQuoteTokenAccount            solana.PublicKey
	ProtocolFeeRecipient             solana.PublicKey
	ProtocolFeeRecipientTokenAccount solana.PublicKey
}

type PumpSwapSellEvent struct {
	Timestamp                        int64
	BaseAmountIn                     uint64
	MinQuoteAmountOut                uint64
	UserBaseTokenReserves            uint64
	UserQuoteTokenReserves           uint64
	PoolBaseTokenReserves            uint64
	PoolQuoteTokenReserves           uint64
	QuoteAmountOut                   uint64
	LpFeeBasisPoints                 uint64
	LpFee                            uint64
	ProtocolFeeBasisPoints           uint64
	ProtocolFee                      uint64
	QuoteAmountOutWithoutLpFee       uint64
	UserQuoteAmountOut               uint64
	Pool                             solana.PublicKey
	User                             solana.PublicKey
	UserBaseTokenAccount             solana.PublicKey
	UserQuoteTokenAccount            solana.PublicKey
	ProtocolFeeRecipient             solana.PublicKey
	ProtocolFeeRecipientTokenAccount solana.PublicKey
}

// PumpSwapCreatorFee trails both events on pools created after creator fees
// were introduced.
type PumpSwapCreatorFee struct {
	CoinCreator               solana.PublicKey
	CoinCreatorFeeBasisPoints uint64
	CoinCreatorFee            uint64
}

type PumpSwapTradeArgs struct {
	BaseAmount  uint64
	QuoteAmount uint64
}

// PumpSwap buy and sell accounts.
const (
	pumpSwapPoolIndex      = 0
	pumpSwapUserIndex      = 1
	pumpSwapBaseMintIndex  = 3
	pumpSwapQuoteMintIndex = 4
	pumpSwapPoolBaseIndex  = 7
	pumpSwapPoolQuoteIndex = 8
)

type PumpSwapDecoder struct{}

func NewPumpSwapDecoder() *PumpSwapDecoder {
	return &PumpSwapDecoder{}
}

func (d *PumpSwapDecoder) ProgramID() solana.PublicKey { return PUMPSWAP_PROGRAM_ID }

func (d *PumpSwapDecoder) Name() string { return PROTOCOL_PUMPSWAP }

func (d *PumpSwapDecoder) Decode(ix *RawInstruction) (*Action, error) {
	if len(ix.Data) >= 16 && bytes.Equal(ix.Data[:8], EventCPIDiscriminator[:]) {
		return d.parseSwapEvent(ix)
	}
	if len(ix.Data) < 8 {
		return nil, mismatchf("pumpswap instruction too short: %d bytes", len(ix.Data))
	}

	switch {
	case bytes.Equal(ix.Data[:8], PumpBuyDiscriminator[:]):
		return d.decodeTrade(ix, true)
	case bytes.Equal(ix.Data[:8], PumpSellDiscriminator[:]):
		return d.decodeTrade(ix, false)
	}

	disc, _ := discriminatorOf(ix.Data)
	action := newAction(PROTOCOL_PUMPSWAP, ActionTypeUnknown, "PumpSwap Instruction")
	action.Details["discriminator"] = disc
	return action, nil
}

func (d *PumpSwapDecoder) decodeTrade(ix *RawInstruction, isBuy bool) (*Action, error) {
	var args PumpSwapTradeArgs
	if err := ag_binary.NewBorshDecoder(ix.Data[8:]).Decode(&args); err != nil {
		return nil, mismatchf("pumpswap trade args: %s", err)
	}

	var action *Action
	if isBuy {
		// BUY: quote in, base out
		action = newAction(
			PROTOCOL_PUMPSWAP,
			"Buy",
			fmt.Sprintf("PumpSwap Buy: %s base for max %s quote", formatUint(args.BaseAmount), formatUint(args.QuoteAmount)),
		)
		action.Details["baseAmountOut"] = formatUint(args.BaseAmount)
		action.Details["maxQuoteAmountIn"] = formatUint(args.QuoteAmount)
		action.Details["inputMint"] = ix.accountString(pumpSwapQuoteMintIndex)
		action.Details["outputMint"] = ix.accountString(pumpSwapBaseMintIndex)
		action.Details["poolIn"] = ix.accountString(pumpSwapPoolQuoteIndex)
		action.Details["poolOut"] = ix.accountString(pumpSwapPoolBaseIndex)
	} else {
		// SELL: base in, quote out
		action = newAction(
			PROTOCOL_PUMPSWAP,
			"Sell",
			fmt.Sprintf("PumpSwap Sell: %s base for min %s quote", formatUint(args.BaseAmount), formatUint(args.QuoteAmount)),
		)
		action.Details["baseAmountIn"] = formatUint(args.BaseAmount)
		action.Details["minQuoteAmountOut"] = formatUint(args.QuoteAmount)
		action.Details["inputMint"] = ix.accountString(pumpSwapBaseMintIndex)
		action.Details["outputMint"] = ix.accountString(pumpSwapQuoteMintIndex)
		action.Details["poolIn"] = ix.accountString(pumpSwapPoolBaseIndex)
		action.Details["poolOut"] = ix.accountString(pumpSwapPoolQuoteIndex)
	}
	action.Details["pool"] = ix.accountString(pumpSwapPoolIndex)
	action.Details["user"] = ix.accountString(pumpSwapUserIndex)
	return action, nil
}

func (d *PumpSwapDecoder) parseSwapEvent(ix *RawInstruction) (*Action, error) {
	decoder := ag_binary.NewBorshDecoder(ix.Data[16:])

	var action *Action
	switch {
	case bytes.Equal(ix.Data[:16], PumpSwapBuyEventDiscriminator[:]):
		buyEvent, err := handlePumpSwapBuyEvent(decoder)
		if err != nil {
			return nil, mismatchf("error decoding pumpswap buy event: %s", err)
		}
		action = newAction(
			PROTOCOL_PUMPSWAP,
			"BuyEvent",
			fmt.Sprintf("PumpSwap Buy: %s quote -> %s base", formatUint(buyEvent.QuoteAmountInWithLpFee), formatUint(buyEvent.BaseAmountOut)),
		)
		action.Details["timestamp"] = buyEvent.Timestamp
		action.Details["inputAmount"] = formatUint(buyEvent.QuoteAmountInWithLpFee)
		action.Details["outputAmount"] = formatUint(buyEvent.BaseAmountOut)
		action.Details["poolInAmount"] = formatUint(buyEvent.PoolQuoteTokenReserves)
		action.Details["poolOutAmount"] = formatUint(buyEvent.PoolBaseTokenReserves)
		action.Details["lpFee"] = formatUint(buyEvent.LpFee)
		action.Details["protocolFee"] = formatUint(buyEvent.ProtocolFee)
		action.Details["pool"] = buyEvent.Pool.String()
		action.Details["user"] = buyEvent.User.String()

	case bytes.Equal(ix.Data[:16], PumpSwapSellEventDiscriminator[:]):
		sellEvent, err := handlePumpSwapSellEvent(decoder)
		if err != nil {
			return nil, mismatchf("error decoding pumpswap sell event: %s", err)
		}
		action = newAction(
			PROTOCOL_PUMPSWAP,
			"SellEvent",
			fmt.Sprintf("PumpSwap Sell: %s base -> %s quote", formatUint(sellEvent.BaseAmountIn), formatUint(sellEvent.UserQuoteAmountOut)),
		)
		action.Details["timestamp"] = sellEvent.Timestamp
		action.Details["inputAmount"] = formatUint(sellEvent.BaseAmountIn)
		action.Details["outputAmount"] = formatUint(sellEvent.UserQuoteAmountOut)
		action.Details["poolInAmount"] = formatUint(sellEvent.PoolBaseTokenReserves)
		action.Details["poolOutAmount"] = formatUint(sellEvent.PoolQuoteTokenReserves)
		action.Details["lpFee"] = formatUint(sellEvent.LpFee)
		action.Details["protocolFee"] = formatUint(sellEvent.ProtocolFee)
		action.Details["pool"] = sellEvent.Pool.String()
		action.Details["user"] = sellEvent.User.String()

	default:
		action = newAction(PROTOCOL_PUMPSWAP, "Event", "PumpSwap Event")
		action.Details["discriminator"] = fmt.Sprintf("%x", ix.Data[8:16])
		return action, nil
	}

	if decoder.Remaining() >= 48 {
		var creator PumpSwapCreatorFee
		if err := decoder.Decode(&creator); err == nil {
			action.Details["coinCreator"] = creator.CoinCreator.String()
			action.Details["coinCreatorFee"] = formatUint(creator.CoinCreatorFee)
		}
	}
	return action, nil
}

func handlePumpSwapBuyEvent(decoder *ag_binary.Decoder) (*PumpSwapBuyEvent, error) {
	var event PumpSwapBuyEvent
	if err := decoder.Decode(&event); err != nil {
		return nil, err
	}
	return &event, nil
}

func handlePumpSwapSellEvent(decoder *ag_binary.Decoder) (*PumpSwapSellEvent, error) {
	var event PumpSwapSellEvent
	if err := decoder.Decode(&event); err != nil {
		return nil, err
	}
	return &event, nil
}
