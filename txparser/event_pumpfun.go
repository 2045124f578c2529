package txparser

import (
	"bytes"
	"fmt"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var PUMP_FUN_PROGRAM_ID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

var (
	// Anchor emits events through a self-CPI whose data starts with this tag.
	EventCPIDiscriminator = [8]byte{228, 69, 165, 46, 81, 203, 154, 29}

	PumpfunTradeEventDiscriminator  = [16]byte{228, 69, 165, 46, 81, 203, 154, 29, 189, 219, 127, 211, 78, 230, 97, 238}
	PumpfunCreateEventDiscriminator = [16]byte{228, 69, 165, 46, 81, 203, 154, 29, 27, 114, 169, 77, 222, 235, 99, 118}

	// Pump.fun and PumpSwap share the anchor names, so the sighashes match.
	PumpBuyDiscriminator    = [8]byte{102, 6, 61, 18, 1, 218, 235, 234}
	PumpSellDiscriminator   = [8]byte{51, 230, 133, 164, 1, 127, 131, 173}
	PumpCreateDiscriminator = [8]byte{24, 30, 200, 40, 5, 28, 7, 119}
)

type PumpfunTradeEvent struct {
	Mint                 solana.PublicKey
	SolAmount            uint64
	TokenAmount          uint64
	IsBuy                bool
	User                 solana.PublicKey
	Timestamp            int64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
}

type PumpfunCreateEvent struct {
	Name         string
	Symbol       string
	Uri          string
	Mint         solana.PublicKey
	BondingCurve solana.PublicKey
	User         solana.PublicKey
}

type PumpfunTradeArgs struct {
	Amount   uint64
	SolLimit uint64
}

type PumpfunCreateArgs struct {
	Name   string
	Symbol string
	Uri    string
}

// Pump.fun buy and sell accounts.
const (
	pumpfunMintIndex         = 2
	pumpfunBondingCurveIndex = 3
	pumpfunUserIndex         = 6
)

type PumpfunDecoder struct{}

func NewPumpfunDecoder() *PumpfunDecoder {
	return &PumpfunDecoder{}
}

func (d *PumpfunDecoder) ProgramID() solana.PublicKey { return PUMP_FUN_PROGRAM_ID }

func (d *PumpfunDecoder) Name() string { return PROTOCOL_PUMPFUN }

func (d *PumpfunDecoder) Decode(ix *RawInstruction) (*Action, error) {
	if len(ix.Data) >= 16 && bytes.Equal(ix.Data[:8], EventCPIDiscriminator[:]) {
		return d.decodeEvent(ix)
	}
	if len(ix.Data) < 8 {
		return nil, mismatchf("pump.fun instruction too short: %d bytes", len(ix.Data))
	}

	switch {
	case bytes.Equal(ix.Data[:8], PumpBuyDiscriminator[:]):
		return d.decodeTrade(ix, true)
	case bytes.Equal(ix.Data[:8], PumpSellDiscriminator[:]):
		return d.decodeTrade(ix, false)
	case bytes.Equal(ix.Data[:8], PumpCreateDiscriminator[:]):
		return d.decodeCreate(ix)
	}

	disc, _ := discriminatorOf(ix.Data)
	action := newAction(PROTOCOL_PUMPFUN, ActionTypeUnknown, "Pump.fun Instruction")
	action.Details["discriminator"] = disc
	return action, nil
}

func (d *PumpfunDecoder) decodeTrade(ix *RawInstruction, isBuy bool) (*Action, error) {
	var args PumpfunTradeArgs
	if err := ag_binary.NewBorshDecoder(ix.Data[8:]).Decode(&args); err != nil {
		return nil, mismatchf("pump.fun trade args: %s", err)
	}

	var action *Action
	if isBuy {
		action = newAction(
			PROTOCOL_PUMPFUN,
			"Buy",
			fmt.Sprintf("Pump.fun Buy: %s tokens for max %s SOL", formatUint(args.Amount), FormatFee(args.SolLimit)),
		)
		action.Details["maxSolCost"] = formatUint(args.SolLimit)
	} else {
		action = newAction(
			PROTOCOL_PUMPFUN,
			"Sell",
			fmt.Sprintf("Pump.fun Sell: %s tokens for min %s SOL", formatUint(args.Amount), FormatFee(args.SolLimit)),
		)
		action.Details["minSolOutput"] = formatUint(args.SolLimit)
	}
	action.Details["amount"] = formatUint(args.Amount)
	action.Details["mint"] = ix.accountString(pumpfunMintIndex)
	action.Details["bondingCurve"] = ix.accountString(pumpfunBondingCurveIndex)
	action.Details["user"] = ix.accountString(pumpfunUserIndex)
	return action, nil
}

func (d *PumpfunDecoder) decodeCreate(ix *RawInstruction) (*Action, error) {
	var args PumpfunCreateArgs
	if err := ag_binary.NewBorshDecoder(ix.Data[8:]).Decode(&args); err != nil {
		return nil, mismatchf("pump.fun create args: %s", err)
	}

	action := newAction(PROTOCOL_PUMPFUN, "Create", fmt.Sprintf("Pump.fun Create: %s (%s)", args.Name, args.Symbol))
	action.Details["name"] = args.Name
	action.Details["symbol"] = args.Symbol
	action.Details["uri"] = args.Uri
	action.Details["mint"] = ix.accountString(0)
	return action, nil
}

func (d *PumpfunDecoder) decodeEvent(ix *RawInstruction) (*Action, error) {
	decoder := ag_binary.NewBorshDecoder(ix.Data[16:])

	switch {
	case bytes.Equal(ix.Data[:16], PumpfunTradeEventDiscriminator[:]):
		trade, err := handlePumpfunTradeEvent(decoder)
		if err != nil {
			return nil, mismatchf("%s", err)
		}
		side := "Sell"
		if trade.IsBuy {
			side = "Buy"
		}
		action := newAction(
			PROTOCOL_PUMPFUN,
			"TradeEvent",
			fmt.Sprintf("Pump.fun %s: %s tokens for %s SOL", side, formatUint(trade.TokenAmount), FormatFee(trade.SolAmount)),
		)
		action.Details["mint"] = trade.Mint.String()
		action.Details["solAmount"] = formatUint(trade.SolAmount)
		action.Details["tokenAmount"] = formatUint(trade.TokenAmount)
		action.Details["isBuy"] = trade.IsBuy
		action.Details["user"] = trade.User.String()
		action.Details["timestamp"] = trade.Timestamp
		action.Details["virtualSolReserves"] = formatUint(trade.VirtualSolReserves)
		action.Details["virtualTokenReserves"] = formatUint(trade.VirtualTokenReserves)
		return action, nil

	case bytes.Equal(ix.Data[:16], PumpfunCreateEventDiscriminator[:]):
		var create PumpfunCreateEvent
		if err := decoder.Decode(&create); err != nil {
			return nil, mismatchf("error unmarshaling CreateEvent: %s", err)
		}
		action := newAction(
			PROTOCOL_PUMPFUN,
			"CreateEvent",
			fmt.Sprintf("Pump.fun Created %s (%s)", create.Name, create.Symbol),
		)
		action.Details["name"] = create.Name
		action.Details["symbol"] = create.Symbol
		action.Details["uri"] = create.Uri
		action.Details["mint"] = create.Mint.String()
		action.Details["bondingCurve"] = create.BondingCurve.String()
		action.Details["user"] = create.User.String()
		return action, nil
	}

	action := newAction(PROTOCOL_PUMPFUN, "Event", "Pump.fun Event")
	action.Details["discriminator"] = fmt.Sprintf("%x", ix.Data[8:16])
	return action, nil
}

func handlePumpfunTradeEvent(decoder *ag_binary.Decoder) (*PumpfunTradeEvent, error) {
	var trade PumpfunTradeEvent
	if err := decoder.Decode(&trade); err != nil {
		return nil, fmt.Errorf("error unmarshaling TradeEvent: %s", err)
	}

	return &trade, nil
}
