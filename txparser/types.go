package txparser

import (
	"github.com/gagliardetto/solana-go"
)

const (
	PROTOCOL_SYSTEM    = "System"
	PROTOCOL_SPL_TOKEN = "SPL Token"
	PROTOCOL_JUPITER   = "Jupiter"
	PROTOCOL_RAYDIUM   = "Raydium"
	PROTOCOL_ORCA      = "Orca"
	PROTOCOL_PUMPFUN   = "Pump.fun"
	PROTOCOL_PUMPSWAP  = "PumpSwap"
	PROTOCOL_UNKNOWN   = "Unknown"
)

const (
	ActionTypeUnknown  = "Unknown"
	ActionTypeTransfer = "Transfer"
)

type Direction string

const (
	DirectionIn      Direction = "IN"
	DirectionOut     Direction = "OUT"
	DirectionSelf    Direction = "SELF"
	DirectionUnknown Direction = "UNKNOWN"
)

// Action is one decoded instruction.
type Action struct {
	Protocol  string                 `json:"protocol"`
	Type      string                 `json:"type"`
	Summary   string                 `json:"summary"`
	Details   map[string]interface{} `json:"details"`
	Direction Direction              `json:"direction"`
}

// RawInstruction is an instruction with every account index already
// resolved against the transaction's account table.
type RawInstruction struct {
	ProgramID   solana.PublicKey
	Accounts    solana.PublicKeySlice
	Data        []byte
	Index       int
	ParentIndex int
	StackHeight uint16
}

func (ix *RawInstruction) IsInner() bool {
	return ix.ParentIndex >= 0
}

// Account returns the i-th instruction account, or the zero key when the
// instruction carries fewer accounts.
func (ix *RawInstruction) Account(i int) solana.PublicKey {
	if i < 0 || i >= len(ix.Accounts) {
		return solana.PublicKey{}
	}
	return ix.Accounts[i]
}

func (ix *RawInstruction) accountString(i int) string {
	if i < 0 || i >= len(ix.Accounts) {
		return ""
	}
	return ix.Accounts[i].String()
}

type DecodedReport struct {
	Signature string   `json:"signature"`
	Timestamp *int64   `json:"timestamp,omitempty"`
	Fee       string   `json:"fee"`
	Success   bool     `json:"success"`
	Actions   []Action `json:"actions"`
}

// Decoder decodes instructions addressed to a single program. Decode returns
// ErrDecodeMismatch (possibly wrapped) when the payload does not match the
// layout the decoder knows.
type Decoder interface {
	ProgramID() solana.PublicKey
	Name() string
	Decode(ix *RawInstruction) (*Action, error)
}

func newAction(protocol, typ, summary string) *Action {
	return &Action{
		Protocol:  protocol,
		Type:      typ,
		Summary:   summary,
		Details:   map[string]interface{}{},
		Direction: DirectionUnknown,
	}
}
