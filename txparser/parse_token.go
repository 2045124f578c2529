package txparser

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// TokenDecoder handles both the classic token program and Token-2022; one
// instance is registered per program id.
type TokenDecoder struct {
	programID solana.PublicKey
}

func NewTokenDecoder(programID solana.PublicKey) *TokenDecoder {
	return &TokenDecoder{programID: programID}
}

func (d *TokenDecoder) ProgramID() solana.PublicKey { return d.programID }

func (d *TokenDecoder) Name() string {
	if d.programID.Equals(solana.Token2022ProgramID) {
		return PROTOCOL_SPL_TOKEN + " 2022"
	}
	return PROTOCOL_SPL_TOKEN
}

func isTokenProgram(programID solana.PublicKey) bool {
	return programID.Equals(solana.TokenProgramID) || programID.Equals(solana.Token2022ProgramID)
}

func (d *TokenDecoder) Decode(ix *RawInstruction) (*Action, error) {
	if !isTokenProgram(ix.ProgramID) {
		return nil, mismatchf("program %s is not a token program", ix.ProgramID)
	}
	if len(ix.Data) == 0 {
		return nil, mismatchf("empty token instruction")
	}

	var action *Action
	switch ix.Data[0] {
	case token.Instruction_InitializeAccount:
		action = processInitializeAccount(ix)
	case token.Instruction_Transfer:
		action = processTransfer(ix)
	case token.Instruction_MintTo:
		action = processMintTo(ix)
	case token.Instruction_Burn:
		action = processBurn(ix)
	case token.Instruction_CloseAccount:
		action = processCloseAccount(ix)
	case token.Instruction_TransferChecked:
		action = processTransferCheck(ix)
	case token.Instruction_MintToChecked:
		action = processMintToCheck(ix)
	case token.Instruction_BurnChecked:
		action = processBurnCheck(ix)
	}
	if action != nil {
		return action, nil
	}

	// Unsupported types and payloads too short for their case land here.
	action = newAction(
		PROTOCOL_SPL_TOKEN,
		ActionTypeUnknown,
		fmt.Sprintf("Unknown SPL Token instruction type %d", ix.Data[0]),
	)
	action.Details["data"] = hex.EncodeToString(ix.Data)
	if name := token.InstructionIDToName(ix.Data[0]); name != "" {
		action.Details["name"] = name
	}
	return action, nil
}

// tokenAmount reads the u64 amount that follows the discriminator byte.
func tokenAmount(data []byte) (uint64, bool) {
	if len(data) < 9 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[1:9]), true
}

func processInitializeAccount(ix *RawInstruction) *Action {
	action := newAction(PROTOCOL_SPL_TOKEN, "InitializeAccount", "Initialize Token Account")
	action.Details["account"] = ix.accountString(0)
	action.Details["mint"] = ix.accountString(1)
	action.Details["owner"] = ix.accountString(2)
	return action
}

func processTransfer(ix *RawInstruction) *Action {
	amount, ok := tokenAmount(ix.Data)
	if !ok {
		return nil
	}
	action := newAction(PROTOCOL_SPL_TOKEN, ActionTypeTransfer, fmt.Sprintf("Transfer %s tokens", formatUint(amount)))
	action.Details["source"] = ix.accountString(0)
	action.Details["destination"] = ix.accountString(1)
	action.Details["owner"] = ix.accountString(2)
	action.Details["amount"] = formatUint(amount)
	if len(ix.Accounts) >= 2 && ix.Accounts[0].Equals(ix.Accounts[1]) {
		action.Direction = DirectionSelf
	}
	return action
}

func processMintTo(ix *RawInstruction) *Action {
	amount, ok := tokenAmount(ix.Data)
	if !ok {
		return nil
	}
	action := newAction(PROTOCOL_SPL_TOKEN, "MintTo", fmt.Sprintf("Mint %s tokens", formatUint(amount)))
	action.Details["mint"] = ix.accountString(0)
	action.Details["destination"] = ix.accountString(1)
	action.Details["authority"] = ix.accountString(2)
	action.Details["amount"] = formatUint(amount)
	return action
}

func processBurn(ix *RawInstruction) *Action {
	amount, ok := tokenAmount(ix.Data)
	if !ok {
		return nil
	}
	action := newAction(PROTOCOL_SPL_TOKEN, "Burn", fmt.Sprintf("Burn %s tokens", formatUint(amount)))
	action.Details["source"] = ix.accountString(0)
	action.Details["mint"] = ix.accountString(1)
	action.Details["authority"] = ix.accountString(2)
	action.Details["amount"] = formatUint(amount)
	return action
}

func processCloseAccount(ix *RawInstruction) *Action {
	action := newAction(PROTOCOL_SPL_TOKEN, "CloseAccount", "Close Token Account")
	action.Details["account"] = ix.accountString(0)
	action.Details["destination"] = ix.accountString(1)
	action.Details["owner"] = ix.accountString(2)
	return action
}
