package txparser

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

type SystemDecoder struct{}

func NewSystemDecoder() *SystemDecoder {
	return &SystemDecoder{}
}

func (d *SystemDecoder) ProgramID() solana.PublicKey { return solana.SystemProgramID }

func (d *SystemDecoder) Name() string { return PROTOCOL_SYSTEM }

// Decode reads the u32 instruction type and, for transfers and account
// creation, the lamport amount that follows it.
func (d *SystemDecoder) Decode(ix *RawInstruction) (*Action, error) {
	if len(ix.Data) < 4 {
		return nil, mismatchf("system instruction too short: %d bytes", len(ix.Data))
	}
	instructionType := binary.LittleEndian.Uint32(ix.Data[:4])

	switch instructionType {
	case system.Instruction_Transfer:
		return d.processTransfer(ix)
	case system.Instruction_CreateAccount:
		return d.processCreateAccount(ix)
	}

	name := system.InstructionIDToName(instructionType)
	if name == "" {
		name = ActionTypeUnknown
	}
	return newAction(PROTOCOL_SYSTEM, name, fmt.Sprintf("System Instruction: %s", name)), nil
}

func (d *SystemDecoder) processTransfer(ix *RawInstruction) (*Action, error) {
	if len(ix.Data) < 12 {
		return nil, mismatchf("system transfer too short: %d bytes", len(ix.Data))
	}
	lamports := binary.LittleEndian.Uint64(ix.Data[4:12])

	action := newAction(
		PROTOCOL_SYSTEM,
		ActionTypeTransfer,
		fmt.Sprintf("Transferred %s SOL", FormatFee(lamports)),
	)
	action.Details["from"] = ix.accountString(0)
	action.Details["to"] = ix.accountString(1)
	action.Details["amount"] = formatUint(lamports)
	action.Details["decimals"] = LAMPORTS_PER_SOL_DECIMALS
	if len(ix.Accounts) >= 2 && ix.Accounts[0].Equals(ix.Accounts[1]) {
		action.Direction = DirectionSelf
	}
	return action, nil
}

func (d *SystemDecoder) processCreateAccount(ix *RawInstruction) (*Action, error) {
	if len(ix.Data) < 52 {
		return nil, mismatchf("system create account too short: %d bytes", len(ix.Data))
	}
	lamports := binary.LittleEndian.Uint64(ix.Data[4:12])
	space := binary.LittleEndian.Uint64(ix.Data[12:20])
	owner := solana.PublicKeyFromBytes(ix.Data[20:52])

	action := newAction(
		PROTOCOL_SYSTEM,
		"CreateAccount",
		fmt.Sprintf("Create account funded with %s SOL", FormatFee(lamports)),
	)
	action.Details["from"] = ix.accountString(0)
	action.Details["newAccount"] = ix.accountString(1)
	action.Details["lamports"] = formatUint(lamports)
	action.Details["space"] = formatUint(space)
	action.Details["owner"] = owner.String()
	return action, nil
}
