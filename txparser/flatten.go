package txparser

import (
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// FlattenInstructions lists every top-level instruction in transaction order,
// followed by the inner instruction groups in ascending parent index, each
// group in the order the node reported it. Inner instructions are not
// interleaved with their parents.
func FlattenInstructions(msg *solana.Message, table AccountTable, inner []rpc.InnerInstruction) ([]RawInstruction, error) {
	total := len(msg.Instructions)
	for _, group := range inner {
		total += len(group.Instructions)
	}
	out := make([]RawInstruction, 0, total)

	for i, instruction := range msg.Instructions {
		raw, err := resolveInstruction(table, instruction.ProgramIDIndex, instruction.Accounts, instruction.Data)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		raw.Index = len(out)
		raw.ParentIndex = -1
		out = append(out, raw)
	}

	groups := make([]rpc.InnerInstruction, len(inner))
	copy(groups, inner)
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Index < groups[b].Index
	})

	for _, group := range groups {
		for j, instruction := range group.Instructions {
			raw, err := resolveInstruction(table, instruction.ProgramIDIndex, instruction.Accounts, instruction.Data)
			if err != nil {
				return nil, fmt.Errorf("inner instruction %d.%d: %w", group.Index, j, err)
			}
			raw.Index = len(out)
			raw.ParentIndex = int(group.Index)
			raw.StackHeight = instruction.StackHeight
			out = append(out, raw)
		}
	}

	return out, nil
}

func resolveInstruction(table AccountTable, programIDIndex uint16, accounts []uint16, data []byte) (RawInstruction, error) {
	programID, err := table.get(programIDIndex)
	if err != nil {
		return RawInstruction{}, err
	}
	keys, err := table.resolve(accounts)
	if err != nil {
		return RawInstruction{}, err
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	return RawInstruction{
		ProgramID: programID,
		Accounts:  keys,
		Data:      payload,
	}, nil
}
