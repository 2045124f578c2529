package txparser

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/smallyunet/solana-tx-parser/txparser/idl"
)

const (
	PROTOCOL_UNKNOWN_ANCHOR = "Unknown Anchor Protocol"
)

// SchemaSource resolves the interface description of a program.
// *idl.Cache is the usual implementation.
type SchemaSource interface {
	Get(ctx context.Context, programID solana.PublicKey) (*idl.IDL, error)
}

// SchemaDecoder is the fallback for programs without a registered decoder.
// It decodes instructions generically from the program's published IDL.
type SchemaDecoder struct {
	schemas SchemaSource
}

func NewSchemaDecoder(schemas SchemaSource) *SchemaDecoder {
	return &SchemaDecoder{schemas: schemas}
}

func (d *SchemaDecoder) Decode(ctx context.Context, ix *RawInstruction) (*Action, error) {
	if d == nil || d.schemas == nil {
		return nil, ErrSchemaUnavailable
	}

	doc, err := d.schemas.Get(ctx, ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}
	decoded, err := doc.DecodeInstruction(ix.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}

	name := doc.ProgramName()
	protocol, label := name, name
	if name == "" {
		protocol, label = PROTOCOL_UNKNOWN_ANCHOR, "Anchor"
	}

	action := newAction(protocol, decoded.Name, fmt.Sprintf("%s Instruction: %s", label, decoded.Name))

	data := make(map[string]interface{}, len(decoded.Args))
	amounts := make(map[string]interface{})
	for _, arg := range decoded.Args {
		value := stringifyArg(arg.Value)
		data[arg.Name] = value
		if isAmountField(arg.Name) {
			amounts[arg.Name] = value
		}
	}

	action.Details["name"] = decoded.Name
	action.Details["data"] = data
	if len(amounts) > 0 {
		action.Details["extractedAmounts"] = amounts
	}
	if mints := mintAccounts(decoded.Instruction, ix); len(mints) > 0 {
		action.Details["mints"] = mints
	}
	return action, nil
}

func isAmountField(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "amount") || lower == "lamports"
}

// stringifyArg renders scalars as strings and leaves composite values as
// decoded.
func stringifyArg(v interface{}) interface{} {
	switch v.(type) {
	case nil, string, map[string]interface{}, []interface{}:
		return v
	}
	return fmt.Sprint(v)
}

// mintAccounts pairs the IDL account names with the instruction's accounts
// and returns those named like a mint.
func mintAccounts(def *idl.IDLInstruction, ix *RawInstruction) []string {
	var mints []string
	for i, acc := range def.FlatAccounts() {
		if i >= len(ix.Accounts) {
			break
		}
		if strings.Contains(strings.ToLower(acc.Name), "mint") {
			mints = append(mints, ix.Accounts[i].String())
		}
	}
	return mints
}
