package txparser

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	lookup "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
)

// AccountTable is the ordered key list account indices refer to.
type AccountTable solana.PublicKeySlice

type messageFormat int

const (
	formatLegacy messageFormat = iota
	formatVersioned
)

// JSON-decoded messages keep the legacy version flag even when they carry
// address table lookups, so the lookups and loaded addresses are checked too.
func detectFormat(msg *solana.Message, loaded *rpc.LoadedAddresses) (messageFormat, error) {
	switch msg.GetVersion() {
	case solana.MessageVersionLegacy, solana.MessageVersionV0:
	default:
		return 0, fmt.Errorf("%w: unknown message version %d", ErrUnresolvableAccountTable, msg.GetVersion())
	}
	if msg.IsVersioned() || len(msg.AddressTableLookups) > 0 {
		return formatVersioned, nil
	}
	if loaded != nil && len(loaded.Writable)+len(loaded.ReadOnly) > 0 {
		return formatVersioned, nil
	}
	return formatLegacy, nil
}

// ResolveAccounts builds the account table of a message. Legacy messages use
// their static keys; versioned messages append the loaded writable and then
// the loaded readonly addresses.
func ResolveAccounts(msg *solana.Message, loaded *rpc.LoadedAddresses) (AccountTable, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", ErrUnresolvableAccountTable)
	}
	format, err := detectFormat(msg, loaded)
	if err != nil {
		return nil, err
	}

	if format == formatLegacy || msg.IsResolved() {
		table := make(AccountTable, len(msg.AccountKeys))
		copy(table, msg.AccountKeys)
		return table, nil
	}

	var writable, readonly solana.PublicKeySlice
	if loaded != nil {
		writable = loaded.Writable
		readonly = loaded.ReadOnly
	}

	numLookups := msg.NumLookups()
	if len(writable)+len(readonly) == 0 && numLookups > 0 {
		if len(msg.GetAddressTables()) == 0 {
			return nil, fmt.Errorf("%w: %d lookups without loaded addresses", ErrUnresolvableAccountTable, numLookups)
		}
		keys, err := msg.GetAddressTableLookupAccounts()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnresolvableAccountTable, err)
		}
		writable = keys[:msg.NumWritableLookups()]
		readonly = keys[msg.NumWritableLookups():]
	}

	if numLookups > 0 {
		if len(writable) != msg.NumWritableLookups() || len(writable)+len(readonly) != numLookups {
			return nil, fmt.Errorf(
				"%w: lookups expect %d writable/%d total, got %d/%d",
				ErrUnresolvableAccountTable,
				msg.NumWritableLookups(), numLookups,
				len(writable), len(writable)+len(readonly),
			)
		}
	}

	table := make(AccountTable, 0, len(msg.AccountKeys)+len(writable)+len(readonly))
	table = append(table, msg.AccountKeys...)
	table = append(table, writable...)
	table = append(table, readonly...)
	return table, nil
}

func (t AccountTable) get(index uint16) (solana.PublicKey, error) {
	if int(index) >= len(t) {
		return solana.PublicKey{}, fmt.Errorf("%w: account index %d out of range (%d keys)", ErrUnresolvableAccountTable, index, len(t))
	}
	return t[index], nil
}

func (t AccountTable) resolve(indices []uint16) (solana.PublicKeySlice, error) {
	out := make(solana.PublicKeySlice, len(indices))
	for i, idx := range indices {
		key, err := t.get(idx)
		if err != nil {
			return nil, err
		}
		out[i] = key
	}
	return out, nil
}

// loadAddressTables fetches the lookup tables a versioned message references
// and attaches them to msg. It is only needed when the ledger did not report
// loaded addresses, e.g. for simulated transactions.
func (p *Parser) loadAddressTables(ctx context.Context, msg *solana.Message) error {
	if msg.NumLookups() == 0 || len(msg.GetAddressTables()) > 0 || msg.IsResolved() {
		return nil
	}
	if p.client == nil {
		return fmt.Errorf("%w: address tables needed: %v", ErrUnresolvableAccountTable, ErrNoRPCClient)
	}

	tables := make(map[solana.PublicKey]solana.PublicKeySlice)
	for _, tableID := range msg.GetAddressTableLookups().GetTableIDs() {
		info, err := p.client.GetAccountInfo(ctx, tableID)
		if err != nil {
			return fmt.Errorf("%w: fetch address table %s: %v", ErrUnresolvableAccountTable, tableID, err)
		}
		state, err := lookup.DecodeAddressLookupTableState(info.GetBinary())
		if err != nil {
			return fmt.Errorf("%w: decode address table %s: %v", ErrUnresolvableAccountTable, tableID, err)
		}
		tables[tableID] = state.Addresses
	}
	return msg.SetAddressTables(tables)
}
