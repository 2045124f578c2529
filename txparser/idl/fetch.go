package idl

import (
	"bytes"
	"context"
	"io"

	ag_binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

const (
	idlSeed = "anchor:idl"

	// discriminator, authority, u32 length
	idlAccountHeaderSize = 8 + 32 + 4

	maxInflatedIDLSize = 16 << 20
)

type AccountInfoGetter interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// RPCFetcher reads the IDL account Anchor publishes for a program.
type RPCFetcher struct {
	client AccountInfoGetter
}

func NewRPCFetcher(client AccountInfoGetter) *RPCFetcher {
	return &RPCFetcher{client: client}
}

// IDLAddress derives the account holding a program's IDL: an address created
// with seed "anchor:idl" from the program's seedless PDA.
func IDLAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	base, _, err := solana.FindProgramAddress([][]byte{}, programID)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "failed to derive idl base address")
	}
	addr, err := solana.CreateWithSeed(base, idlSeed, programID)
	if err != nil {
		return solana.PublicKey{}, errors.Wrap(err, "failed to derive idl address")
	}
	return addr, nil
}

func (f *RPCFetcher) FetchIDL(ctx context.Context, programID solana.PublicKey) (*IDL, error) {
	addr, err := IDLAddress(programID)
	if err != nil {
		return nil, err
	}

	res, err := f.client.GetAccountInfo(ctx, addr)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, errors.Wrapf(ErrIDLNotFound, "program %s", programID)
		}
		return nil, errors.Wrapf(err, "failed to get idl account %s", addr)
	}
	data := res.GetBinary()
	if len(data) == 0 {
		return nil, errors.Wrapf(ErrIDLNotFound, "program %s: empty idl account", programID)
	}

	idl, err := DecodeIDLAccount(data)
	if err != nil {
		return nil, errors.Wrapf(err, "program %s", programID)
	}
	return idl, nil
}

// DecodeIDLAccount parses the raw contents of an IDL account: the account
// discriminator, the upgrade authority, then a length prefixed zlib stream of
// the JSON document. Every failure wraps ErrInvalidIDL.
func DecodeIDLAccount(data []byte) (*IDL, error) {
	if len(data) < idlAccountHeaderSize {
		return nil, errors.Wrapf(ErrInvalidIDL, "idl account too short: %d bytes", len(data))
	}

	dec := ag_binary.NewBorshDecoder(data)
	if err := dec.Discard(8 + 32); err != nil {
		return nil, errors.Wrapf(ErrInvalidIDL, "idl account header: %v", err)
	}
	n, err := dec.ReadUint32(ag_binary.LE)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidIDL, "idl data length: %v", err)
	}
	compressed, err := dec.ReadNBytes(int(n))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidIDL, "idl data: %s", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidIDL, "failed to open idl zlib stream: %v", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, maxInflatedIDLSize))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidIDL, "failed to inflate idl: %v", err)
	}
	return ParseIDL(raw)
}
