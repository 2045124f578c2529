package txparser

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/smallyunet/solana-tx-parser/txparser/idl"
)

const (
	SIGNATURE_SIMULATED         = "SIMULATED"
	SIGNATURE_SIMULATED_FAILURE = "SIMULATED_FAILURE"

	simulatedFee = "0"
)

// RPCClient is the subset of *rpc.Client the parser uses.
type RPCClient interface {
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	SimulateTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error)
}

type Parser struct {
	client     RPCClient
	commitment rpc.CommitmentType
	registry   *Registry
	schemas    *SchemaDecoder
	metrics    *Metrics
	Log        *logrus.Logger
}

type Option func(*Parser)

func WithRegistry(registry *Registry) Option {
	return func(p *Parser) { p.registry = registry }
}

// WithSchemaSource replaces the default on-chain IDL cache. A nil source
// disables the schema tier.
func WithSchemaSource(source SchemaSource) Option {
	return func(p *Parser) { p.schemas = NewSchemaDecoder(source) }
}

func WithMetrics(metrics *Metrics) Option {
	return func(p *Parser) { p.metrics = metrics }
}

func WithLogger(log *logrus.Logger) Option {
	return func(p *Parser) { p.Log = log }
}

func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(p *Parser) { p.commitment = commitment }
}

// NewParser builds a parser around client. client may be nil when only the
// already-fetched entry points are used; the schema tier and address table
// fetches then have nothing to call.
func NewParser(client RPCClient, opts ...Option) *Parser {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	parser := &Parser{
		client:     client,
		commitment: rpc.CommitmentConfirmed,
		Log:        log,
	}
	for _, opt := range opts {
		opt(parser)
	}

	if parser.registry == nil {
		parser.registry = NewDefaultRegistry()
	}
	if parser.schemas == nil {
		if client != nil {
			cache := idl.NewCache(idl.NewRPCFetcher(client))
			if parser.metrics != nil {
				cache.SetObserver(parser.metrics)
			}
			parser.schemas = NewSchemaDecoder(cache)
		} else {
			parser.schemas = NewSchemaDecoder(nil)
		}
	}
	return parser
}

func (p *Parser) Registry() *Registry {
	return p.registry
}

// ParseTransaction fetches and decodes a transaction. A signature the node
// does not know yields a nil report and a nil error.
func (p *Parser) ParseTransaction(ctx context.Context, sig solana.Signature) (*DecodedReport, error) {
	if p.client == nil {
		return nil, ErrNoRPCClient
	}

	maxVersion := uint64(0)
	res, err := p.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     p.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", sig, err)
	}
	return p.ParseTransactionResult(ctx, sig.String(), res)
}

// ParseTransactionResult decodes a getTransaction response the caller already
// holds.
func (p *Parser) ParseTransactionResult(ctx context.Context, signature string, res *rpc.GetTransactionResult) (*DecodedReport, error) {
	if res == nil || res.Transaction == nil {
		return nil, nil
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return p.ParseTransactionWithMeta(ctx, signature, tx, res.Meta, res.BlockTime)
}

func (p *Parser) ParseTransactionWithMeta(
	ctx context.Context,
	signature string,
	tx *solana.Transaction,
	meta *rpc.TransactionMeta,
	blockTime *solana.UnixTimeSeconds,
) (*DecodedReport, error) {
	start := time.Now()
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrUnresolvableAccountTable)
	}
	if signature == "" && len(tx.Signatures) > 0 {
		signature = tx.Signatures[0].String()
	}

	var (
		loaded *rpc.LoadedAddresses
		inner  []rpc.InnerInstruction
		fee    uint64
	)
	if meta != nil {
		loaded = &meta.LoadedAddresses
		inner = meta.InnerInstructions
		fee = meta.Fee
	}

	msg := tx.Message
	actions, err := p.decodeMessage(ctx, &msg, loaded, inner)
	if err != nil {
		p.metrics.RecordTransaction("error", time.Since(start))
		return nil, fmt.Errorf("failed to decode transaction %s: %w", signature, err)
	}

	report := &DecodedReport{
		Signature: signature,
		Fee:       FormatFee(fee),
		Success:   meta != nil && meta.Err == nil,
		Actions:   actions,
	}
	if blockTime != nil {
		ts := int64(*blockTime)
		report.Timestamp = &ts
	}

	status := "success"
	if !report.Success {
		status = "failed"
	}
	p.metrics.RecordTransaction(status, time.Since(start))
	return report, nil
}

// SimulateAndParse simulates tx and decodes its top-level instructions.
// Simulation does not report inner instructions. A simulation that fails on
// chain yields a SIMULATED_FAILURE report; transport errors are returned.
func (p *Parser) SimulateAndParse(ctx context.Context, tx *solana.Transaction) (*DecodedReport, error) {
	if p.client == nil {
		return nil, ErrNoRPCClient
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrUnresolvableAccountTable)
	}

	res, err := p.client.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		Commitment:             p.commitment,
		ReplaceRecentBlockhash: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to simulate transaction: %w", err)
	}
	if res == nil || res.Value == nil || res.Value.Err != nil {
		if res != nil && res.Value != nil {
			p.Log.WithField("logs", len(res.Value.Logs)).Debugf("simulation failed: %v", res.Value.Err)
		}
		return &DecodedReport{
			Signature: SIGNATURE_SIMULATED_FAILURE,
			Fee:       simulatedFee,
			Success:   false,
			Actions:   []Action{},
		}, nil
	}

	msg := tx.Message
	actions, err := p.decodeMessage(ctx, &msg, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode simulated transaction: %w", err)
	}
	return &DecodedReport{
		Signature: SIGNATURE_SIMULATED,
		Fee:       simulatedFee,
		Success:   true,
		Actions:   actions,
	}, nil
}

// decodeMessage resolves, flattens and decodes msg. msg may be modified by
// attaching fetched address tables, so callers pass a copy.
func (p *Parser) decodeMessage(ctx context.Context, msg *solana.Message, loaded *rpc.LoadedAddresses, inner []rpc.InnerInstruction) ([]Action, error) {
	if msg.NumLookups() > 0 && (loaded == nil || len(loaded.Writable)+len(loaded.ReadOnly) == 0) {
		if err := p.loadAddressTables(ctx, msg); err != nil {
			return nil, err
		}
	}

	table, err := ResolveAccounts(msg, loaded)
	if err != nil {
		return nil, err
	}
	instructions, err := FlattenInstructions(msg, table, inner)
	if err != nil {
		return nil, err
	}

	actions := make([]Action, 0, len(instructions))
	for i := range instructions {
		actions = append(actions, *p.DecodeInstruction(ctx, &instructions[i]))
	}
	return actions, nil
}

// DecodeInstruction runs one instruction through the registered decoder, the
// schema decoder and finally the opaque fallback. It always returns an
// action.
func (p *Parser) DecodeInstruction(ctx context.Context, ix *RawInstruction) *Action {
	log := p.Log.WithFields(logrus.Fields{
		"program": ix.ProgramID.String(),
		"index":   ix.Index,
	})

	if decoder, ok := p.registry.Lookup(ix.ProgramID); ok {
		action, err := decoder.Decode(ix)
		if err == nil && action != nil {
			p.metrics.RecordAction(action.Protocol, TierRegistry)
			return action
		}
		p.metrics.RecordDecodeMismatch(decoder.Name())
		log.WithField("tier", TierRegistry).Debugf("%s decoder declined: %v", decoder.Name(), err)
	}

	action, err := p.schemas.Decode(ctx, ix)
	if err == nil && action != nil {
		p.metrics.RecordAction(action.Protocol, TierSchema)
		return action
	}
	log.WithField("tier", TierSchema).Debugf("schema decode unavailable: %v", err)

	action = opaqueAction(ix)
	p.metrics.RecordAction(action.Protocol, TierOpaque)
	return action
}

func opaqueAction(ix *RawInstruction) *Action {
	action := newAction(
		PROTOCOL_UNKNOWN,
		ActionTypeUnknown,
		fmt.Sprintf("Instruction for program %s", ix.ProgramID),
	)
	action.Details["programId"] = ix.ProgramID.String()
	action.Details["data"] = hex.EncodeToString(ix.Data)
	return action
}
