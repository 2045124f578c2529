package txparser

import (
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Registry maps program ids to decoders. Registering a second decoder for the
// same program replaces the first.
type Registry struct {
	mu       sync.RWMutex
	decoders map[solana.PublicKey]Decoder
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[solana.PublicKey]Decoder),
	}
}

// NewDefaultRegistry returns a registry holding every built-in decoder.
func NewDefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewSystemDecoder())
	reg.Register(NewTokenDecoder(solana.TokenProgramID))
	reg.Register(NewTokenDecoder(solana.Token2022ProgramID))
	reg.Register(NewJupiterDecoder())
	reg.Register(NewRaydiumDecoder())
	reg.Register(NewOrcaDecoder())
	reg.Register(NewPumpfunDecoder())
	reg.Register(NewPumpSwapDecoder())
	return reg
}

func (r *Registry) Register(decoder Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[decoder.ProgramID()] = decoder
}

func (r *Registry) Lookup(programID solana.PublicKey) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decoder, ok := r.decoders[programID]
	return decoder, ok
}

// List returns the registered decoders ordered by program id.
func (r *Registry) List() []Decoder {
	r.mu.RLock()
	out := make([]Decoder, 0, len(r.decoders))
	for _, decoder := range r.decoders {
		out = append(out, decoder)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ProgramID().String() < out[j].ProgramID().String()
	})
	return out
}
