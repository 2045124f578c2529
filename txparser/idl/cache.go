package idl

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves the IDL for a program. Implementations return an error
// wrapping ErrIDLNotFound when the program publishes none.
type Fetcher interface {
	FetchIDL(ctx context.Context, programID solana.PublicKey) (*IDL, error)
}

type FetcherFunc func(ctx context.Context, programID solana.PublicKey) (*IDL, error)

func (f FetcherFunc) FetchIDL(ctx context.Context, programID solana.PublicKey) (*IDL, error) {
	return f(ctx, programID)
}

// Observer receives cache lookups ("hit", "miss", "negative") and the outcome
// of every fetch the cache performs.
type Observer interface {
	ObserveLookup(result string)
	ObserveFetch(d time.Duration, err error)
}

const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupNegative = "negative"
)

type entry struct {
	idl *IDL
	// set for programs with no usable IDL
	err error
}

// Cache holds IDLs per program for the lifetime of the owner. Concurrent
// misses for one program share a single fetch. Programs without an IDL, or
// with one that does not parse, are remembered; transport failures are not.
type Cache struct {
	fetcher  Fetcher
	observer Observer

	mu      sync.RWMutex
	entries map[solana.PublicKey]entry
	group   singleflight.Group
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[solana.PublicKey]entry),
	}
}

func (c *Cache) SetObserver(observer Observer) {
	c.observer = observer
}

func (c *Cache) Get(ctx context.Context, programID solana.PublicKey) (*IDL, error) {
	c.mu.RLock()
	e, ok := c.entries[programID]
	c.mu.RUnlock()
	if ok {
		if e.err != nil {
			c.observeLookup(LookupNegative)
			return nil, e.err
		}
		c.observeLookup(LookupHit)
		return e.idl, nil
	}
	c.observeLookup(LookupMiss)

	if c.fetcher == nil {
		return nil, errors.Wrapf(ErrIDLNotFound, "program %s: no fetcher", programID)
	}

	v, err, _ := c.group.Do(programID.String(), func() (interface{}, error) {
		start := time.Now()
		idl, err := c.fetcher.FetchIDL(ctx, programID)
		if err == nil && idl == nil {
			err = errors.Wrapf(ErrIDLNotFound, "program %s", programID)
		}
		c.observeFetch(time.Since(start), err)

		switch {
		case err == nil:
			c.store(programID, entry{idl: idl})
		case errors.Is(err, ErrIDLNotFound), errors.Is(err, ErrInvalidIDL):
			c.store(programID, entry{err: err})
		}
		return idl, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*IDL), nil
}

// Put preloads an IDL, replacing any cached value for the program.
func (c *Cache) Put(programID solana.PublicKey, idl *IDL) {
	c.store(programID, entry{idl: idl})
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[solana.PublicKey]entry)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) store(programID solana.PublicKey, e entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[programID] = e
}

func (c *Cache) observeLookup(result string) {
	if c.observer != nil {
		c.observer.ObserveLookup(result)
	}
}

func (c *Cache) observeFetch(d time.Duration, err error) {
	if c.observer != nil {
		c.observer.ObserveFetch(d, err)
	}
}
