package polkadot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	regstate "github.com/centrifuge/go-substrate-rpc-client/v4/registry/state"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
)

// Client is a Substrate RPC client that decodes blocks against the metadata
// of the runtime they were produced by.
type Client struct {
	api    *gsrpc.SubstrateAPI
	events regstate.EventProvider
	url    string

	mu       sync.Mutex
	runtimes map[uint32]*Runtime

	// SS58 prefix override; zero uses the runtime constant
	ss58Prefix uint16
}

// BlockEvents is one finalized block with its decoded events.
type BlockEvents struct {
	Number  uint64
	Hash    types.Hash
	Runtime *Runtime
	Events  []EventRecord
}

// HashHex returns the 0x-prefixed block hash.
func (b BlockEvents) HashHex() string {
	return codec.HexEncodeToString(b.Hash[:])
}

// NewClient creates a new client connected to url
func NewClient(url string) (*Client, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &Client{
		api:      api,
		events:   regstate.NewEventProvider(api.RPC.State),
		url:      url,
		runtimes: make(map[uint32]*Runtime),
	}, nil
}

// SetSS58Prefix overrides the address prefix reported by the runtime.
func (c *Client) SetSS58Prefix(prefix uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ss58Prefix = prefix
	for _, rt := range c.runtimes {
		rt.SS58Prefix = prefix
	}
}

// URL returns the endpoint the client is connected to.
func (c *Client) URL() string {
	return c.url
}

// Close closes the connection
func (c *Client) Close() error {
	// No explicit close needed for gsrpc
	return nil
}

// Head returns the number of the latest finalized block.
func (c *Client) Head(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	hash, err := c.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return 0, fmt.Errorf("get finalized head: %w", err)
	}
	header, err := c.api.RPC.Chain.GetHeader(hash)
	if err != nil {
		return 0, fmt.Errorf("get header %s: %w", codec.HexEncodeToString(hash[:]), err)
	}
	return uint64(header.Number), nil
}

// RuntimeAt returns the runtime active at block hash, cached per spec version.
// Registries are keyed by spec version rather than refreshed on a parse
// failure, because a backfill may cross runtime upgrades.
func (c *Client) RuntimeAt(hash types.Hash) (*Runtime, error) {
	version, err := c.api.RPC.State.GetRuntimeVersion(hash)
	if err != nil {
		return nil, fmt.Errorf("get runtime version: %w", err)
	}
	spec := uint32(version.SpecVersion)

	c.mu.Lock()
	rt, ok := c.runtimes[spec]
	c.mu.Unlock()
	if ok {
		return rt, nil
	}

	meta, err := c.api.RPC.State.GetMetadata(hash)
	if err != nil {
		return nil, fmt.Errorf("get metadata for spec %d: %w", spec, err)
	}
	rt, err = NewRuntime(spec, meta)
	if err != nil {
		return nil, fmt.Errorf("spec %d: %w", spec, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ss58Prefix != 0 {
		rt.SS58Prefix = c.ss58Prefix
	}
	c.runtimes[spec] = rt
	log.Printf("polkadot: loaded runtime spec %d (ss58 prefix %d)", spec, rt.SS58Prefix)
	return rt, nil
}

// LatestRuntime returns the runtime at the finalized head.
func (c *Client) LatestRuntime() (*Runtime, error) {
	hash, err := c.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return nil, fmt.Errorf("get finalized head: %w", err)
	}
	return c.RuntimeAt(hash)
}

// EventsAt fetches and decodes System.Events at block number n.
func (c *Client) EventsAt(n uint64) (BlockEvents, error) {
	hash, err := c.api.RPC.Chain.GetBlockHash(n)
	if err != nil {
		return BlockEvents{}, fmt.Errorf("get block hash %d: %w", n, err)
	}
	block := BlockEvents{Number: n, Hash: hash}

	rt, err := c.RuntimeAt(hash)
	if err != nil {
		return block, err
	}
	block.Runtime = rt

	raw, err := c.events.GetStorageEvents(rt.Meta, hash)
	if err != nil {
		return block, fmt.Errorf("get events at %d: %w", n, err)
	}
	if raw == nil {
		return block, nil
	}

	events, err := rt.DecodeEvents(*raw)
	if err != nil {
		return block, &DecodeError{Block: n, Err: err}
	}
	block.Events = events
	return block, nil
}

// DecodeError reports a block whose events could not be decoded.
type DecodeError struct {
	Block uint64
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Block, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Follow subscribes to finalized heads and calls handle for every block from
// from onwards, in order, filling gaps between notifications. A zero from
// starts at the first head received. Blocks whose events cannot be decoded are
// logged and delivered without events. Follow returns when ctx ends, the
// subscription fails, or handle returns an error.
func (c *Client) Follow(ctx context.Context, from uint64, handle func(context.Context, BlockEvents) error) error {
	sub, err := c.api.RPC.Chain.SubscribeFinalizedHeads()
	if err != nil {
		return fmt.Errorf("subscribe finalized heads: %w", err)
	}
	defer sub.Unsubscribe()

	next := from
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("finalized heads subscription: %w", err)
		case head, ok := <-sub.Chan():
			if !ok {
				return fmt.Errorf("finalized heads subscription closed")
			}
			n := uint64(head.Number)
			if next == 0 {
				next = n
			}
			for ; next <= n; next++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				block, err := c.EventsAt(next)
				if err != nil {
					var derr *DecodeError
					if !errors.As(err, &derr) {
						return err
					}
					log.Printf("polkadot: skipping events of %v", derr)
				}
				if err := handle(ctx, block); err != nil {
					return err
				}
			}
		}
	}
}

// StorageAt reads a raw storage value at the finalized head. A nil result means
// the key is absent.
func (c *Client) StorageAt(key []byte) ([]byte, error) {
	hash, err := c.api.RPC.Chain.GetFinalizedHead()
	if err != nil {
		return nil, fmt.Errorf("get finalized head: %w", err)
	}
	raw, err := c.api.RPC.State.GetStorageRaw(types.NewStorageKey(key), hash)
	if err != nil {
		return nil, err
	}
	if raw == nil || len(*raw) == 0 {
		return nil, nil
	}
	return *raw, nil
}

// MapEntryExists reports whether pallet.item[u32 key] is set at the finalized head.
func (c *Client) MapEntryExists(pallet, item string, id uint32) (bool, error) {
	rt, err := c.LatestRuntime()
	if err != nil {
		return false, err
	}
	keyData := make([]byte, 4)
	binary.LittleEndian.PutUint32(keyData, id)
	key, err := rt.MapKey(pallet, item, keyData)
	if err != nil {
		return false, err
	}
	raw, err := c.StorageAt(key)
	if err != nil {
		return false, fmt.Errorf("read %s.%s(%d): %w", pallet, item, id, err)
	}
	return raw != nil, nil
}
