package sol

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
)

// RPCPool manages multiple RPC endpoints and distributes requests across them
type RPCPool struct {
	endpoints []string
	clients   []*Client
	index     uint64
	mu        sync.RWMutex
}

// NewRPCPool creates a new RPC pool with the given endpoints
func NewRPCPool(ctx context.Context, endpoints []string, jitoRpc string, reqLimitPerSecond int, opts ...Option) (*RPCPool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no rpc endpoints configured")
	}

	pool := &RPCPool{
		endpoints: endpoints,
		clients:   make([]*Client, 0, len(endpoints)),
	}

	// Create a client for each endpoint
	for _, endpoint := range endpoints {
		client, err := NewClient(ctx, endpoint, jitoRpc, reqLimitPerSecond, opts...)
		if err != nil {
			return nil, fmt.Errorf("client for %s: %w", endpoint, err)
		}
		pool.clients = append(pool.clients, client)
	}

	return pool, nil
}

// GetClient returns the next client in round-robin fashion
func (p *RPCPool) GetClient() *Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.clients) == 0 {
		return nil
	}
	if len(p.clients) == 1 {
		return p.clients[0]
	}

	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// Size returns the number of clients in the pool
func (p *RPCPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// GetAccountData reads account through the next client.
func (p *RPCPool) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	return p.GetClient().GetAccountData(ctx, account)
}

// Submit sends instructions through the next client.
func (p *RPCPool) Submit(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	return p.GetClient().Submit(ctx, instructions)
}
