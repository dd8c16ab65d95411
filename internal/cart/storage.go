package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/redisclient"
)

// Line is one product/quantity entry in a cart. Price and title are a
// browse-time snapshot; checkout re-reads the catalog and never trusts them.
type Line struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// State is the full cart content for one session.
type State struct {
	Lines []Line `json:"lines"`
}

// Total sums price * quantity over all lines. Discounts are an order-time
// concept and never apply here.
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Storage persists cart state between requests. Implementations must treat
// a missing session as (zero State, found=false, nil error).
type Storage interface {
	Load(ctx context.Context, sessionID string) (State, bool, error)
	Save(ctx context.Context, sessionID string, st State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStorage keeps carts in process memory. It backs tests and the
// degraded mode entered when Redis is unreachable.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string]State
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string]State)}
}

func (m *MemoryStorage) Load(_ context.Context, sessionID string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.carts[sessionID]
	return st, ok, nil
}

func (m *MemoryStorage) Save(_ context.Context, sessionID string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = st
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

// RedisStorage persists carts as JSON blobs with a TTL, surviving restarts
// for the lifetime of a browsing session.
type RedisStorage struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redisclient.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (r *RedisStorage) Load(ctx context.Context, sessionID string) (State, bool, error) {
	data, err := r.client.GetCart(ctx, sessionID)
	if redisclient.IsNil(err) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to load cart: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("failed to decode cart: %w", err)
	}
	return st, true, nil
}

func (r *RedisStorage) Save(ctx context.Context, sessionID string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	return r.client.SaveCart(ctx, sessionID, data, r.ttl)
}

func (r *RedisStorage) Delete(ctx context.Context, sessionID string) error {
	return r.client.DeleteCart(ctx, sessionID)
}
