package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// Manager holds one session's cart on top of an observable store. A storage
// failure never propagates: the cart degrades to in-memory-only for the rest
// of the session so a broken cart cannot break browsing.
type Manager struct {
	sessionID string
	storage   Storage
	state     *Observable[State]
	logger    *zap.Logger
	degraded  bool
}

// NewManager loads the session's cart from storage. If storage is
// unavailable the manager starts empty and degraded.
func NewManager(ctx context.Context, sessionID string, storage Storage) *Manager {
	m := &Manager{
		sessionID: sessionID,
		storage:   storage,
		logger:    util.GetLogger(),
	}

	st, _, err := storage.Load(ctx, sessionID)
	if err != nil {
		m.logger.Warn("Cart storage unavailable, degrading to in-memory cart",
			zap.String("session_id", sessionID),
			zap.Error(err))
		util.CartStorageFallbacks.Inc()
		m.degraded = true
		st = State{}
	}

	m.state = NewObservable(st)
	return m
}

// Subscribe registers a change listener; returns an unsubscribe function.
func (m *Manager) Subscribe(fn func(State)) func() {
	return m.state.Subscribe(fn)
}

// Items returns the current cart lines.
func (m *Manager) Items() []Line {
	return m.state.Snapshot().Lines
}

// Total returns the current cart total.
func (m *Manager) Total() decimal.Decimal {
	return m.state.Snapshot().Total()
}

// Mutations below always build a fresh Lines array: states already handed to
// snapshots or subscribers are never written again.

// Add merges quantity into an existing line for the product, or appends a
// new line. Quantities below 1 are treated as 1.
func (m *Manager) Add(ctx context.Context, product *models.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	image := ""
	if len(product.ImageURLs) > 0 {
		image = product.ImageURLs[0]
	}

	next := m.state.Mutate(func(st State) State {
		lines := make([]Line, len(st.Lines), len(st.Lines)+1)
		copy(lines, st.Lines)

		merged := false
		for i := range lines {
			if lines[i].ProductID == product.ID {
				lines[i].Quantity += quantity
				merged = true
				break
			}
		}
		if !merged {
			lines = append(lines, Line{
				ProductID: product.ID,
				Title:     product.Title,
				Slug:      product.Slug,
				Image:     image,
				Price:     product.Price,
				Quantity:  quantity,
			})
		}

		st.Lines = lines
		return st
	})

	m.persist(ctx, next)
}

// SetQuantity sets a line's quantity. Zero or below removes the line.
func (m *Manager) SetQuantity(ctx context.Context, productID int64, quantity int) {
	if quantity <= 0 {
		m.Remove(ctx, productID)
		return
	}

	next := m.state.Mutate(func(st State) State {
		lines := make([]Line, len(st.Lines))
		copy(lines, st.Lines)
		for i := range lines {
			if lines[i].ProductID == productID {
				lines[i].Quantity = quantity
				break
			}
		}
		st.Lines = lines
		return st
	})

	m.persist(ctx, next)
}

// Remove drops the line for a product id.
func (m *Manager) Remove(ctx context.Context, productID int64) {
	next := m.state.Mutate(func(st State) State {
		lines := make([]Line, 0, len(st.Lines))
		for _, l := range st.Lines {
			if l.ProductID != productID {
				lines = append(lines, l)
			}
		}
		st.Lines = lines
		return st
	})

	m.persist(ctx, next)
}

// Clear empties the cart, as after a successful checkout.
func (m *Manager) Clear(ctx context.Context) {
	m.state.Mutate(func(State) State { return State{} })

	if m.degraded {
		return
	}
	if err := m.storage.Delete(ctx, m.sessionID); err != nil {
		m.degrade(err)
	}
}

func (m *Manager) persist(ctx context.Context, st State) {
	if m.degraded {
		return
	}
	if err := m.storage.Save(ctx, m.sessionID, st); err != nil {
		m.degrade(err)
	}
}

func (m *Manager) degrade(err error) {
	m.logger.Warn("Cart storage write failed, continuing in-memory",
		zap.String("session_id", m.sessionID),
		zap.Error(err))
	util.CartStorageFallbacks.Inc()
	m.degraded = true
}

// Service hands out per-session managers, keeping live ones shared so every
// subscriber of a session observes the same store.
type Service struct {
	storage  Storage
	mu       sync.Mutex
	managers map[string]*Manager
}

// NewService creates a cart service over the given storage backend.
func NewService(storage Storage) *Service {
	return &Service{
		storage:  storage,
		managers: make(map[string]*Manager),
	}
}

// Session returns the manager for a session id, creating it on first use.
func (s *Service) Session(ctx context.Context, sessionID string) *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.managers[sessionID]; ok {
		return m
	}
	m := NewManager(ctx, sessionID, s.storage)
	s.managers[sessionID] = m
	return m
}

// Release drops a session's manager from the live set, e.g. after checkout.
func (s *Service) Release(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.managers, sessionID)
}
