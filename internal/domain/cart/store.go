package cart

import (
	"sync"

	"go.uber.org/zap"

	"github.com/xenking/shoplist/internal/domain/product"
)

// Store guards a cart State for concurrent readers and writers.
type Store struct {
	lg *zap.Logger

	mu    sync.Mutex
	state State
}

// NewStore returns an empty cart.
func NewStore(lg *zap.Logger) *Store {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Store{lg: lg}
}

// Snapshot returns a deep copy of the cart.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// AddToCart adds quantity units of p.
func (s *Store) AddToCart(p product.Product, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.state.AddToCart(p, quantity)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// UpdateQuantity increments or decrements the line for itemID by one.
func (s *Store) UpdateQuantity(itemID int, increment bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.UpdateQuantity(itemID, increment)
}

// SetCheckoutVisible shows or hides the checkout modal.
func (s *Store) SetCheckoutVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.SetCheckoutVisible(visible)
}

// ClearCart empties the cart and hides the checkout modal.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Clear()
}

// Confirm is the checkout confirmation: it logs the order summary and clears
// the cart. Nothing leaves the process.
func (s *Store) Confirm() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	confirmed := s.state
	s.lg.Info("Order confirmed",
		zap.Int("lines", len(confirmed.Lines)),
		zap.Int("items", confirmed.ItemCount()),
		zap.String("total", confirmed.FormattedTotal()),
	)
	s.state = s.state.Clear()
	return confirmed
}
