package payment

import (
	"context"
	"fmt"
	"time"

	"shopcore/internal/core/apperror"
	"shopcore/internal/core/id"
	"shopcore/internal/core/tx"
	"shopcore/internal/domain/documents/order"
	"shopcore/pkg/logger"
)

// OrderMarker flips an order's payment flag. Implemented by the order module.
type OrderMarker interface {
	MarkPaid(ctx context.Context, orderID id.ID, result *order.PaymentResult) (*order.Order, error)
}

// Config holds payment session tuning.
type Config struct {
	// SessionTTL is how long an open session stays payable
	SessionTTL time.Duration

	// SweepInterval is how often the sweeper expires stale sessions
	SweepInterval time.Duration
}

// DefaultConfig returns the default session tuning.
func DefaultConfig() Config {
	return Config{
		SessionTTL:    30 * time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}

// Service provides payment session operations.
type Service struct {
	repo      Repository
	orders    OrderMarker
	getOrder  func(ctx context.Context, orderID id.ID) (*order.Order, error)
	txManager tx.Manager
	config    Config
}

// NewService creates a new payment service.
func NewService(repo Repository, orderSvc *order.Service, txManager tx.Manager, config Config) *Service {
	return &Service{
		repo:      repo,
		orders:    orderSvc,
		getOrder:  orderSvc.GetByID,
		txManager: txManager,
		config:    config,
	}
}

// Begin opens a payment session for an unpaid order. An existing open
// session for the same order is returned instead of opening a second one.
func (s *Service) Begin(ctx context.Context, orderID id.ID, method string) (*Session, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsPaid {
		return nil, apperror.NewConflict("order is already paid").
			WithDetail("order_id", orderID.String())
	}
	if o.Status == order.StatusCancelled {
		return nil, apperror.NewInvalidTransition("order", string(o.Status), "pay")
	}

	var session *Session
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetOpenByOrder(ctx, orderID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil && !existing.IsExpired(time.Now().UTC()) {
			session = existing
			return nil
		}

		now := time.Now().UTC()
		session = &Session{
			ID:        id.New(),
			OrderID:   orderID,
			Amount:    o.TotalPrice,
			Method:    method,
			Status:    SessionOpen,
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.Add(s.config.SessionTTL),
		}
		if err := session.Validate(ctx); err != nil {
			return err
		}
		return s.repo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment session opened",
		"session_id", session.ID,
		"order_id", orderID,
		"amount", session.Amount,
	)
	return session, nil
}

// Resolve closes a session with the gateway's verdict. A successful verdict
// marks the order paid, which posts the income entry.
func (s *Service) Resolve(ctx context.Context, sessionID id.ID, succeeded bool, gatewayID, gatewayStatus string) (*Session, error) {
	var session *Session
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.repo.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != SessionOpen {
			return apperror.NewInvalidTransition("payment session", string(session.Status), "resolve")
		}
		if session.IsExpired(time.Now().UTC()) {
			session.Status = SessionExpired
			session.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, session); err != nil {
				return err
			}
			return apperror.NewInvalidTransition("payment session", string(SessionExpired), "resolve")
		}

		if succeeded {
			session.Status = SessionPaid
		} else {
			session.Status = SessionFailed
		}
		session.GatewayID = gatewayID
		session.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	if session.Status == SessionPaid {
		_, err := s.orders.MarkPaid(ctx, session.OrderID, &order.PaymentResult{
			ID:         gatewayID,
			Status:     gatewayStatus,
			UpdateTime: time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
	}

	logger.Info(ctx, "payment session resolved",
		"session_id", session.ID,
		"status", session.Status,
	)
	return session, nil
}

// GetByID retrieves a session.
func (s *Service) GetByID(ctx context.Context, sessionID id.ID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

// StartSweeper launches the background loop that expires stale sessions.
// It stops when the context is cancelled.
func (s *Service) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.config.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Service) sweep(ctx context.Context) {
	n, err := s.repo.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		logger.Error(ctx, "payment session sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "expired stale payment sessions", "count", n)
	}
}
