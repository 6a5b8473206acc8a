package iyzico

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/wodoo-app/subscription-service/internal/domain"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// Simulator is a stand-in gateway for local development. It approves
// roughly 90% of charges without talking to iyzico.
type Simulator struct {
	successRate float64

	// rng is shared by concurrent Charge calls from the sweep workers
	mu  sync.Mutex
	rng *rand.Rand

	log *logger.Logger
}

// NewSimulator creates a simulated gateway with the given success rate
func NewSimulator(successRate float64, log *logger.Logger) *Simulator {
	return &Simulator{
		successRate: successRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		log:         log,
	}
}

// VerifyPayment always verifies in the simulator
func (s *Simulator) VerifyPayment(ctx context.Context, paymentID string, amount float64) (bool, error) {
	return true, nil
}

// Charge simulates billing a stored payment method
func (s *Simulator) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()

	if roll >= s.successRate {
		s.log.Warn("Simulated payment declined for user %s", req.UserID)
		return &domain.ChargeResult{
			Success:      false,
			ErrorMessage: "Kart bilgileri geçersiz veya yetersiz bakiye",
		}, nil
	}

	now := time.Now().UnixMilli()
	result := &domain.ChargeResult{
		Success:       true,
		PaymentID:     fmt.Sprintf("payment_%d_%s", now, req.UserID),
		TransactionID: fmt.Sprintf("txn_%d", now),
	}
	s.log.Info("Simulated payment %s approved for user %s", result.PaymentID, req.UserID)
	return result, nil
}
