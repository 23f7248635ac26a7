package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"interactdapp/pkg/observability"
)

var ErrTransactionFailed = errors.New("transaction failed")

type signatureSubscriber interface {
	SubscribeSignature(signature solana.Signature, handler SignatureHandler) (uint64, error)
	Unsubscribe(id uint64) error
}

// SignatureWaiter blocks until a signature is confirmed over a websocket
// subscription.
type SignatureWaiter struct {
	client  signatureSubscriber
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewSignatureWaiter(client signatureSubscriber, metrics *observability.Metrics, logger *zap.Logger) *SignatureWaiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignatureWaiter{
		client:  client,
		metrics: metrics,
		logger:  logger,
	}
}

// WaitForSignature returns nil once signature is confirmed, an
// ErrTransactionFailed error if it landed with an error, or ctx.Err().
func (w *SignatureWaiter) WaitForSignature(ctx context.Context, signature solana.Signature) error {
	done := make(chan SignatureResult, 1)
	id, err := w.client.SubscribeSignature(signature, func(result SignatureResult) {
		select {
		case done <- result:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe signature %s: %w", signature, err)
	}

	select {
	case result := <-done:
		if result.Failed() {
			return fmt.Errorf("%w: %s at slot %d: %s", ErrTransactionFailed, signature, result.Slot, string(result.Err))
		}
		if w.metrics != nil {
			w.metrics.Confirmed.Inc()
		}
		w.logger.Info("transaction confirmed",
			zap.Stringer("signature", signature),
			zap.Uint64("slot", result.Slot))
		return nil
	case <-ctx.Done():
		if err := w.client.Unsubscribe(id); err != nil {
			w.logger.Debug("unsubscribe signature", zap.Error(err))
		}
		return ctx.Err()
	}
}
