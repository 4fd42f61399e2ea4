package provider

import (
	"context"
	"encoding/json"

	"github.com/consultdesk/consultdesk-backend/pkg/db/models"
	pkgerrors "github.com/consultdesk/consultdesk-backend/pkg/errors"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
	"github.com/consultdesk/consultdesk-backend/pkg/metrics"
	"github.com/consultdesk/consultdesk-backend/pkg/payprovider"
)

const (
	eventPaymentCaptured = "payment.captured"
	eventPaymentFailed   = "payment.failed"

	idempotencyConsumer = "provider-webhook"
)

// paymentTransitioner is the slice of the payments service the processor
// needs: the shared rank-gated capture and failure transitions.
type paymentTransitioner interface {
	MarkCaptured(ctx context.Context, providerOrderID, providerPaymentID string) (*models.Payment, bool, error)
	MarkFailed(ctx context.Context, providerOrderID, reason string) (*models.Payment, bool, error)
}

// processedMarker deduplicates deliveries before they hit the database. It is
// best effort; the rank gate on the payment row is the correctness guarantee.
type processedMarker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, eventID string) (bool, error)
	Delete(ctx context.Context, consumer, eventID string) error
}

// webhookEnvelope is the provider's callback shape. Fields beyond these are
// ignored.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ServiceParams configure the webhook processor.
type ServiceParams struct {
	Logger        *logger.Logger
	Payments      paymentTransitioner
	Idempotency   processedMarker
	Metrics       *metrics.WebhookMetrics
	WebhookSecret string
}

// Service ingests asynchronous provider callbacks. Deliveries are
// at-least-once and unordered, so every accepted event funnels into the same
// rank-gated transitions the synchronous verification path uses.
type Service struct {
	logg        *logger.Logger
	payments    paymentTransitioner
	idempotency processedMarker
	metrics     *metrics.WebhookMetrics
	secret      string
}

// NewService builds the webhook processor. Idempotency may be nil; dedup then
// falls entirely on the database rank gate.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	return &Service{
		logg:        params.Logger,
		payments:    params.Payments,
		idempotency: params.Idempotency,
		metrics:     params.Metrics,
		secret:      params.WebhookSecret,
	}, nil
}

// Process authenticates and applies one webhook delivery.
//
// A missing secret fails closed with a config error rather than accepting
// unverified input. Unknown event types and unknown provider order ids
// succeed without side effects so the provider stops retrying them.
func (s *Service) Process(ctx context.Context, body []byte, signature string) error {
	if s.secret == "" {
		s.metrics.IncRejected("unconfigured")
		return pkgerrors.New(pkgerrors.CodeConfig, "webhook secret is not configured")
	}
	if signature == "" {
		s.metrics.IncRejected("missing")
		s.logg.Warn(ctx, "webhook signature rejected")
		return pkgerrors.New(pkgerrors.CodeSignature, "invalid webhook signature")
	}
	if !payprovider.VerifyWebhook(body, signature, s.secret) {
		s.metrics.IncRejected("mismatch")
		s.logg.Warn(ctx, "webhook signature rejected")
		return pkgerrors.New(pkgerrors.CodeSignature, "invalid webhook signature")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode webhook body")
	}

	switch envelope.Event {
	case eventPaymentCaptured, eventPaymentFailed:
	default:
		s.metrics.IncReceived(envelope.Event, "ignored")
		logCtx := s.logg.WithField(ctx, "event", envelope.Event)
		s.logg.Info(logCtx, "webhook event ignored")
		return nil
	}

	entity := envelope.Payload.Payment.Entity
	if entity.OrderID == "" {
		s.metrics.IncReceived(envelope.Event, "ignored")
		s.logg.Warn(ctx, "webhook payload missing provider order id")
		return nil
	}

	eventKey := envelope.Event + ":" + entity.OrderID + ":" + entity.ID
	if s.alreadyProcessed(ctx, eventKey) {
		s.metrics.IncReceived(envelope.Event, "duplicate")
		return nil
	}

	var err error
	switch envelope.Event {
	case eventPaymentCaptured:
		_, _, err = s.payments.MarkCaptured(ctx, entity.OrderID, entity.ID)
	case eventPaymentFailed:
		_, _, err = s.payments.MarkFailed(ctx, entity.OrderID, entity.ErrorDescription)
	}
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			s.metrics.IncReceived(envelope.Event, "unknown")
			logCtx := s.logg.WithOrderID(ctx, entity.OrderID)
			s.logg.Info(logCtx, "webhook for unknown provider order ignored")
			return nil
		}
		s.metrics.IncReceived(envelope.Event, "error")
		s.unmark(ctx, eventKey)
		return err
	}

	s.metrics.IncReceived(envelope.Event, "applied")
	logCtx := s.logg.WithOrderID(ctx, entity.OrderID)
	logCtx = s.logg.WithField(logCtx, "event", envelope.Event)
	s.logg.Info(logCtx, "webhook processed")
	return nil
}

func (s *Service) alreadyProcessed(ctx context.Context, eventKey string) bool {
	if s.idempotency == nil {
		return false
	}
	processed, err := s.idempotency.CheckAndMarkProcessed(ctx, idempotencyConsumer, eventKey)
	if err != nil {
		s.logg.Error(ctx, "webhook dedup check failed", err)
		return false
	}
	return processed
}

func (s *Service) unmark(ctx context.Context, eventKey string) {
	if s.idempotency == nil {
		return
	}
	if err := s.idempotency.Delete(ctx, idempotencyConsumer, eventKey); err != nil {
		s.logg.Error(ctx, "webhook dedup unmark failed", err)
	}
}
