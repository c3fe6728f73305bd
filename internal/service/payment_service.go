package service

import (
	"context"
	"errors"
	"fmt"

	"rentalhub/internal/auth"
	"rentalhub/internal/domain"
	"rentalhub/internal/events"
	"rentalhub/internal/policy"
	"rentalhub/internal/repository"
	"rentalhub/internal/search"

	"go.uber.org/zap"
)

// PaymentService 付款. Completion / failure belongs to the external payment processor,
// which reads payment.created from the event stream.
type PaymentService interface {
	List(ctx context.Context, actor *auth.Identity, page search.Page) (*ListResult[PaymentDTO], error)
	Get(ctx context.Context, actor *auth.Identity, id int64) (*PaymentDTO, error)
	Pay(ctx context.Context, actor *auth.Identity, req PayRequest) (*PaymentDTO, error)
}

type paymentService struct {
	applications repository.ApplicationsRepository
	payments     repository.PaymentsRepository
	publisher    events.Publisher
	logger       *zap.Logger
}

func NewPaymentService(
	applications repository.ApplicationsRepository,
	payments repository.PaymentsRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		applications: applications,
		payments:     payments,
		publisher:    publisher,
		logger:       logger,
	}
}

type PayRequest struct {
	ApplicationID int64
	Amount        string // decimal text
}

func (s *paymentService) List(ctx context.Context, actor *auth.Identity, page search.Page) (*ListResult[PaymentDTO], error) {
	if !policy.Permitted(actor, policy.ListPayments, policy.Resource{}) {
		return nil, denyFor(actor == nil, "")
	}
	items, total, err := s.payments.ListPayments(ctx, policy.Scope(actor), page)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	out := make([]PaymentDTO, 0, len(items))
	for i := range items {
		out = append(out, toPaymentDTO(&items[i]))
	}
	return &ListResult[PaymentDTO]{Items: out, Total: total, Page: page}, nil
}

func (s *paymentService) Get(ctx context.Context, actor *auth.Identity, id int64) (*PaymentDTO, error) {
	if actor == nil {
		return nil, Unauthenticated(msgNotAuthenticated)
	}
	p, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Payment not found.")
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if !policy.Permitted(actor, policy.ViewPayment, policy.ForPayment(p)) {
		return nil, NotFound("Payment not found.")
	}
	dto := toPaymentDTO(p)
	return &dto, nil
}

// Pay checks, in order: amount > 0, requester is the applicant, application approved.
func (s *paymentService) Pay(ctx context.Context, actor *auth.Identity, req PayRequest) (*PaymentDTO, error) {
	if actor == nil {
		return nil, Unauthenticated(msgNotAuthenticated)
	}

	fe := FieldErrors{}
	if req.ApplicationID <= 0 {
		fe.Add("application", "This field is required.")
	}
	amount := parseMoney(fe, "amount", req.Amount, true)
	if err := fe.Err(); err != nil {
		return nil, err
	}

	a, err := s.applications.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Application not found.")
		}
		return nil, fmt.Errorf("pay: %w", err)
	}
	if !policy.Permitted(actor, policy.CreatePayment, policy.ForApplication(a)) {
		s.logger.Warn("Payment rejected: not the applicant",
			zap.Int64("application_id", a.ID),
			zap.Int64("user_id", actor.UserID),
			zap.String("reason", "not_applicant"),
		)
		return nil, Forbidden("You can only pay for your own applications.")
	}
	if a.Status != domain.ApplicationApproved {
		return nil, Validation("Payments can only be made for approved applications.").
			WithField("application", "Payments can only be made for approved applications.")
	}

	p, err := s.payments.CreatePayment(ctx, &domain.Payment{
		ApplicationID: a.ID,
		Amount:        amount,
		Status:        domain.PaymentPending,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("Application not found.")
		}
		return nil, fmt.Errorf("pay: %w", err)
	}

	s.logger.Info("Payment created",
		zap.Int64("payment_id", p.ID),
		zap.Int64("application_id", a.ID),
		zap.String("amount", p.Amount.StringFixed(2)),
	)
	dto := toPaymentDTO(p)
	publish(ctx, s.publisher, s.logger, events.New(events.PaymentCreated, dto))
	return &dto, nil
}
