package service

import (
	"context"

	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"
	"olimpiada_backend/internal/domain/repository"
)

// CashierService serves the payment desk: reviewed enrollments waiting
// for payment, already paid ones, and collection totals.
type CashierService struct {
	enrollmentRepo repository.EnrollmentRepository
}

func NewCashierService(enrollmentRepo repository.EnrollmentRepository) *CashierService {
	return &CashierService{enrollmentRepo: enrollmentRepo}
}

// Aprobados lists reviewed enrollments whose payment is still pending.
func (s *CashierService) Aprobados(ctx context.Context) ([]model.CompetitorRow, error) {
	return s.enrollmentRepo.ListByPaymentStatus(ctx, model.PagoPendiente)
}

// Habilitados lists reviewed enrollments already paid.
func (s *CashierService) Habilitados(ctx context.Context) ([]model.CompetitorRow, error) {
	return s.enrollmentRepo.ListByPaymentStatus(ctx, model.PagoPagado)
}

func (s *CashierService) Stats(ctx context.Context) (*model.PaymentStats, error) {
	return s.enrollmentRepo.PaymentStats(ctx)
}

// MarkPaid settles every pending payment of an enrollment.
func (s *CashierService) MarkPaid(ctx context.Context, enrollmentID string) error {
	affected, err := s.enrollmentRepo.MarkPaymentsPaid(ctx, enrollmentID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.Errorf("no pago found for inscripcion %q: %w", enrollmentID, common.ErrNotFound)
	}
	return nil
}
