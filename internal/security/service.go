package security

import (
	"context"
	"errors"
	"time"

	"callcenter-platform/pkg/logger"

	"github.com/google/uuid"
)

// AlertRepository is the persistence contract for security alerts.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type AlertRepository interface {
	Append(ctx context.Context, a Alert) error
	List(ctx context.Context, tenantID string, limit int) ([]Alert, error)
}

// AlertService records rejected/suspicious webhook attempts for audit.
// High-severity alerts are additionally escalated to the error log so they
// surface in alerting pipelines.
type AlertService struct {
	repo  AlertRepository
	clock func() time.Time
}

func NewAlertService(repo AlertRepository) *AlertService {
	return &AlertService{repo: repo, clock: time.Now}
}

var ErrInvalidAlert = errors.New("security: invalid alert")

func (s *AlertService) Record(ctx context.Context, a Alert) error {
	if s.repo == nil {
		return errors.New("security: alert repository not configured")
	}
	if a.Type == "" || a.Endpoint == "" {
		return ErrInvalidAlert
	}
	if a.Severity == "" {
		a.Severity = SeverityLow
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.clock().UTC()
	}

	if a.Severity == SeverityHigh {
		logger.From(ctx).Error("security alert",
			"alert_type", string(a.Type),
			"endpoint", a.Endpoint,
			"source", a.Source,
		)
	}
	return s.repo.Append(ctx, a)
}

func (s *AlertService) List(ctx context.Context, tenantID string, limit int) ([]Alert, error) {
	if s.repo == nil {
		return nil, errors.New("security: alert repository not configured")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, tenantID, limit)
}
