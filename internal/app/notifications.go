package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nursix/gims/internal/core/commission"
	"github.com/nursix/gims/internal/metrics"
	"github.com/nursix/gims/internal/ports/secondary"
)

// ErrNoRecipients is returned when a notification has nobody to go to.
var ErrNoRecipients = errors.New("no organisation administrator found")

func sendNotification(ctx context.Context, notifier secondary.Notifier, n secondary.Notification) error {
	if err := notifier.Send(ctx, n); err != nil {
		metrics.NotificationsSent.WithLabelValues(n.Template, "failed").Inc()
		return fmt.Errorf("failed to send %s notification: %w", n.Template, err)
	}
	metrics.NotificationsSent.WithLabelValues(n.Template, "sent").Inc()
	slog.Info("notification sent", "id", n.ID, "template", n.Template, "recipients", len(n.Recipients))
	return nil
}

// findCurrentCommission returns the CURRENT commission of an organisation
// covering day, or nil if there is none.
func findCurrentCommission(ctx context.Context, repo secondary.CommissionRepository, organisationID string, day time.Time) (*secondary.CommissionRecord, error) {
	records, err := repo.List(ctx, secondary.CommissionFilters{
		OrganisationID: organisationID,
		Statuses:       []commission.Status{commission.StatusCurrent},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	periods := make([]commission.Period, len(records))
	for i, r := range records {
		periods[i] = r.Period()
	}
	current, ok := commission.CurrentOf(periods, day)
	if !ok {
		return nil, nil
	}
	for _, r := range records {
		if r.ID == current.ID {
			return r, nil
		}
	}
	return nil, nil
}
