package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderDetector detects duplicate orders by patient, medication, and date.
type OrderDetector struct {
	orders OrderLookup
	now    func() time.Time
}

func NewOrderDetector(orders OrderLookup) *OrderDetector {
	return &OrderDetector{orders: orders, now: time.Now}
}

// WithClock overrides the detector's clock. Tests use this to pin the
// same-day window.
func (d *OrderDetector) WithClock(now func() time.Time) *OrderDetector {
	d.now = now
	return d
}

// Check applies the order rules:
//   - same patient + medication today (UTC calendar day) → hard block
//   - same patient + medication on an earlier day → confirmable warning,
//     downgraded to informational when confirm is already set
//
// patientID is nil while the patient is not yet persisted; no duplicate
// check is possible before the patient exists.
func (d *OrderDetector) Check(ctx context.Context, patientID *uuid.UUID, medicationName string, confirm bool) (*CheckResult, error) {
	if patientID == nil {
		return &CheckResult{}, nil
	}

	existing, err := d.orders.LatestByPatientMedication(ctx, *patientID, strings.TrimSpace(medicationName))
	if err != nil {
		return nil, fmt.Errorf("order duplicate check failed: %w", err)
	}
	if existing == nil {
		return &CheckResult{}, nil
	}

	today := d.now().UTC().Truncate(24 * time.Hour)
	orderDay := existing.CreatedAt.UTC().Truncate(24 * time.Hour)

	if orderDay.Equal(today) {
		// Same-day resubmission for the same drug is always an error, not a
		// judgment call.
		return &CheckResult{
			IsDuplicate:    true,
			ShouldBlock:    true,
			ExistingRecord: existing,
			Warnings: []Warning{{
				Code: CodeOrderDuplicateSameDay,
				Message: "An order for the same patient and medication was already created today. " +
					"Cannot create duplicate order on the same day.",
				ActionRequired: true,
				Data: map[string]any{
					"existing_order_id":     existing.ID.String(),
					"existing_order_date":   existing.CreatedAt.UTC().Format(time.RFC3339),
					"existing_order_status": existing.Status,
				},
			}},
		}, nil
	}

	if confirm {
		return &CheckResult{
			IsPotentialDuplicate: true,
			Warnings: []Warning{{
				Code:    CodeOrderDuplicateConfirmed,
				Message: "Caller confirmed this order is not a duplicate.",
			}},
		}, nil
	}

	daysAgo := int(today.Sub(orderDay).Hours() / 24)
	return &CheckResult{
		IsPotentialDuplicate: true,
		ExistingRecord:       existing,
		Warnings: []Warning{{
			Code: CodeOrderPossibleDuplicate,
			Message: fmt.Sprintf(
				"A similar order was created %d day(s) ago for the same patient and medication. Please confirm this is not a duplicate.",
				daysAgo,
			),
			ActionRequired: true,
			Data: map[string]any{
				"existing_order_id":     existing.ID.String(),
				"existing_order_date":   existing.CreatedAt.UTC().Format(time.RFC3339),
				"existing_order_status": existing.Status,
			},
		}},
	}, nil
}
