package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/segyhp/installment-engine/internal/domain"
	"github.com/segyhp/installment-engine/internal/lock"
	"github.com/segyhp/installment-engine/internal/metrics"
	"github.com/segyhp/installment-engine/internal/status"
	customError "github.com/segyhp/installment-engine/pkg/errors"
)

// Sweep reclassifies every open installment and persists the changes. Each
// write is conditional on the status the sweep read, so a payment recorded
// meanwhile wins and is counted as a conflict. Running Sweep twice at the
// same time changes nothing the second time.
func (s *InstallmentService) Sweep(ctx context.Context) (*domain.SweepResult, error) {
	timer := prometheus.NewTimer(metrics.SweepDuration)
	defer timer.ObserveDuration()

	items, err := s.store.Installments().ListByStatus(ctx, domain.InstallmentPending, domain.InstallmentOverdue)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	byID := make(map[uuid.UUID]*domain.Installment, len(items))
	for _, inst := range items {
		byID[inst.ID] = inst
	}

	now := s.now()
	res := s.engine.Evaluate(now, items)

	result := &domain.SweepResult{
		Evaluated: len(items),
		Anomalies: len(res.Anomalies),
	}
	metrics.StatusAnomalies.Add(float64(len(res.Anomalies)))

	var order []uuid.UUID
	byPolicy := make(map[uuid.UUID][]status.Change)
	for _, ch := range res.Changes {
		if _, ok := byPolicy[ch.PolicyID]; !ok {
			order = append(order, ch.PolicyID)
		}
		byPolicy[ch.PolicyID] = append(byPolicy[ch.PolicyID], ch)
	}

	for _, policyID := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		s.applyChanges(ctx, policyID, byPolicy[policyID], byID, result)
	}

	s.log.Infow("Status sweep finished",
		"evaluated", result.Evaluated,
		"changed", result.Changed,
		"conflicts", result.Conflicts,
		"anomalies", result.Anomalies,
	)

	return result, nil
}

func (s *InstallmentService) applyChanges(
	ctx context.Context,
	policyID uuid.UUID,
	changes []status.Change,
	byID map[uuid.UUID]*domain.Installment,
	result *domain.SweepResult,
) {
	key := lock.PolicyKey(policyID)
	release, err := s.locker.Lock(ctx, key)
	if err != nil {
		s.log.Warnw("Skipping policy in sweep", "policy_id", policyID, "error", err)
		result.Conflicts += len(changes)
		return
	}
	defer release()

	for _, ch := range changes {
		inst := byID[ch.InstallmentID]
		inst.UpdatedAt = s.now()

		ok, err := s.store.Installments().Transition(ctx, inst, ch.From)
		if err != nil {
			s.log.Errorw("Failed to persist status change",
				"installment_id", ch.InstallmentID,
				"from", ch.From,
				"to", ch.To,
				"error", err,
			)
			result.Conflicts++
			continue
		}
		if !ok {
			result.Conflicts++
			continue
		}

		result.Changed++
		metrics.StatusTransitions.WithLabelValues(string(ch.From), string(ch.To)).Inc()
	}
}
