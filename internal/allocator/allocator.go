package allocator

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"production-scheduler-go/internal/config"
	"production-scheduler-go/internal/equipment"
	"production-scheduler-go/internal/metrics"
)

// Allocator implements backward scheduling over a preference-ordered list of
// candidate equipment: activities are placed as late as possible inside their
// window, stepping toward the window start at a fixed granularity.
type Allocator struct {
	config       *config.Config
	restrictions *RestrictionLog
	logger       *zap.Logger
}

// New creates a new allocator instance.
func New(cfg *config.Config, restrictions *RestrictionLog, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if restrictions == nil {
		restrictions = NewRestrictionLog(logger)
	}
	return &Allocator{
		config:       cfg,
		restrictions: restrictions,
		logger:       logger,
	}
}

// Restrictions returns the restriction log this allocator appends to.
func (a *Allocator) Restrictions() *RestrictionLog {
	return a.restrictions
}

// TryAllocate finds a feasible slot for the request and commits it.
//
// Algorithm:
//  1. Order candidates by FIP descending, then name ascending, so equally
//     weighted equipment is tried in a deterministic order.
//  2. Apply the capacity policy to each candidate once (capacity verdicts do
//     not depend on the candidate time, so rejected equipment is excluded
//     before the window search).
//  3. Starting with the interval that ends exactly at the window end, try
//     each surviving candidate; availability check and commit happen under
//     the equipment's own lock, so concurrent requests cannot double-book.
//  4. No candidate free: step the interval backward by the configured
//     granularity and retry, until the interval no longer fits the window.
func (a *Allocator) TryAllocate(req Request) (*Result, error) {
	if len(req.Candidates) == 0 {
		return nil, fmt.Errorf("allocation request for activity %d has no candidate equipment", req.ActivityID)
	}
	if req.Duration <= 0 {
		return nil, fmt.Errorf("allocation request for activity %d has non-positive duration", req.ActivityID)
	}
	for _, c := range req.Candidates {
		if c.Equipment == nil {
			return nil, fmt.Errorf("allocation request for activity %d has nil candidate equipment", req.ActivityID)
		}
	}

	// 1. Deterministic candidate order
	candidates := make([]Candidate, len(req.Candidates))
	copy(candidates, req.Candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FIP != candidates[j].FIP {
			return candidates[i].FIP > candidates[j].FIP
		}
		return candidates[i].Equipment.Name < candidates[j].Equipment.Name
	})

	// 2. Capacity pre-pass
	type viableCandidate struct {
		eq       *equipment.Equipment
		decision Decision
	}
	var (
		viable       []viableCandidate
		unknownCount int
		anyOverMax   bool
		anyBelowMin  bool
	)
	for _, c := range candidates {
		kind := c.Equipment.Kind()
		if kind == equipment.KindUnknown {
			// Configuration or extension gap: report it, never skip silently.
			unknownCount++
			metrics.UnknownEquipmentTotal.Inc()
			a.logger.Error("cannot classify equipment, excluding from allocation",
				zap.String("equipment", c.Equipment.Name),
				zap.Int("activity_id", req.ActivityID))
			continue
		}

		decision := EvaluateCapacity(req.Quantity, c.Equipment.MinCapacity, c.Equipment.MaxCapacity, a.bypassEnabled(req, kind))
		if decision == DecisionReject {
			if req.Quantity > c.Equipment.MaxCapacity {
				anyOverMax = true
			} else {
				anyBelowMin = true
			}
			continue
		}
		viable = append(viable, viableCandidate{eq: c.Equipment, decision: decision})
	}

	if len(viable) == 0 {
		switch {
		case unknownCount == len(candidates):
			return nil, ErrUnknownEquipmentKind
		case anyBelowMin:
			metrics.AllocationsTotal.WithLabelValues("", "below_minimum").Inc()
			return nil, ErrBelowMinimumRejected
		case anyOverMax:
			metrics.AllocationsTotal.WithLabelValues("", "over_maximum").Inc()
			return nil, ErrCapacityExceeded
		default:
			return nil, ErrAllocationInfeasible
		}
	}

	// 3./4. Backward window search
	for end := req.WindowEnd; !end.Add(-req.Duration).Before(req.WindowStart); end = end.Add(-a.config.SearchStep) {
		start := end.Add(-req.Duration)

		for _, c := range viable {
			records, ok := c.eq.TryOccupy(equipment.Occupation{
				OrderID:    req.OrderID,
				PedidoID:   req.PedidoID,
				ActivityID: req.ActivityID,
				ItemID:     req.ItemID,
				Quantity:   req.Quantity,
				Start:      start,
				End:        end,
			})
			if !ok {
				continue
			}

			restricted := c.decision == DecisionAcceptWithRestriction
			if restricted {
				a.restrictions.Append(RestrictionRecord{
					OrderID:    req.OrderID,
					PedidoID:   req.PedidoID,
					ActivityID: req.ActivityID,
					ItemID:     req.ItemID,
					Equipment:  c.eq.Name,
					Quantity:   req.Quantity,
					Minimum:    c.eq.MinCapacity,
					Start:      start,
					End:        end,
				})
			}

			metrics.AllocationsTotal.WithLabelValues(c.eq.Name, "success").Inc()
			metrics.ActiveOccupations.Add(float64(len(records)))
			a.logger.Info("activity allocated",
				zap.Int("order_id", req.OrderID),
				zap.Int("pedido_id", req.PedidoID),
				zap.Int("activity_id", req.ActivityID),
				zap.String("equipment", c.eq.Name),
				zap.Time("start", start),
				zap.Time("end", end),
				zap.Float64("quantity", req.Quantity),
				zap.Bool("restricted", restricted))

			return &Result{
				Start:      start,
				End:        end,
				Wait:       req.WindowEnd.Sub(end),
				Equipment:  c.eq.Name,
				Restricted: restricted,
				Records:    records,
			}, nil
		}
	}

	metrics.AllocationsTotal.WithLabelValues("", "infeasible").Inc()
	a.logger.Warn("no equipment available within the activity window",
		zap.Int("order_id", req.OrderID),
		zap.Int("activity_id", req.ActivityID),
		zap.Time("window_start", req.WindowStart),
		zap.Time("window_end", req.WindowEnd),
		zap.Duration("duration", req.Duration))
	return nil, ErrAllocationInfeasible
}

// bypassEnabled resolves the below-minimum bypass for one equipment kind:
// the request's explicit set wins, otherwise the process default applies.
func (a *Allocator) bypassEnabled(req Request, kind equipment.Kind) bool {
	if req.Bypass != nil {
		return req.Bypass[kind]
	}
	return a.config.BypassDefault
}

var _ Interface = (*Allocator)(nil)
