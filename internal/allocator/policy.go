package allocator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"production-scheduler-go/internal/metrics"
)

// Decision is the capacity policy's verdict for one quantity against one
// equipment's limits.
type Decision string

const (
	DecisionAccept                Decision = "accept"
	DecisionAcceptWithRestriction Decision = "accept_with_restriction"
	DecisionReject                Decision = "reject"
)

// EvaluateCapacity applies the capacity policy:
//
//   - above the maximum: always reject; the maximum is a physical ceiling
//     and is never bypassable;
//   - below the minimum: reject, unless bypass is enabled for this request,
//     in which case the allocation is accepted and a restriction record must
//     be produced;
//   - otherwise: accept.
func EvaluateCapacity(quantity, equipmentMin, equipmentMax float64, bypassEnabled bool) Decision {
	if quantity > equipmentMax {
		return DecisionReject
	}
	if quantity < equipmentMin {
		if bypassEnabled {
			return DecisionAcceptWithRestriction
		}
		return DecisionReject
	}
	return DecisionAccept
}

// RestrictionRecord is the persisted fact that an allocation was accepted
// below the equipment minimum. Records are never mutated; the reporting layer
// reads them through RestrictionLog.Records.
type RestrictionRecord struct {
	OrderID    int
	PedidoID   int
	ActivityID int
	ItemID     int
	Equipment  string
	Quantity   float64
	Minimum    float64
	Deficit    float64
	Start      time.Time
	End        time.Time
	RecordedAt time.Time
}

// RestrictionLog collects restriction records for the process lifetime.
// Safe for concurrent use.
type RestrictionLog struct {
	logger *zap.Logger

	mu      sync.Mutex
	records []RestrictionRecord
}

// NewRestrictionLog creates an empty restriction log.
func NewRestrictionLog(logger *zap.Logger) *RestrictionLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestrictionLog{logger: logger}
}

// Append records one below-minimum allocation.
func (l *RestrictionLog) Append(rec RestrictionRecord) {
	rec.Deficit = rec.Minimum - rec.Quantity
	rec.RecordedAt = time.Now()

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	metrics.RestrictionsTotal.WithLabelValues(rec.Equipment).Inc()
	l.logger.Warn("allocation accepted below equipment minimum",
		zap.Int("order_id", rec.OrderID),
		zap.Int("pedido_id", rec.PedidoID),
		zap.Int("activity_id", rec.ActivityID),
		zap.String("equipment", rec.Equipment),
		zap.Float64("quantity", rec.Quantity),
		zap.Float64("minimum", rec.Minimum),
		zap.Float64("deficit", rec.Deficit))
}

// Records returns a copy of every recorded restriction.
func (l *RestrictionLog) Records() []RestrictionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]RestrictionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of recorded restrictions.
func (l *RestrictionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
