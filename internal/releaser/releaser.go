package releaser

import (
	"fmt"

	"go.uber.org/zap"

	"production-scheduler-go/internal/equipment"
	"production-scheduler-go/internal/metrics"
)

// Releaser reverses equipment allocations for a cancelled pedido. It is the
// compensating action for order cancellation: it walks every known equipment
// instance, dispatches on the instance's kind, and removes every occupation
// record belonging to the (order, pedido) pair.
type Releaser struct {
	registry *equipment.Registry
	logger   *zap.Logger
}

// New creates a new Releaser over the given equipment registry.
func New(registry *equipment.Registry, logger *zap.Logger) *Releaser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Releaser{
		registry: registry,
		logger:   logger,
	}
}

// ReleaseForPedido removes every occupation of the order/pedido pair across
// all equipment and returns the number of removed records plus a diagnostic
// trail for the operator. It never fails: releasing a pedido with no
// occupations is a successful no-op, so the call is idempotent.
func (r *Releaser) ReleaseForPedido(orderID, pedidoID int) (int, []string) {
	trail := []string{
		fmt.Sprintf("searching occupations for order %d, pedido %d", orderID, pedidoID),
	}
	totalFreed := 0

	for _, eq := range r.registry.All() {
		kind := equipment.ClassifyKind(eq)
		if kind == equipment.KindUnknown {
			// Configuration or extension gap: report it, never skip silently.
			metrics.UnknownEquipmentTotal.Inc()
			r.logger.Error("cannot classify equipment during release",
				zap.String("equipment", eq.Name))
			trail = append(trail, fmt.Sprintf("%s: unrecognized equipment kind, not touched", eq.Name))
			continue
		}

		freed := eq.ReleaseForPedido(orderID, pedidoID)
		if freed == 0 {
			continue
		}

		totalFreed += freed
		metrics.ReleasesTotal.WithLabelValues(kind.String()).Add(float64(freed))
		metrics.ActiveOccupations.Sub(float64(freed))
		trail = append(trail, fmt.Sprintf("%s: released %d occupation(s) %s", eq.Name, freed, storeNoun(kind)))
		r.logger.Info("equipment released for pedido",
			zap.Int("order_id", orderID),
			zap.Int("pedido_id", pedidoID),
			zap.String("equipment", eq.Name),
			zap.String("kind", kind.String()),
			zap.Int("freed", freed))
	}

	if totalFreed == 0 {
		trail = append(trail, "no occupations found for this pedido")
	}

	return totalFreed, trail
}

// storeNoun names the store an occupation was removed from, per kind, for
// the operator-facing trail.
func storeNoun(kind equipment.Kind) string {
	switch kind {
	case equipment.KindMultiBurner:
		return "from burners"
	case equipment.KindFractional:
		return "from fractions"
	case equipment.KindLeveled:
		return "from levels"
	case equipment.KindBoxed:
		return "from boxes"
	case equipment.KindLeveledBoxed:
		return "from levels and boxes"
	default:
		return "from the occupation list"
	}
}
