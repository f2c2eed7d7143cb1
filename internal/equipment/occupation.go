package equipment

import "time"

// Occupation is one committed time-bounded allocation on an equipment
// sub-unit. Records are immutable once committed; they are removed as a whole
// by the release subsystem. Interval semantics are [Start, End): End is
// exclusive, so back-to-back occupations on one sub-unit are legal.
type Occupation struct {
	ID         string
	OrderID    int
	PedidoID   int
	ActivityID int
	ItemID     int
	Quantity   float64
	Start      time.Time
	End        time.Time

	// Locator, filled in on commit.
	Equipment string
	Placement Placement
	SubUnit   int // burner/fraction/level/box index, -1 for flat
}

// Matches reports whether the record belongs to the given order/pedido pair.
func (o Occupation) Matches(orderID, pedidoID int) bool {
	return o.OrderID == orderID && o.PedidoID == pedidoID
}

// overlaps reports whether two [start, end) intervals intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
