package allocator

import (
	"errors"
	"time"

	"production-scheduler-go/internal/equipment"
)

// Allocation errors. All of them mark expected, recoverable infeasibility;
// only malformed requests produce untyped errors.
var (
	ErrAllocationInfeasible = errors.New("no feasible slot within the activity window")
	ErrCapacityExceeded     = errors.New("quantity exceeds equipment maximum capacity")
	ErrBelowMinimumRejected = errors.New("quantity below equipment minimum capacity and bypass disabled")
	ErrUnknownEquipmentKind = errors.New("equipment kind not recognized")
)

// Candidate is one eligible equipment instance with its preference weight.
// Higher FIP means more preferred.
type Candidate struct {
	Equipment *equipment.Equipment
	FIP       int
}

// Request is one allocation attempt for one activity. The caller decides the
// attempt order across activities; the allocator decides whether and how this
// activity can occupy real equipment inside [WindowStart, WindowEnd].
type Request struct {
	OrderID    int
	PedidoID   int
	ActivityID int
	ItemID     int
	Quantity   float64
	Duration   time.Duration

	WindowStart time.Time
	WindowEnd   time.Time

	Candidates []Candidate

	// Bypass enables accept-with-restriction for the listed kinds when the
	// quantity is below the equipment minimum. When nil, the configured
	// process default applies to every kind.
	Bypass map[equipment.Kind]bool
}

// Result is a successful allocation: the chosen interval, the equipment used
// and the committed records (two for leveled-boxed equipment, one otherwise).
type Result struct {
	Start     time.Time
	End       time.Time
	Wait      time.Duration // slack between End and the window end
	Equipment string
	// Restricted is true when the allocation was accepted below the
	// equipment minimum and a restriction record was produced.
	Restricted bool
	Records    []equipment.Occupation
}

// Interface defines the interface for activity allocation.
type Interface interface {
	// TryAllocate searches backward from the window end for a feasible slot
	// and commits the occupation on success. No state is left behind on
	// failure.
	TryAllocate(req Request) (*Result, error)
}
