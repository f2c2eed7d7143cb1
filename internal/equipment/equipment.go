package equipment

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Equipment is one physical equipment instance (a mixer, an oven, a stove, a
// refrigerated chamber, ...). It is created once at process start and lives
// for the process lifetime; occupations are added by the allocator and
// removed by the release subsystem. All occupation state is guarded by a
// single mutex per instance, and availability checks commit under the same
// lock so two concurrent requests can never both see a sub-unit free.
//
// Exactly one set of stores is non-nil, depending on the constructor used;
// ClassifyKind derives the kind from which stores are present.
type Equipment struct {
	Name string

	// Capacity limits in grams. For multi-burner and fractional equipment
	// the limits apply per sub-unit, otherwise to the whole instance.
	MinCapacity float64
	MaxCapacity float64

	mu        sync.Mutex
	flat      []Occupation
	burners   [][]Occupation
	fractions [][]Occupation
	levels    [][]Occupation
	boxes     [][]Occupation
}

// NewSimple creates equipment with a single flat occupation list: one
// activity at a time (mixers, kneaders, bread shapers).
func NewSimple(name string, minCapacity, maxCapacity float64) *Equipment {
	return &Equipment{
		Name:        name,
		MinCapacity: minCapacity,
		MaxCapacity: maxCapacity,
		flat:        []Occupation{},
	}
}

// NewMultiBurner creates a stove with the given number of burners. Capacity
// limits apply per burner.
func NewMultiBurner(name string, minPerBurner, maxPerBurner float64, burners int) *Equipment {
	return &Equipment{
		Name:        name,
		MinCapacity: minPerBurner,
		MaxCapacity: maxPerBurner,
		burners:     make([][]Occupation, burners),
	}
}

// NewFractional creates equipment divided into independently occupiable
// fractions (fryer baskets, worktable sections). Capacity limits apply per
// fraction.
func NewFractional(name string, minPerFraction, maxPerFraction float64, fractions int) *Equipment {
	return &Equipment{
		Name:        name,
		MinCapacity: minPerFraction,
		MaxCapacity: maxPerFraction,
		fractions:   make([][]Occupation, fractions),
	}
}

// NewLeveled creates equipment with stacked levels (ovens, fermentation
// cabinets).
func NewLeveled(name string, minCapacity, maxCapacity float64, levels int) *Equipment {
	return &Equipment{
		Name:        name,
		MinCapacity: minCapacity,
		MaxCapacity: maxCapacity,
		levels:      make([][]Occupation, levels),
	}
}

// NewBoxed creates equipment whose occupations are tracked per box
// (freezers).
func NewBoxed(name string, minCapacity, maxCapacity float64, boxes int) *Equipment {
	return &Equipment{
		Name:        name,
		MinCapacity: minCapacity,
		MaxCapacity: maxCapacity,
		boxes:       make([][]Occupation, boxes),
	}
}

// NewLeveledBoxed creates equipment that occupies both a level and a box for
// each allocation (refrigerated chambers).
func NewLeveledBoxed(name string, minCapacity, maxCapacity float64, levels, boxes int) *Equipment {
	return &Equipment{
		Name:        name,
		MinCapacity: minCapacity,
		MaxCapacity: maxCapacity,
		levels:      make([][]Occupation, levels),
		boxes:       make([][]Occupation, boxes),
	}
}

// Kind classifies this instance from its capability set.
func (e *Equipment) Kind() Kind {
	return ClassifyKind(e)
}

// TryOccupy atomically checks availability for o's interval and, if a
// sub-unit (or level+box pair) is free, commits the occupation. It returns
// the committed records (two for leveled-boxed equipment, one otherwise)
// and false without side effects when nothing is free for the whole interval.
//
// The caller fills the identity fields and the interval; Equipment, Placement
// and SubUnit are assigned here, as is a fresh ID when none is set.
func (e *Equipment) TryOccupy(o Occupation) ([]Occupation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o.Equipment = e.Name

	switch ClassifyKind(e) {
	case KindSimple:
		for _, rec := range e.flat {
			if overlaps(rec.Start, rec.End, o.Start, o.End) {
				return nil, false
			}
		}
		rec := stamp(o, PlacementFlat, -1)
		e.flat = append(e.flat, rec)
		return []Occupation{rec}, true

	case KindMultiBurner:
		return e.occupySubUnit(&e.burners, PlacementBurner, o)

	case KindFractional:
		return e.occupySubUnit(&e.fractions, PlacementFraction, o)

	case KindLeveled:
		return e.occupySubUnit(&e.levels, PlacementLevel, o)

	case KindBoxed:
		return e.occupySubUnit(&e.boxes, PlacementBox, o)

	case KindLeveledBoxed:
		level := firstFree(e.levels, o.Start, o.End)
		box := firstFree(e.boxes, o.Start, o.End)
		if level < 0 || box < 0 {
			return nil, false
		}
		// Both sub-units are reserved together or not at all.
		levelRec := stamp(o, PlacementLevel, level)
		boxRec := stamp(o, PlacementBox, box)
		e.levels[level] = append(e.levels[level], levelRec)
		e.boxes[box] = append(e.boxes[box], boxRec)
		return []Occupation{levelRec, boxRec}, true

	default:
		return nil, false
	}
}

// occupySubUnit commits o on the lowest-index free sub-unit of a store.
// Caller must hold e.mu.
func (e *Equipment) occupySubUnit(store *[][]Occupation, placement Placement, o Occupation) ([]Occupation, bool) {
	idx := firstFree(*store, o.Start, o.End)
	if idx < 0 {
		return nil, false
	}
	rec := stamp(o, placement, idx)
	(*store)[idx] = append((*store)[idx], rec)
	return []Occupation{rec}, true
}

// firstFree returns the lowest sub-unit index fully free for [start, end),
// or -1 when none is.
func firstFree(store [][]Occupation, start, end time.Time) int {
	for i, recs := range store {
		free := true
		for _, rec := range recs {
			if overlaps(rec.Start, rec.End, start, end) {
				free = false
				break
			}
		}
		if free {
			return i
		}
	}
	return -1
}

func stamp(o Occupation, placement Placement, subUnit int) Occupation {
	o.Placement = placement
	o.SubUnit = subUnit
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return o
}

// ReleaseForPedido removes every occupation belonging to the order/pedido
// pair, across all stores, and returns how many records were removed.
func (e *Equipment) ReleaseForPedido(orderID, pedidoID int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	e.flat, removed = removeMatching(e.flat, orderID, pedidoID, removed)
	for i := range e.burners {
		e.burners[i], removed = removeMatching(e.burners[i], orderID, pedidoID, removed)
	}
	for i := range e.fractions {
		e.fractions[i], removed = removeMatching(e.fractions[i], orderID, pedidoID, removed)
	}
	for i := range e.levels {
		e.levels[i], removed = removeMatching(e.levels[i], orderID, pedidoID, removed)
	}
	for i := range e.boxes {
		e.boxes[i], removed = removeMatching(e.boxes[i], orderID, pedidoID, removed)
	}
	return removed
}

func removeMatching(recs []Occupation, orderID, pedidoID, removed int) ([]Occupation, int) {
	kept := recs[:0]
	for _, rec := range recs {
		if rec.Matches(orderID, pedidoID) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, removed
}

// HasPedido reports whether any occupation belongs to the order/pedido pair.
func (e *Equipment) HasPedido(orderID, pedidoID int) bool {
	for _, rec := range e.Snapshot() {
		if rec.Matches(orderID, pedidoID) {
			return true
		}
	}
	return false
}

// OccupationCount returns the number of committed records across all stores.
func (e *Equipment) OccupationCount() int {
	return len(e.Snapshot())
}

// Snapshot returns a copy of every committed occupation, for reporting and
// tests. The order is stable: flat first, then sub-unit stores in index
// order.
func (e *Equipment) Snapshot() []Occupation {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Occupation, 0, len(e.flat))
	out = append(out, e.flat...)
	for _, store := range [][][]Occupation{e.burners, e.fractions, e.levels, e.boxes} {
		for _, recs := range store {
			out = append(out, recs...)
		}
	}
	return out
}
