package equipment

// Kind identifies the occupation model an equipment instance uses.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindSimple       Kind = "simple"
	KindMultiBurner  Kind = "multi_burner"
	KindFractional   Kind = "fractional"
	KindLeveled      Kind = "leveled"
	KindLeveledBoxed Kind = "leveled_boxed"
	KindBoxed        Kind = "boxed"
)

func (k Kind) String() string {
	return string(k)
}

// Placement identifies which store inside an equipment instance holds an
// occupation record, so a burner index can never be read as a level index.
type Placement string

const (
	PlacementFlat     Placement = "flat"
	PlacementBurner   Placement = "burner"
	PlacementFraction Placement = "fraction"
	PlacementLevel    Placement = "level"
	PlacementBox      Placement = "box"
)

// ClassifyKind returns the kind of an equipment instance based on which
// occupation stores it exposes. The precedence order matters: leveled-boxed
// equipment has both a level store and a box store, so the combined check
// must run before the box-only and level-only checks.
func ClassifyKind(e *Equipment) Kind {
	switch {
	case e == nil:
		return KindUnknown
	case e.burners != nil:
		return KindMultiBurner
	case e.fractions != nil:
		return KindFractional
	case e.levels != nil && e.boxes != nil:
		return KindLeveledBoxed
	case e.boxes != nil:
		return KindBoxed
	case e.levels != nil:
		return KindLeveled
	case e.flat != nil:
		return KindSimple
	default:
		return KindUnknown
	}
}
