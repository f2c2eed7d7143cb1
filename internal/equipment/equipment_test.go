package equipment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func occ(orderID, pedidoID, activityID int, start, end time.Time) Occupation {
	return Occupation{
		OrderID:    orderID,
		PedidoID:   pedidoID,
		ActivityID: activityID,
		ItemID:     1,
		Quantity:   500,
		Start:      start,
		End:        end,
	}
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name      string
		equipment *Equipment
		want      Kind
	}{
		{
			name:      "simple",
			equipment: NewSimple("Masseira 1", 1000, 50000),
			want:      KindSimple,
		},
		{
			name:      "multi burner",
			equipment: NewMultiBurner("Fogao 1", 500, 8000, 4),
			want:      KindMultiBurner,
		},
		{
			name:      "fractional",
			equipment: NewFractional("Fritadeira 1", 300, 5000, 2),
			want:      KindFractional,
		},
		{
			name:      "leveled",
			equipment: NewLeveled("Forno 1", 100, 20000, 5),
			want:      KindLeveled,
		},
		{
			name:      "boxed",
			equipment: NewBoxed("Freezer 1", 0, 30000, 8),
			want:      KindBoxed,
		},
		{
			name:      "leveled boxed",
			equipment: NewLeveledBoxed("Camara 1", 0, 40000, 4, 6),
			want:      KindLeveledBoxed,
		},
		{
			name:      "no stores at all",
			equipment: &Equipment{Name: "Prototipo"},
			want:      KindUnknown,
		},
		{
			name:      "nil equipment",
			equipment: nil,
			want:      KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyKind(tt.equipment))
		})
	}
}

func TestTryOccupySimple(t *testing.T) {
	eq := NewSimple("Masseira 1", 1000, 50000)

	recs, ok := eq.TryOccupy(occ(1, 1, 10, at(5, 0), at(6, 0)))
	require.True(t, ok)
	require.Len(t, recs, 1)
	assert.Equal(t, PlacementFlat, recs[0].Placement)
	assert.Equal(t, -1, recs[0].SubUnit)
	assert.Equal(t, "Masseira 1", recs[0].Equipment)
	assert.NotEmpty(t, recs[0].ID)

	// Overlapping interval is refused
	_, ok = eq.TryOccupy(occ(1, 1, 11, at(5, 30), at(6, 30)))
	assert.False(t, ok)

	// End is exclusive: back-to-back intervals are legal
	_, ok = eq.TryOccupy(occ(1, 1, 12, at(6, 0), at(7, 0)))
	assert.True(t, ok)

	assert.Equal(t, 2, eq.OccupationCount())
}

func TestTryOccupyMultiBurner(t *testing.T) {
	eq := NewMultiBurner("Fogao 1", 500, 8000, 2)

	recs1, ok := eq.TryOccupy(occ(1, 1, 10, at(8, 0), at(9, 0)))
	require.True(t, ok)
	assert.Equal(t, PlacementBurner, recs1[0].Placement)
	assert.Equal(t, 0, recs1[0].SubUnit)

	recs2, ok := eq.TryOccupy(occ(1, 1, 11, at(8, 0), at(9, 0)))
	require.True(t, ok)
	assert.Equal(t, 1, recs2[0].SubUnit)

	// Both burners busy for this interval
	_, ok = eq.TryOccupy(occ(1, 1, 12, at(8, 30), at(9, 30)))
	assert.False(t, ok)

	// A sub-unit frees up outside the busy interval
	recs3, ok := eq.TryOccupy(occ(1, 1, 13, at(9, 0), at(10, 0)))
	require.True(t, ok)
	assert.Equal(t, 0, recs3[0].SubUnit)
}

func TestTryOccupyLeveledBoxed(t *testing.T) {
	eq := NewLeveledBoxed("Camara 1", 0, 40000, 2, 1)

	recs, ok := eq.TryOccupy(occ(1, 1, 10, at(14, 0), at(16, 0)))
	require.True(t, ok)
	require.Len(t, recs, 2)
	assert.Equal(t, PlacementLevel, recs[0].Placement)
	assert.Equal(t, PlacementBox, recs[1].Placement)

	// The single box is busy: a free level alone must not be committed
	_, ok = eq.TryOccupy(occ(1, 1, 11, at(14, 0), at(16, 0)))
	assert.False(t, ok)
	assert.Equal(t, 2, eq.OccupationCount())
}

func TestReleaseForPedido(t *testing.T) {
	eq := NewMultiBurner("Fogao 1", 500, 8000, 3)

	_, ok := eq.TryOccupy(occ(1, 7, 10, at(8, 0), at(9, 0)))
	require.True(t, ok)
	_, ok = eq.TryOccupy(occ(1, 7, 11, at(8, 0), at(9, 0)))
	require.True(t, ok)
	_, ok = eq.TryOccupy(occ(2, 3, 12, at(8, 0), at(9, 0)))
	require.True(t, ok)

	require.True(t, eq.HasPedido(1, 7))

	freed := eq.ReleaseForPedido(1, 7)
	assert.Equal(t, 2, freed)
	assert.False(t, eq.HasPedido(1, 7))
	assert.True(t, eq.HasPedido(2, 3))

	// Second release of the same pedido removes nothing
	assert.Equal(t, 0, eq.ReleaseForPedido(1, 7))

	// The freed burner is immediately available again
	_, ok = eq.TryOccupy(occ(3, 1, 13, at(8, 0), at(9, 0)))
	assert.True(t, ok)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	mixer := NewSimple("Masseira 1", 1000, 50000)
	oven := NewLeveled("Forno 1", 100, 20000, 5)

	require.NoError(t, reg.Add(mixer))
	require.NoError(t, reg.Add(oven))

	// Duplicate names are refused
	err := reg.Add(NewSimple("Masseira 1", 1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	require.Error(t, reg.Add(nil))

	assert.Equal(t, 2, reg.Len())
	all := reg.All()
	require.Len(t, all, 2)
	assert.Same(t, mixer, all[0])
	assert.Same(t, oven, all[1])

	got, ok := reg.Get("Forno 1")
	require.True(t, ok)
	assert.Same(t, oven, got)

	_, ok = reg.Get("Fogao 1")
	assert.False(t, ok)
}
