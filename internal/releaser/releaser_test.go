package releaser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"production-scheduler-go/internal/equipment"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func mustOccupy(t *testing.T, eq *equipment.Equipment, orderID, pedidoID, activityID int, start, end time.Time) {
	t.Helper()
	_, ok := eq.TryOccupy(equipment.Occupation{
		OrderID:    orderID,
		PedidoID:   pedidoID,
		ActivityID: activityID,
		ItemID:     1,
		Quantity:   1500,
		Start:      start,
		End:        end,
	})
	require.True(t, ok)
}

func TestReleaseForPedidoAcrossKinds(t *testing.T) {
	chamber := equipment.NewLeveledBoxed("Camara Fria 1", 0, 40000, 4, 6)
	stove := equipment.NewMultiBurner("Fogao 1", 100, 8000, 4)
	oven := equipment.NewLeveled("Forno 1", 100, 20000, 5)

	reg := equipment.NewRegistry()
	require.NoError(t, reg.Add(chamber))
	require.NoError(t, reg.Add(stove))
	require.NoError(t, reg.Add(oven))

	// Pedido (1, 7) spread across three kinds: the chamber commits a level
	// and a box record per allocation, for four records in total.
	mustOccupy(t, chamber, 1, 7, 10, at(14, 0), at(18, 0))
	mustOccupy(t, stove, 1, 7, 11, at(8, 0), at(9, 0))
	mustOccupy(t, oven, 1, 7, 12, at(9, 0), at(10, 0))
	// An unrelated pedido that must survive the release.
	mustOccupy(t, stove, 2, 3, 20, at(8, 0), at(9, 0))

	r := New(reg, nil)

	freed, trail := r.ReleaseForPedido(1, 7)
	assert.Equal(t, 4, freed)

	trailText := strings.Join(trail, "\n")
	assert.Contains(t, trailText, "Camara Fria 1: released 2 occupation(s) from levels and boxes")
	assert.Contains(t, trailText, "Fogao 1: released 1 occupation(s) from burners")
	assert.Contains(t, trailText, "Forno 1: released 1 occupation(s) from levels")

	// Release completeness: nothing anywhere still references (1, 7).
	for _, eq := range reg.All() {
		assert.False(t, eq.HasPedido(1, 7), "equipment %s still holds pedido records", eq.Name)
	}
	assert.True(t, stove.HasPedido(2, 3))
}

func TestReleaseIsIdempotent(t *testing.T) {
	mixer := equipment.NewSimple("Masseira 1", 1000, 50000)
	reg := equipment.NewRegistry()
	require.NoError(t, reg.Add(mixer))
	mustOccupy(t, mixer, 1, 7, 10, at(5, 0), at(6, 0))

	r := New(reg, nil)

	freed, _ := r.ReleaseForPedido(1, 7)
	assert.Equal(t, 1, freed)

	freed, trail := r.ReleaseForPedido(1, 7)
	assert.Equal(t, 0, freed)
	assert.Contains(t, strings.Join(trail, "\n"), "no occupations found")
}

func TestReleaseWithNothingAllocated(t *testing.T) {
	reg := equipment.NewRegistry()
	require.NoError(t, reg.Add(equipment.NewSimple("Masseira 1", 1000, 50000)))

	r := New(reg, nil)

	freed, trail := r.ReleaseForPedido(42, 42)
	assert.Equal(t, 0, freed)
	require.NotEmpty(t, trail)
	assert.Contains(t, strings.Join(trail, "\n"), "no occupations found")
}

func TestUnknownKindIsReportedNotSkippedSilently(t *testing.T) {
	reg := equipment.NewRegistry()
	mixer := equipment.NewSimple("Masseira 1", 1000, 50000)
	require.NoError(t, reg.Add(mixer))
	require.NoError(t, reg.Add(&equipment.Equipment{Name: "Prototipo"}))
	mustOccupy(t, mixer, 1, 7, 10, at(5, 0), at(6, 0))

	r := New(reg, nil)

	freed, trail := r.ReleaseForPedido(1, 7)
	assert.Equal(t, 1, freed)
	assert.Contains(t, strings.Join(trail, "\n"), "Prototipo: unrecognized equipment kind")
}
