package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics, exported for use by the allocator, consolidation cache
// and releaser. The host application decides how to expose the registry.
var (
	AllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_allocations_total",
			Help: "Total allocation attempts by equipment and status",
		},
		[]string{"equipment", "status"},
	)

	ActiveOccupations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_active_occupations",
			Help: "Current number of committed occupation records",
		},
	)

	RestrictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_capacity_restrictions_total",
			Help: "Total below-minimum allocations accepted with restriction, by equipment",
		},
		[]string{"equipment"},
	)

	ReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_releases_total",
			Help: "Total occupation records released, by equipment kind",
		},
		[]string{"kind"},
	)

	ConsolidationGroupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_consolidation_groups_total",
			Help: "Total consolidation groups by outcome (done, failed, abandoned)",
		},
		[]string{"outcome"},
	)

	ConsolidationMergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_consolidation_merges_total",
			Help: "Total requests merged into an existing consolidation group",
		},
	)

	UnknownEquipmentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_unknown_equipment_total",
			Help: "Total times an equipment instance could not be classified",
		},
	)
)
