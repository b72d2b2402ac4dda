package dagmc

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts model mutations. A Model built without WithMetrics
// keeps unregistered counters.
type Metrics struct {
	IDsAssigned *prometheus.CounterVec
	TagRepairs  *prometheus.CounterVec
	GroupMerges prometheus.Counter
	SetsDeleted *prometheus.CounterVec
	SetsCreated *prometheus.CounterVec
}

// NewMetrics builds the counters and registers them with reg when it is
// non-nil. Counters already registered by another Model are shared.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IDsAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dagnav_ids_assigned_total",
			Help: "IDs assigned to entity sets, by kind.",
		}, []string{"kind"}),
		TagRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dagnav_tag_repairs_total",
			Help: "Missing category or geom_dimension tags filled in from the other.",
		}, []string{"kind", "tag"}),
		GroupMerges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagnav_group_merges_total",
			Help: "Duplicate named groups merged.",
		}),
		SetsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dagnav_sets_deleted_total",
			Help: "Entity sets deleted, by kind.",
		}, []string{"kind"}),
		SetsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dagnav_entity_sets_created_total",
			Help: "Entity sets created, by kind.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m
	}
	m.IDsAssigned = register(reg, m.IDsAssigned)
	m.TagRepairs = register(reg, m.TagRepairs)
	m.GroupMerges = register(reg, m.GroupMerges)
	m.SetsDeleted = register(reg, m.SetsDeleted)
	m.SetsCreated = register(reg, m.SetsCreated)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
