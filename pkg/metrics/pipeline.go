package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks supply-chain stage movement.
type PipelineMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	journeys    *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stage_transitions_total",
		Help: "Completed product stage transitions.",
	}, []string{"from_stage", "to_stage"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stage_rejections_total",
		Help: "Stage transitions rejected by guards or lost races.",
	}, []string{"operation", "reason"})
	journeys := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_journey_lookups_total",
		Help: "Journey reconstructions served, by lookup kind.",
	}, []string{"lookup"})
	reg.MustRegister(transitions, rejections, journeys)
	return &PipelineMetrics{
		transitions: transitions,
		rejections:  rejections,
		journeys:    journeys,
	}
}

// IncTransition records a committed stage transition.
func (p *PipelineMetrics) IncTransition(fromStage, toStage string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(fromStage), normalizeLabel(toStage)).Inc()
}

// IncRejection records a refused transition.
func (p *PipelineMetrics) IncRejection(operation, reason string) {
	if p == nil || p.rejections == nil {
		return
	}
	p.rejections.WithLabelValues(normalizeLabel(operation), normalizeLabel(reason)).Inc()
}

// IncJourneyLookup records a served journey reconstruction.
func (p *PipelineMetrics) IncJourneyLookup(lookup string) {
	if p == nil || p.journeys == nil {
		return
	}
	p.journeys.WithLabelValues(normalizeLabel(lookup)).Inc()
}
