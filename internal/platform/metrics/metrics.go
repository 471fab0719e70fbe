package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ballotRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awards_ballot_requests_total",
		Help: "Total de cedulas recebidas por status",
	}, []string{"status"})

	ballotEventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awards_ballot_events_processed_total",
		Help: "Total de eventos de cedula aplicados pelo worker",
	}, []string{"type"})

	ballotProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "awards_ballot_processing_duration_seconds",
		Help:    "Tempo para aplicar um evento de cedula nos contadores",
		Buckets: prometheus.DefBuckets,
	})

	predictionQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "awards_prediction_query_duration_seconds",
		Help:    "Tempo para calcular as previsoes por categoria",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveBallotRequest(status string) {
	ballotRequestsTotal.WithLabelValues(status).Inc()
}

func IncBallotEventProcessed(eventType string) {
	ballotEventsProcessedTotal.WithLabelValues(eventType).Inc()
}

func ObserveProcessingDuration(seconds float64) {
	ballotProcessingDuration.Observe(seconds)
}

func ObservePredictionDuration(seconds float64) {
	predictionQueryDuration.Observe(seconds)
}
