package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agrokb"

// registry is one process's Prometheus registry. Series registered through
// labeled carry the process's service label.
type registry struct {
	reg       *prometheus.Registry
	labeled   prometheus.Registerer
	knowledge *KnowledgeMetrics
}

func newRegistry(service string) registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry{
		reg:       reg,
		labeled:   withService(service, reg),
		knowledge: NewKnowledgeMetrics(service, reg),
	}
}

func withService(service string, reg prometheus.Registerer) prometheus.Registerer {
	return prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, reg)
}

func (r registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Knowledge returns the ingestion and retrieval observer bound to this registry.
func (r registry) Knowledge() *KnowledgeMetrics {
	return r.knowledge
}
