// Package metrics exposes idea and vote activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ideasSubmitted prometheus.Counter
	votesCast      prometheus.Counter
	votesRemoved   prometheus.Counter
	votesRejected  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ideasSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ideabox",
			Name:      "ideas_submitted_total",
			Help:      "Ideas submitted.",
		}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ideabox",
			Name:      "votes_cast_total",
			Help:      "Votes recorded.",
		}),
		votesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ideabox",
			Name:      "votes_removed_total",
			Help:      "Votes withdrawn.",
		}),
		votesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ideabox",
			Name:      "votes_rejected_total",
			Help:      "Vote and unvote attempts that failed, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.ideasSubmitted, m.votesCast, m.votesRemoved, m.votesRejected)
	return m
}

func (m *Metrics) IdeaSubmitted() { m.ideasSubmitted.Inc() }
func (m *Metrics) VoteCast()      { m.votesCast.Inc() }
func (m *Metrics) VoteRemoved()   { m.votesRemoved.Inc() }

func (m *Metrics) VoteRejected(reason string) {
	m.votesRejected.WithLabelValues(reason).Inc()
}
