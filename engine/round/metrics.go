// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package round

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/roundbft/metrics"
	"github.com/luxfi/roundbft/utils/wrappers"
)

// EngineMetrics tracks how quickly rounds finalize, using the teacher's
// Averager/Counter metrics wrapper over prometheus rather than raw
// collectors, consistently with how the rest of this package favors
// its dependencies' idioms over hand-rolled accounting.
type EngineMetrics struct {
	finalizationLatencyMS metrics.Averager
	roundsFinalized       metrics.Counter
}

// NewEngineMetrics registers the engine's metrics against reg,
// accumulating any registration failures into errs instead of failing
// construction outright — the same degrade-to-no-op-on-error contract
// metrics.NewAveragerWithErrs itself documents.
func NewEngineMetrics(reg prometheus.Registerer, errs *wrappers.Errs) *EngineMetrics {
	return &EngineMetrics{
		finalizationLatencyMS: metrics.NewAveragerWithErrs(
			"round_finalization_latency_ms",
			"milliseconds between a round's creation and its finalization",
			reg, errs,
		),
		roundsFinalized: metrics.NewCounter(),
	}
}

func (m *EngineMetrics) observeFinalization(latencyMS float64) {
	if m == nil {
		return
	}
	m.finalizationLatencyMS.Observe(latencyMS)
	m.roundsFinalized.Inc()
}

// RoundsFinalized returns the running count of finalized rounds, mainly
// for tests.
func (m *EngineMetrics) RoundsFinalized() int64 {
	if m == nil {
		return 0
	}
	return m.roundsFinalized.Read()
}

// SetMetrics attaches m to the engine; subsequent finalizations observe
// into it. A nil m (the default) makes metrics recording a no-op.
func (eng *Engine) SetMetrics(m *EngineMetrics) {
	eng.metrics = m
}
