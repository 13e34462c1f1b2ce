// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import "github.com/prometheus/client_golang/prometheus"

// channelMetrics tracks per-multiplexer counters. A nil registerer
// disables registration (tests construct multiplexers without a
// registry).
type channelMetrics struct {
	newRequests *prometheus.CounterVec
	cancels     *prometheus.CounterVec
}

func newChannelMetrics(reg prometheus.Registerer) *channelMetrics {
	m := &channelMetrics{
		newRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wire",
			Name:      "new_requests_total",
			Help:      "Number of NewRequest reads completed, by channel.",
		}, []string{"channel"}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wire",
			Name:      "request_cancellations_total",
			Help:      "Number of RequestCancellation reads completed, by channel.",
		}, []string{"channel"}),
	}
	if reg != nil {
		_ = reg.Register(m.newRequests)
		_ = reg.Register(m.cancels)
	}
	return m
}

func (m *channelMetrics) observeNewRequest(channel uint8) {
	if m == nil {
		return
	}
	m.newRequests.WithLabelValues(channelLabel(channel)).Inc()
}

func (m *channelMetrics) observeCancel(channel uint8) {
	if m == nil {
		return
	}
	m.cancels.WithLabelValues(channelLabel(channel)).Inc()
}

func channelLabel(channel uint8) string {
	const hex = "0123456789abcdef"
	return string([]byte{hex[channel>>4], hex[channel&0xf]})
}
