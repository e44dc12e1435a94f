package keeper

import (
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cellar"

// Metrics are the prometheus collectors updated by the keeper. They are
// created unregistered; call Register to expose them.
type Metrics struct {
	Deposits        *prometheus.CounterVec
	Withdrawals     *prometheus.CounterVec
	Rebalances      *prometheus.CounterVec
	FeeAccruals     *prometheus.CounterVec
	TotalAssets     *prometheus.GaugeVec
	EndBlockerFails prometheus.Counter
}

// NewMetrics builds the keeper collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deposits_total",
			Help:      "Number of deposits and mints per cellar",
		}, []string{"cellar"}),
		Withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "withdrawals_total",
			Help:      "Number of withdrawals and redemptions per cellar",
		}, []string{"cellar"}),
		Rebalances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rebalances_total",
			Help:      "Strategist batches per cellar and outcome",
		}, []string{"cellar", "outcome"}),
		FeeAccruals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fee_accruals_total",
			Help:      "Fee accruals per cellar",
		}, []string{"cellar"}),
		TotalAssets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "total_assets",
			Help:      "Last observed total assets per cellar, in base asset units",
		}, []string{"cellar"}),
		EndBlockerFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "end_blocker_failures_total",
			Help:      "Scheduled fee accruals that failed in the end blocker",
		}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Deposits, m.Withdrawals, m.Rebalances, m.FeeAccruals, m.TotalAssets, m.EndBlockerFails} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func cellarLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (m *Metrics) observeTotalAssets(cellarID uint32, total sdkmath.Int) {
	f, err := sdkmath.LegacyNewDecFromInt(total).Float64()
	if err != nil {
		return
	}
	m.TotalAssets.WithLabelValues(cellarLabel(cellarID)).Set(f)
}
