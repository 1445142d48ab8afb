package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContractCallsTotal counts contract calls by method, kind (transaction or simulation) and status
	ContractCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiasset_contract_calls_total",
			Help: "Total number of multi-asset contract calls",
		},
		[]string{"method", "kind", "status"},
	)

	// ContractCallDuration tracks contract call round trip time
	ContractCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multiasset_contract_call_duration_seconds",
			Help:    "Contract call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "kind"},
	)

	// ContractErrorsTotal counts contract-reported reverts by error name
	ContractErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiasset_contract_errors_total",
			Help: "Total number of contract reverts by error name",
		},
		[]string{"method", "error"},
	)

	// GasUsed tracks gas used by committed transactions
	GasUsed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multiasset_gas_used",
			Help:    "Gas used for multi-asset transactions",
			Buckets: []float64{21000, 50000, 100000, 200000, 300000, 500000, 1000000, 3000000},
		},
		[]string{"method"},
	)

	// CommandsTotal counts CLI command executions by outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiasset_commands_total",
			Help: "Total number of commands executed",
		},
		[]string{"command", "status"},
	)

	// CommandCost tracks the base asset cost of the last command execution
	CommandCost = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "multiasset_command_cost",
			Help: "Base asset spent by the last command execution",
		},
		[]string{"command"},
	)

	// BatchMintRecipients counts batch mint recipients by outcome
	BatchMintRecipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiasset_batch_mint_recipients_total",
			Help: "Batch mint recipients by outcome",
		},
		[]string{"status"},
	)

	// DeploymentsTotal counts deployments by final phase
	DeploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multiasset_deployments_total",
			Help: "Total number of contract deployments by resulting phase",
		},
		[]string{"phase"},
	)
)
