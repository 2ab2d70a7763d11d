/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package txn

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	operationsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dexpi",
			Subsystem: "txn",
			Name:      "operations_applied_total",
			Help:      "Operations applied inside a transaction, by operation name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	transactionCommitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dexpi",
			Subsystem: "txn",
			Name:      "transaction_commit_duration_seconds",
			Help:      "Wall time from begin to commit for a transaction.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"model_id"},
	)

	activeTransactions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dexpi",
			Subsystem: "txn",
			Name:      "active_transactions",
			Help:      "Number of transactions currently in the ACTIVE state.",
		},
	)
)

func init() {
	prometheus.MustRegister(operationsAppliedTotal, transactionCommitDuration, activeTransactions)
}
