// Package metrics contains the shared settings of the pricewatch Prometheus metrics.
package metrics

// Namespace is the prefix of all pricewatch metrics.
const Namespace = "pricewatch"
