// Package metrics declares the Prometheus collectors of the service.
package metrics

const Namespace = "idcard"
