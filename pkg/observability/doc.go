/*
Package observability provides tools for monitoring the solve pipeline.

It turns the domain lifecycle hooks into structured log lines and Prometheus
metrics, and combines several hook sets into one.
*/
package observability
