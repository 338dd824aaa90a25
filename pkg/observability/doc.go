/*
Package observability provides lifecycle hooks for monitoring tutorial runs.

Metrics exposes Prometheus counters and histograms fed by engine hooks, and
LoggingHooks writes the same events as structured log records. Both return
domain.LifecycleHooks and can be combined with Merge.
*/
package observability
