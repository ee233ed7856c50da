/*
Package observability turns engine lifecycle events into metrics and audit logs.

Both Metrics and AuditHooks return domain.LifecycleHooks, so they compose with
sopnav.WithLifecycleHooks:

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	eng, _ := sopnav.New(
		sopnav.WithLifecycleHooks(metrics.Hooks()),
		sopnav.WithLifecycleHooks(observability.AuditHooks(logger)),
	)
*/
package observability
