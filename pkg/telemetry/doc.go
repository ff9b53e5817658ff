// Package telemetry exposes Prometheus metrics and OpenTelemetry tracing for
// the kinetic runtime.
//
// A *Metrics value plugs into the runtime's observation points:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	sched := scheduler.New(l, scheduler.WithObserver(m))
//	adapter := host.Instrument(wirehost.New(), m)
//	r := renderer.New(adapter, rt, renderer.WithObserver(m))
//
// Every metric lives under the "kinetic" namespace unless WithNamespace says
// otherwise.
package telemetry
