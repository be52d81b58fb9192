// Package metrics exposes Prometheus collectors for HTTP traffic and
// progression activity (events, points, badges, level-ups, redemptions,
// commit conflicts, challenge expiry and leaderboard refreshes).
//
// Collectors are registered on an injected prometheus.Registerer so tests
// can use a private registry:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg, reg)
//	http.Handle("/metrics", m.Handler())
package metrics
