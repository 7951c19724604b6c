// Package health reports whether the anime data client can serve queries.
//
// A Checker reports one component. CacheChecker watches how many entries the
// response cache holds and UpstreamChecker follows the circuit breaker in
// front of the Jikan API. An Aggregator runs them together and produces a
// Report whose overall status is the worst individual status.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewUpstreamChecker("upstream", client.Breaker()))
//	agg.Register(health.NewCacheChecker(memCache, health.CacheCheckerConfig{
//	    WarningEntries:  5000,
//	    CriticalEntries: 20000,
//	}))
//
//	report := agg.Report(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    // ...
//	}
package health
