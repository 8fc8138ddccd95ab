/*
Package monitoring provides metrics collection for the session service.

# Overview

Prometheus metrics for the HTTP transport, RPC dispatch and session state.
Each Metrics value owns a private registry so several can coexist in one
process (tests build one per server).

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "downloads.add")
	defer timer.Stop("ok")
*/
package monitoring
