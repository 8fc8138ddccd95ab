/*
Package tracing correlates RPC calls with the HTTP requests that carried them.

Every inbound request gets a request ID (X-Request-ID, generated when the
caller sends none). The RPC dispatcher opens one span per call; finished spans
are logged by a background collector so logging never sits on the call path.

# Usage

	tracer := tracing.New(logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware())

	span, ctx := tracer.StartSpan(ctx, "downloads.add")
	defer func() {
	    span.Finish()
	    tracer.Submit(span)
	}()
*/
package tracing
