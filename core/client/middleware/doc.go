// Package middleware provides the built-in middlewares for [client.Client].
// Each constructor returns a [client.Middleware] ready for [client.WithMiddleware].
//
//   - [NewRetryMiddleware] retries rate-limited and server-side failures with
//     exponential backoff and jitter.
//   - [NewTimeoutMiddleware] bounds each provider call with a deadline.
//   - [NewLoggingMiddleware] writes slog records around every call.
//
// Middlewares run outermost-first. With
//
//	client.WithMiddleware(
//	    middleware.NewTimeoutMiddleware(2*time.Minute),
//	    middleware.NewRetryMiddleware(middleware.RetryConfig{}),
//	    middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	)
//
// a request travels Timeout, Retry, Logging, Provider, so the timeout spans all
// retry attempts and each attempt gets its own log lines.
package middleware
