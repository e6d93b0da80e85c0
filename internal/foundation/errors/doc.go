// Package errors provides foundational, type-safe error primitives used across llmdocs.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, filesystem, html, docref, generation, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff, rate_limit)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for user-facing error presentation
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGeneration, "summary generation failed").
//		WithRetry(errors.RetryBackoff).
//		WithContext("target", targetID).
//		Build()
package errors
