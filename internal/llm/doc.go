// Package llm wraps the Gemini API behind the three operations the portal
// needs: streamed section generation, multi-turn chat, and speech synthesis.
//
// The remote service is treated as a black box. Transport errors surface as
// returned errors; there is no retry or backoff here. Every outbound call
// passes through one shared rate limiter so overlapping generations cannot
// produce unbounded request bursts, and each call is wrapped in an
// OpenTelemetry span.
//
// Consumers (section, chat, speech) define their own narrow interfaces over
// this package's types; Gemini satisfies all of them.
package llm
