// Package rng provides a layered random byte generator that trades
// strength for guaranteed availability.
//
// Requests are served from an ordered chain of cryptographically strong
// sources first. Whatever shortfall remains is filled from a weak
// fallback generator that derives blocks from a rolling state, seeded
// with one-shot system state and advanced with wall-clock drift
// measurements. Generating bytes therefore never fails and never blocks
// indefinitely - but the result may be weak, which callers can check
// per request via LastStrong().
//
// The weak fallback is deliberately slow: the time spent measuring
// scheduling and memory timing jitter is its entropy source.
package rng
