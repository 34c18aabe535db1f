// Package types contains the shared data structures used across ordinato:
// documents, chat messages for LLM-backed scoring, and context keys used by
// telemetry.
//
// Types in this package are plain data carriers. Behavior lives in the
// packages that operate on them (the root ranker, pkg/crossencoder,
// pkg/fusion).
package types
