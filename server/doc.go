// Package server provides the placeholder HTTP surface: a Gin engine served
// through an h2c handler, with panic recovery, request IDs, tracing and
// request logging.
//
// Only two routes exist: "/" answers with a greeting and "/health" reports
// aggregated component health. There is no API contract yet.
package server
