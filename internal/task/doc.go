// Package task implements the background task orchestration engine: the
// status store with snapshot persistence, the cooperative cancellation
// registry, the shared rate limiter pacing calls to the AI service, and
// the job runners for single explanations, bulk fan-out explanation
// generation, and the PDF-to-MCQ pipeline.
//
// Every task occupies one dedicated goroutine created at start and exiting
// on its terminal transition. Cancellation is advisory and checkpoint-based;
// an in-flight external call is never interrupted, so worst-case
// cancellation latency is bounded by the duration of one such call.
package task
