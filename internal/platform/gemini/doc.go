// Package gemini implements the application's three LLM collaborators on
// top of Google's Gemini API: the board-style explanation generator, the
// MCQ generator used by the PDF pipeline, and the cheap relevance
// classifier that gates pipeline runs.
//
// This package is an infrastructure adapter; the task engine depends only
// on the narrow generator interfaces it defines itself.
package gemini
