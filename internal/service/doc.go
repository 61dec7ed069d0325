// Package service contains the application-specific use cases over the
// external question bank. It resolves category/subject/topic scopes to
// question sets, loads questions with their answer options, and persists
// or removes generated explanations through a query executor abstraction
// so the same logic runs against the HTTP bridge or a direct connection.
package service
