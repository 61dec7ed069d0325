package shared

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// ContextKey is the type for values this package stores on a request context.
type ContextKey string

const (
	// SubjectContextKey holds the authenticated token subject.
	SubjectContextKey ContextKey = "subject"

	// TraceIDKey holds the request trace ID.
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID stamps a fresh trace ID onto the context so the logs and the
// error bodies of one request can be correlated.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, NewTraceID())
}

// GetTraceID returns the context's trace ID, or "" when none was set.
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

// NewTraceID returns a 32-character hex identifier. If the entropy source
// fails the ID degrades to a timestamp-derived value rather than a constant.
func NewTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return timeTraceID()
	}
	return hex.EncodeToString(id[:])
}

func timeTraceID() string {
	var b [16]byte
	now := time.Now()
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(b[12:], uint32(now.Unix()))
	return hex.EncodeToString(b[:])
}
