// Package bridge implements the query executor that reaches the externally
// hosted question database through its HTTP bridge endpoint. The bridge
// accepts a fully interpolated SQL statement as form data and returns result
// rows as JSON; it commits each statement independently, so callers get no
// transactional guarantees across calls.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medfellows/quizforge-api/internal/config"
	"github.com/medfellows/quizforge-api/internal/platform/logger"
	"github.com/medfellows/quizforge-api/internal/redact"
)

// Common executor errors
var (
	// ErrBridge wraps any failure reported by or while reaching the bridge.
	ErrBridge = errors.New("database bridge request failed")

	// ErrPlaceholderMismatch is returned when the statement's placeholder
	// count does not match the argument count.
	ErrPlaceholderMismatch = errors.New("placeholder count does not match argument count")
)

// Executor executes SQL statements through the HTTP bridge.
type Executor struct {
	endpoint string
	client   *http.Client
}

// New creates a bridge executor from the database configuration.
func New(cfg config.DatabaseConfig) *Executor {
	return &Executor{
		endpoint: cfg.BridgeURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
		},
	}
}

// bridgeResponse is the JSON envelope the bridge returns. SELECT statements
// yield data rows; mutations may return only an affected-row count.
type bridgeResponse struct {
	Status       string           `json:"status"`
	Data         []map[string]any `json:"data"`
	AffectedRows *int             `json:"affected_rows"`
	Error        string           `json:"error"`
}

// Execute interpolates args into stmt, POSTs the statement to the bridge and
// decodes the result rows. The stmt uses "?" placeholders. Row values arrive
// as the bridge serialized them, which for this bridge means numbers may come
// back as strings; callers must tolerate both.
func (e *Executor) Execute(ctx context.Context, stmt string, args ...any) ([]map[string]any, error) {
	log := logger.FromContext(ctx)

	interpolated, err := Interpolate(stmt, args...)
	if err != nil {
		return nil, err
	}

	log.Debug("executing statement via bridge",
		"statement", redact.Statement(interpolated))

	form := url.Values{"query": {interpolated}}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridge, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		log.Error("bridge request failed", "error", redact.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBridge, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrBridge, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("bridge returned non-OK status",
			"status_code", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrBridge, resp.StatusCode)
	}

	var decoded bridgeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: unexpected response format: %v", ErrBridge, err)
	}

	if decoded.Error != "" {
		log.Error("bridge reported query error", "error", redact.String(decoded.Error))
		return nil, fmt.Errorf("%w: %s", ErrBridge, decoded.Error)
	}

	log.Debug("bridge query succeeded", "rows", len(decoded.Data))
	return decoded.Data, nil
}

// Interpolate substitutes args into the "?" placeholders of stmt, escaping
// string values the way the bridge expects (single quotes doubled). The
// bridge has no parameter binding of its own, so interpolation happens on
// this side of the wire.
func Interpolate(stmt string, args ...any) (string, error) {
	if strings.Count(stmt, "?") != len(args) {
		return "", fmt.Errorf("%w: %d placeholders, %d args",
			ErrPlaceholderMismatch, strings.Count(stmt, "?"), len(args))
	}

	var b strings.Builder
	argIndex := 0
	for _, r := range stmt {
		if r != '?' {
			b.WriteRune(r)
			continue
		}
		b.WriteString(formatValue(args[argIndex]))
		argIndex++
	}
	return b.String(), nil
}

// formatValue renders one argument as a SQL literal.
func formatValue(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(v), "'", "''") + "'"
	}
}
