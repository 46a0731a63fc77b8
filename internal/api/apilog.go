package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// APILogEntry is a single structured record written to the API log file.
// Each field uses snake_case JSON keys for easy grep/jq consumption.
type APILogEntry struct {
	Timestamp  string `json:"ts"`
	RunID      string `json:"run_id"`
	Event      string `json:"event"`                 // "request", "manifest_resolved", "manifest_missing"
	Label      string `json:"label,omitempty"`       // human-readable API endpoint name
	StatusCode int    `json:"status_code,omitempty"` // HTTP status (0 = network error)
	DurationMS int64  `json:"duration_ms,omitempty"` // round-trip time
	VideoID    string `json:"video_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// apiLogger writes structured JSON-line entries to a dedicated log file.
// All methods are safe for concurrent use.
type apiLogger struct {
	mu    sync.Mutex
	runID string
	enc   *json.Encoder
}

// Logger is the package-level API logger. It is nil until InitAPILogger is called.
// All log functions are no-ops when Logger is nil.
var Logger *apiLogger

var loggerOnce sync.Once

// InitAPILogger opens (or creates) the dedicated API log file at logPath and
// tags every entry of this process with a fresh run ID, which it returns.
// The directory is created with mode 0700 if it does not exist.
// On error logging stays disabled; nothing else is affected.
func InitAPILogger(logPath string) (string, error) {
	var (
		initErr error
		runID   string
	)
	loggerOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			initErr = fmt.Errorf("api logger: mkdir %s: %w", filepath.Dir(logPath), err)
			return
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			initErr = fmt.Errorf("api logger: open %s: %w", logPath, err)
			return
		}
		Logger = newAPILogger(f)
		runID = Logger.runID
	})
	return runID, initErr
}

func newAPILogger(w io.Writer) *apiLogger {
	return &apiLogger{enc: json.NewEncoder(w), runID: uuid.NewString()}
}

// write is the internal append function. Failures are silently ignored;
// a logging error must never abort a run.
func (l *apiLogger) write(e APILogEntry) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	e.RunID = l.runID
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(e)
}

// LogRequest records a completed HTTP request (success or API-level error).
func LogRequest(label, videoID string, statusCode int, duration time.Duration, reqErr error) {
	if Logger == nil {
		return
	}
	e := APILogEntry{
		Event:      "request",
		Label:      label,
		VideoID:    videoID,
		StatusCode: statusCode,
		DurationMS: duration.Milliseconds(),
	}
	if reqErr != nil {
		e.Error = reqErr.Error()
	}
	Logger.write(e)
}

// LogManifest records the outcome of HLS entry selection for a video.
func LogManifest(videoID string, found bool) {
	if Logger == nil {
		return
	}
	e := APILogEntry{Event: "manifest_resolved", Label: "videos", VideoID: videoID}
	if !found {
		e.Event = "manifest_missing"
	}
	Logger.write(e)
}
