// Package telemetry reports scan-completion counts to PostHog,
// opt-out and aggregate-only: it never transmits a class name, package
// name, or file path, only counts and timings. Adapted from the
// teacher's analytics package, narrowed from free-form event names to a
// fixed pair of scan-lifecycle events.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
)

const (
	// EventScanCompleted is reported once per successful scan.
	EventScanCompleted = "scan_completed"
	// EventScanFailed is reported when a scan aborts with a fatal error;
	// no error text travels with it, only the fact that it happened.
	EventScanFailed = "scan_failed"
)

const envDir = ".classgraph-go"

// Counts summarizes a completed scan. Every field is an aggregate; none
// of them can be used to reconstruct what was scanned.
type Counts struct {
	ClassCount      int
	InterfaceCount  int
	AnnotationCount int
	ArchiveCount    int
	Elapsed         time.Duration
}

// Reporter sends scan-lifecycle events for one invocation of the CLI.
type Reporter struct {
	enabled    bool
	publicKey  string
	distinctID string
}

// New returns a Reporter. disableMetrics mirrors the CLI's --disable-metrics
// flag; publicKey is empty in developer builds, in which case Report*
// is always a no-op regardless of disableMetrics.
func New(publicKey string, disableMetrics bool) *Reporter {
	return &Reporter{
		enabled:    !disableMetrics,
		publicKey:  publicKey,
		distinctID: loadOrCreateDistinctID(),
	}
}

// loadOrCreateDistinctID reads the persisted anonymous installation ID,
// creating one on first run. Failures to read or write the env file are
// swallowed: telemetry is best-effort and must never fail a scan.
func loadOrCreateDistinctID() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	envFile := filepath.Join(home, envDir, ".env")

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(envFile), os.ModePerm); err != nil {
			return ""
		}
		env := map[string]string{"uuid": uuid.New().String()}
		if err := godotenv.Write(env, envFile); err != nil {
			return ""
		}
	}

	env, err := godotenv.Read(envFile)
	if err != nil {
		return ""
	}
	return env["uuid"]
}

// ReportScanCompleted sends aggregate counts for a finished scan.
func (r *Reporter) ReportScanCompleted(c Counts) {
	r.send(EventScanCompleted, posthog.NewProperties().
		Set("class_count", c.ClassCount).
		Set("interface_count", c.InterfaceCount).
		Set("annotation_count", c.AnnotationCount).
		Set("archive_count", c.ArchiveCount).
		Set("elapsed_ms", c.Elapsed.Milliseconds()))
}

// ReportScanFailed sends a bare failure signal with no properties.
func (r *Reporter) ReportScanFailed() {
	r.send(EventScanFailed, nil)
}

func (r *Reporter) send(event string, props posthog.Properties) {
	if !r.enabled || r.publicKey == "" {
		return
	}
	client, err := posthog.NewWithConfig(r.publicKey, posthog.Config{Endpoint: "https://us.i.posthog.com"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "telemetry:", err)
		return
	}
	defer client.Close()

	capture := posthog.Capture{DistinctId: r.distinctID, Event: event}
	if props != nil {
		capture.Properties = props
	}
	if err := client.Enqueue(capture); err != nil {
		fmt.Fprintln(os.Stderr, "telemetry:", err)
	}
}
