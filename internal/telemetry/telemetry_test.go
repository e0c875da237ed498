package telemetry

import "testing"

func TestReportScanCompletedNoopWithoutPublicKey(t *testing.T) {
	r := New("", false)
	// Must not panic even with no public key configured.
	r.ReportScanCompleted(Counts{ClassCount: 3, InterfaceCount: 1, AnnotationCount: 0, ArchiveCount: 1})
}

func TestReportScanFailedNoopWhenDisabled(t *testing.T) {
	r := New("test-key", true)
	// Must not panic, and must not actually enqueue since metrics are disabled.
	r.ReportScanFailed()
}

func TestNewLoadsOrCreatesDistinctID(t *testing.T) {
	r := New("", false)
	if r.distinctID == "" {
		t.Skip("no $HOME available in this environment to persist an installation id")
	}
	if len(r.distinctID) != 36 {
		t.Errorf("distinctID = %q, want a UUID string", r.distinctID)
	}
}
