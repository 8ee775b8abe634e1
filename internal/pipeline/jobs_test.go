package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/verify"
)

func TestContentHashHex(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"empty upload", nil, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"ascii body", []byte("hello world"), "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContentHashHex(tc.data); got != tc.want {
				t.Errorf("expected hash %q, got %q", tc.want, got)
			}
		})
	}

	a := ContentHashHex([]byte(`<Root><Chapter Caption="A"/></Root>`))
	b := ContentHashHex([]byte(`<Root><Chapter Caption="B"/></Root>`))
	if a == b {
		t.Error("expected different exports to hash differently")
	}
}

func TestNewJob(t *testing.T) {
	data := []byte("<Root/>")
	a := NewJob("a.xml", "", data)
	b := NewJob("a.xml", "", data)

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected distinct non-empty IDs, got %q and %q", a.ID, b.ID)
	}
	if len(a.ID) != 36 {
		t.Errorf("expected uuid-length ID, got %q", a.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, a.Status)
	}
	if a.ContentHash != ContentHashHex(data) {
		t.Errorf("expected content hash of upload, got %q", a.ContentHash)
	}
	if string(a.FileData()) != string(data) {
		t.Errorf("expected file data %q, got %q", data, a.FileData())
	}
}

func TestJob_SetStatusWalksExtractionPhases(t *testing.T) {
	job := NewJob("smeta.xml", "", []byte("<Root/>"))
	created := job.UpdatedAt

	steps := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusVerifying, "verifying"},
		{StatusCompleted, "done"},
	}
	for _, step := range steps {
		time.Sleep(time.Millisecond)
		job.SetStatus(step.status, step.phase)

		snap := job.Snapshot()
		if snap.Status != step.status || snap.Phase != step.phase {
			t.Errorf("expected %s/%s, got %s/%s", step.status, step.phase, snap.Status, snap.Phase)
		}
	}
	if !job.Snapshot().UpdatedAt.After(created) {
		t.Error("expected UpdatedAt to move past CreatedAt")
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusVerifying} {
		if s.Done() {
			t.Errorf("expected %q not done", s)
		}
	}
	for _, s := range []JobStatus{StatusCompleted, StatusFailed} {
		if !s.Done() {
			t.Errorf("expected %q done", s)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("parse: unexpected EOF")
	job.AddError("verify: no data")

	snap := job.Snapshot()
	if len(snap.Summary.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Summary.Errors))
	}
	if snap.Summary.Errors[0] != "parse: unexpected EOF" {
		t.Errorf("expected first error %q, got %q", "parse: unexpected EOF", snap.Summary.Errors[0])
	}
}

func TestJob_SetResult(t *testing.T) {
	est := estimate.New()
	s := est.EnsureSection("A")
	s.Items = append(s.Items, &estimate.WorkItem{
		Price:     10,
		Materials: []*estimate.Material{{Price: 1}, {Price: 2}},
	})
	est.TotalCost = 13
	checks := []verify.Check{
		{ID: 1, Passed: true},
		{ID: 2, Passed: false},
		{ID: 7, Warning: true},
	}

	job := &Job{ID: "result-test"}
	job.SetResult(est, checks)

	snap := job.Snapshot()
	if snap.Summary.Sections != 1 || snap.Summary.WorkItems != 1 || snap.Summary.Materials != 2 {
		t.Errorf("unexpected counts: %+v", snap.Summary)
	}
	if snap.Summary.TotalCost != 13 {
		t.Errorf("expected total 13, got %v", snap.Summary.TotalCost)
	}
	if snap.Summary.ChecksPassed != 1 || snap.Summary.ChecksFailed != 1 || snap.Summary.Warnings != 1 {
		t.Errorf("unexpected check tally: %+v", snap.Summary)
	}

	gotEst, gotChecks := job.Result()
	if gotEst != est || len(gotChecks) != 3 {
		t.Error("expected Result to return what SetResult stored")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Summary.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
}

func TestJob_ReleaseFileData(t *testing.T) {
	job := NewJob("x.xml", "", []byte("data"))
	job.releaseFileData()
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJobStore_PutGetDelete(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
	if !store.Delete("store-1") {
		t.Error("expected delete to report existing job")
	}
	if store.Delete("store-1") {
		t.Error("expected second delete to report missing job")
	}
	if store.Get("store-1") != nil {
		t.Error("expected nil after delete")
	}
}

func TestJobStore_CleanupDropsStaleJobs(t *testing.T) {
	store := NewJobStore(time.Minute)

	stale := NewJob("old.xml", "", nil)
	stale.UpdatedAt = time.Now().Add(-2 * time.Minute)
	recent := NewJob("new.xml", "", nil)
	store.Put(stale)
	store.Put(recent)

	store.Cleanup()

	if store.Get(stale.ID) != nil {
		t.Error("expected stale job to be dropped")
	}
	if store.Get(recent.ID) == nil {
		t.Error("expected recent job to be kept")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job left, got %d", store.Len())
	}
}
