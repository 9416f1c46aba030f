package history_test

import (
	"context"
	"fmt"
	"testing"

	"docpress/internal/history"
	"docpress/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, "token-1", "convert", []string{"/tmp/report.docx"}, "/tmp/out", map[string]any{"toFormat": "pdf"})
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != history.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}

	fetched, err := store.GetByToken(ctx, "token-1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if fetched == nil || fetched.Command != "convert" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
	if paths := fetched.InputPaths(); len(paths) != 1 || paths[0] != "/tmp/report.docx" {
		t.Fatalf("unexpected input paths: %v", paths)
	}
}

func TestGetByTokenMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByToken(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %#v", job)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "token-2", "convert", "/tmp/a.md")

	code := int64(3)
	job.Status = history.StatusFailed
	job.ProgressStage = "rendering"
	job.ProgressPercent = 42.5
	job.ProgressMessage = "rendering page 4"
	job.ErrorMessage = "worker exited with code 3"
	job.ExitCode = &code
	job.StderrTail = "Traceback (most recent call last)"
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByToken(ctx, "token-2")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if fetched.Status != history.StatusFailed {
		t.Fatalf("expected failed status, got %s", fetched.Status)
	}
	if fetched.ProgressStage != "rendering" || fetched.ProgressPercent != 42.5 {
		t.Fatalf("progress not persisted: %#v", fetched)
	}
	if fetched.ExitCode == nil || *fetched.ExitCode != 3 {
		t.Fatalf("exit code not persisted: %#v", fetched.ExitCode)
	}
	if fetched.StderrTail == "" || fetched.ErrorMessage == "" {
		t.Fatalf("failure details not persisted: %#v", fetched)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewJob(t, store, fmt.Sprintf("pending-%d", i), "convert", "/tmp/in.md")
	}
	failed := testsupport.NewJob(t, store, "failed-1", "convert", "/tmp/in.md")
	failed.Status = history.StatusFailed
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(all))
	}

	failedJobs, err := store.List(ctx, history.StatusFailed)
	if err != nil {
		t.Fatalf("List(failed) failed: %v", err)
	}
	if len(failedJobs) != 1 || failedJobs[0].Token != "failed-1" {
		t.Fatalf("unexpected failed jobs: %#v", failedJobs)
	}
}

func TestStatsAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	completed := testsupport.NewJob(t, store, "done-1", "convert", "/tmp/in.md")
	completed.Status = history.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	failed := testsupport.NewJob(t, store, "failed-1", "convert", "/tmp/in.md")
	failed.Status = history.StatusFailed
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[history.StatusCompleted] != 1 || stats[history.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	removed, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

func TestMarkStuckRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "running-1", "convert", "/tmp/in.md")
	job.Status = history.StatusRunning
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.MarkStuckRunning(ctx, "daemon stopped")
	if err != nil {
		t.Fatalf("MarkStuckRunning failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 job marked, got %d", count)
	}

	fetched, err := store.GetByToken(ctx, "running-1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if fetched.Status != history.StatusFailed || fetched.ErrorMessage != "daemon stopped" {
		t.Fatalf("unexpected job after recovery: %#v", fetched)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := history.ParseStatus(" Failed "); !ok || status != history.StatusFailed {
		t.Fatalf("ParseStatus(Failed) = %q, %v", status, ok)
	}
	if _, ok := history.ParseStatus("bogus"); ok {
		t.Fatal("expected bogus status to be rejected")
	}
}
