package ledger

import "testing"

func TestOpenRejectsEmptyURL(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("expected error for empty database URL")
	}
}

func TestUpsertRejectsMissingJobID(t *testing.T) {
	l := &Ledger{}
	err := l.Upsert(nil, &JobUpdate{Status: StatusRunning})
	if err == nil {
		t.Error("expected error for missing job ID")
	}
}

func TestUpsertRejectsMissingStatus(t *testing.T) {
	l := &Ledger{}
	err := l.Upsert(nil, &JobUpdate{JobID: "job-1"})
	if err == nil {
		t.Error("expected error for missing status")
	}
}
