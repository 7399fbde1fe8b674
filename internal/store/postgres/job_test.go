package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"clausecheck/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func jobRows(job *store.EvaluationJob) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "job_type", "status", "total_rules", "completed_rules", "failed_rules",
		"contract_ids", "rule_ids", "cancel_requested",
		"started_date", "completed_date", "error_message", "result_ids", "created_at",
	}).AddRow(
		job.ID, job.JobType, job.Status, job.TotalRules, job.CompletedRules, job.FailedRules,
		[]byte(pgArray(job.ContractIDs)), []byte(pgArray(job.RuleIDs)), job.CancelRequested,
		job.StartedDate, job.CompletedDate, job.ErrorMessage, []byte(pgArray(job.ResultIDs)), job.CreatedAt,
	)
}

func pgArray(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return "{}"
	}
	out := "{"
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id.String()
	}
	return out + "}"
}

func TestClaimNextJob_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	now := time.Now()
	job := &store.EvaluationJob{
		ID:          uuid.New(),
		JobType:     store.JobTypeEvaluateContract,
		Status:      store.JobStatusInProgress,
		ContractIDs: []uuid.UUID{uuid.New()},
		RuleIDs:     []uuid.UUID{uuid.New(), uuid.New()},
		StartedDate: &now,
		CreatedAt:   now,
	}

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WithArgs(store.JobStatusInProgress, store.JobStatusPending).
		WillReturnRows(jobRows(job))

	claimed, err := s.ClaimNextJob(context.Background())
	if err != nil {
		t.Fatalf("ClaimNextJob failed: %v", err)
	}
	if claimed.ID != job.ID || claimed.Status != store.JobStatusInProgress {
		t.Errorf("unexpected job: %+v", claimed)
	}
	if len(claimed.RuleIDs) != 2 {
		t.Errorf("expected 2 rule ids, got %d", len(claimed.RuleIDs))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestClaimNextJob_EmptyQueue(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`FOR UPDATE SKIP LOCKED`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.ClaimNextJob(context.Background())
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty queue, got %v", err)
	}
}

func TestGetJobByID(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	errMsg := "evaluation call failed"
	job := &store.EvaluationJob{
		ID:           uuid.New(),
		JobType:      store.JobTypeBatchEvaluate,
		Status:       store.JobStatusFailed,
		ErrorMessage: &errMsg,
		ResultIDs:    []uuid.UUID{uuid.New()},
		CreatedAt:    time.Now(),
	}

	mock.ExpectQuery(`FROM evaluation_jobs`).
		WithArgs(job.ID).
		WillReturnRows(jobRows(job))

	got, err := s.GetJobByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetJobByID failed: %v", err)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != errMsg {
		t.Errorf("expected error message %q, got %v", errMsg, got.ErrorMessage)
	}
	if len(got.ResultIDs) != 1 {
		t.Errorf("expected 1 result id, got %d", len(got.ResultIDs))
	}
}

func TestCompleteJob_AlreadyTerminal(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	// Zero affected rows means the status guard rejected the transition.
	mock.ExpectExec(`UPDATE evaluation_jobs`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.CompleteJob(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrJobTerminal) {
		t.Errorf("expected ErrJobTerminal, got %v", err)
	}
}

func TestFailJob_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE evaluation_jobs`).
		WithArgs(id, store.JobStatusFailed, "boom", store.JobStatusPending, store.JobStatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.FailJob(context.Background(), id, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRequestCancel(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		s, mock := newMockStore(t)
		defer s.db.Close()

		mock.ExpectExec(`SET cancel_requested = TRUE`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := s.RequestCancel(context.Background(), uuid.New()); err != nil {
			t.Fatalf("RequestCancel failed: %v", err)
		}
	})

	t.Run("Already Terminal", func(t *testing.T) {
		s, mock := newMockStore(t)
		defer s.db.Close()

		id := uuid.New()
		job := &store.EvaluationJob{ID: id, JobType: store.JobTypeEvaluateContract, Status: store.JobStatusCompleted, CreatedAt: time.Now()}

		mock.ExpectExec(`SET cancel_requested = TRUE`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		// The follow-up lookup distinguishes terminal from missing.
		mock.ExpectQuery(`FROM evaluation_jobs`).
			WillReturnRows(jobRows(job))

		err := s.RequestCancel(context.Background(), id)
		if !errors.Is(err, store.ErrJobTerminal) {
			t.Errorf("expected ErrJobTerminal, got %v", err)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		s, mock := newMockStore(t)
		defer s.db.Close()

		mock.ExpectExec(`SET cancel_requested = TRUE`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`FROM evaluation_jobs`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := s.RequestCancel(context.Background(), uuid.New())
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestDeleteJobsCompletedBefore(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectExec(`DELETE FROM evaluation_jobs`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))

	deleted, err := s.DeleteJobsCompletedBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteJobsCompletedBefore failed: %v", err)
	}
	if deleted != 5 {
		t.Errorf("expected 5 deleted, got %d", deleted)
	}
}

func TestCountActiveJobs(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(store.JobStatusPending, store.JobStatusInProgress).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := s.CountActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("CountActiveJobs failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}
