package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oxide-coins-bot/internal/model"
)

// Task and submission errors.
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTaskNotActive       = errors.New("task is not active")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("submission already exists for this task")
	ErrSubmissionReviewed  = errors.New("submission already reviewed")
)

// TaskRepository handles admin-authored tasks and their submissions.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository instance.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `
	id, author_id, kind, reward, status, server_name, clan_name,
	resource_category, resource_type, resource_amount, card_name,
	referral_link, description, created_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.AuthorID,
		&t.Kind,
		&t.Reward,
		&t.Status,
		&t.ServerName,
		&t.ClanName,
		&t.ResourceCategory,
		&t.ResourceType,
		&t.ResourceAmount,
		&t.CardName,
		&t.ReferralLink,
		&t.Description,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a new active task.
func (r *TaskRepository) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	const query = `
		INSERT INTO tasks (author_id, kind, reward, status, server_name, clan_name,
			resource_category, resource_type, resource_amount, card_name,
			referral_link, description, created_at)
		VALUES ($1, $2, $3, 'active', $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING` + taskColumns

	created, err := scanTask(r.pool.QueryRow(ctx, query,
		task.AuthorID, task.Kind, task.Reward,
		task.ServerName, task.ClanName,
		task.ResourceCategory, task.ResourceType, task.ResourceAmount,
		task.CardName, task.ReferralLink, task.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// GetTask retrieves a task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	const query = `SELECT` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListActive retrieves active tasks of the given kind, newest first.
func (r *TaskRepository) ListActive(ctx context.Context, kind model.TaskKind, limit int) ([]*model.Task, error) {
	const query = `SELECT` + taskColumns + `
		FROM tasks
		WHERE status = 'active' AND kind = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask soft-deletes a task so it no longer appears in listings.
func (r *TaskRepository) DeleteTask(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE tasks SET status = 'deleted' WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

const submissionColumns = `
	id, user_id, task_id, kind, proof_file_id, status, admin_comment,
	submitted_at, reviewed_at, reviewed_by`

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	var s model.Submission
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TaskID,
		&s.Kind,
		&s.ProofFileID,
		&s.Status,
		&s.AdminComment,
		&s.SubmittedAt,
		&s.ReviewedAt,
		&s.ReviewedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubmission inserts a pending submission. The partial unique
// index forbids a second pending or completed submission for the same
// (user, task, kind); a rejected one does not block re-submission.
func (r *TaskRepository) CreateSubmission(ctx context.Context, userID, taskID int64, kind model.TaskKind, proofFileID string) (*model.Submission, error) {
	const query = `
		INSERT INTO submissions (user_id, task_id, kind, proof_file_id, status, submitted_at)
		VALUES ($1, $2, $3, $4, 'pending', NOW())
		RETURNING` + submissionColumns

	submission, err := scanSubmission(r.pool.QueryRow(ctx, query, userID, taskID, kind, proofFileID))
	if err != nil {
		if isUniqueViolation(err, "submissions_user_task_kind_active") {
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return submission, nil
}

// GetSubmission retrieves a submission by ID.
func (r *TaskRepository) GetSubmission(ctx context.Context, id int64) (*model.Submission, error) {
	const query = `SELECT` + submissionColumns + ` FROM submissions WHERE id = $1`

	submission, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

// ListPendingSubmissions retrieves pending submissions for review,
// oldest first.
func (r *TaskRepository) ListPendingSubmissions(ctx context.Context, limit int) ([]*model.Submission, error) {
	const query = `SELECT` + submissionColumns + `
		FROM submissions
		WHERE status = 'pending'
		ORDER BY submitted_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submissions: %w", err)
	}
	return submissions, nil
}

// ListSubmissionsByUser retrieves a user's submissions, newest first.
func (r *TaskRepository) ListSubmissionsByUser(ctx context.Context, userID int64, limit int) ([]*model.Submission, error) {
	const query = `SELECT` + submissionColumns + `
		FROM submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user submissions: %w", err)
	}
	defer rows.Close()

	var submissions []*model.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, submission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user submissions: %w", err)
	}
	return submissions, nil
}

// ApproveSubmission settles an approval in one transaction: the
// submission flips pending to completed, the submitter is credited the
// task reward, tasks_completed increments, and the parent task is marked
// completed.
func (r *TaskRepository) ApproveSubmission(ctx context.Context, submissionID, reviewerID int64) (*model.Submission, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const update = `
		UPDATE submissions
		SET status = 'completed', reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING` + submissionColumns

	submission, err := scanSubmission(tx.QueryRow(ctx, update, submissionID, reviewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.reviewConflict(ctx, submissionID)
		}
		return nil, fmt.Errorf("failed to approve submission: %w", err)
	}

	var reward int64
	err = tx.QueryRow(ctx, `SELECT reward FROM tasks WHERE id = $1`, submission.TaskID).Scan(&reward)
	if err != nil {
		return nil, fmt.Errorf("failed to get task reward: %w", err)
	}

	if _, err := adjustBalance(ctx, tx, submission.UserID, reward, model.CurrencyReal, model.ReasonTaskReward); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET tasks_completed = tasks_completed + 1, updated_at = NOW() WHERE user_id = $1
	`, submission.UserID); err != nil {
		return nil, fmt.Errorf("failed to increment tasks completed: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE tasks SET status = 'completed' WHERE id = $1
	`, submission.TaskID); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return submission, nil
}

// RejectSubmission flips a pending submission to rejected with an admin
// comment. No balance change; the user may submit again.
func (r *TaskRepository) RejectSubmission(ctx context.Context, submissionID, reviewerID int64, comment string) (*model.Submission, error) {
	const query = `
		UPDATE submissions
		SET status = 'rejected', admin_comment = $3, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING` + submissionColumns

	submission, err := scanSubmission(r.pool.QueryRow(ctx, query, submissionID, reviewerID, comment))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.reviewConflict(ctx, submissionID)
		}
		return nil, fmt.Errorf("failed to reject submission: %w", err)
	}
	return submission, nil
}

// reviewConflict distinguishes a missing submission from one already
// reviewed by a concurrent admin.
func (r *TaskRepository) reviewConflict(ctx context.Context, submissionID int64) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM submissions WHERE id = $1)`, submissionID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check submission existence: %w", err)
	}
	if !exists {
		return ErrSubmissionNotFound
	}
	return ErrSubmissionReviewed
}
