package service

import (
	"context"
	"errors"
	"fmt"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/pkg/lock"
	"oxide-coins-bot/internal/repository"
)

// TaskService handles admin-authored tasks and their submissions.
type TaskService struct {
	tasks    *repository.TaskRepository
	userLock *lock.KeyedLock
}

// NewTaskService creates a new TaskService instance.
func NewTaskService(tasks *repository.TaskRepository, userLock *lock.KeyedLock) *TaskService {
	return &TaskService{tasks: tasks, userLock: userLock}
}

// CreateResourceTask publishes a resource-haul task.
func (s *TaskService) CreateResourceTask(ctx context.Context, authorID int64, server, clan, category, resourceType string, amount, reward int64, description string) (*model.Task, error) {
	if reward <= 0 {
		return nil, ErrInvalidReward
	}
	task := &model.Task{
		AuthorID:         authorID,
		Kind:             model.TaskKindResource,
		Reward:           reward,
		ServerName:       server,
		ClanName:         clan,
		ResourceCategory: category,
		ResourceType:     resourceType,
		ResourceAmount:   amount,
		Description:      description,
	}
	return s.tasks.CreateTask(ctx, task)
}

// CreateCardTask publishes a referral-card task.
func (s *TaskService) CreateCardTask(ctx context.Context, authorID int64, cardName, referralLink string, reward int64, description string) (*model.Task, error) {
	if reward <= 0 {
		return nil, ErrInvalidReward
	}
	task := &model.Task{
		AuthorID:     authorID,
		Kind:         model.TaskKindCard,
		Reward:       reward,
		CardName:     cardName,
		ReferralLink: referralLink,
		Description:  description,
	}
	return s.tasks.CreateTask(ctx, task)
}

// Get retrieves a task by ID.
func (s *TaskService) Get(ctx context.Context, taskID int64) (*model.Task, error) {
	return s.tasks.GetTask(ctx, taskID)
}

// ListActive retrieves active tasks of a kind for the task board.
func (s *TaskService) ListActive(ctx context.Context, kind model.TaskKind, limit int) ([]*model.Task, error) {
	return s.tasks.ListActive(ctx, kind, limit)
}

// Delete soft-deletes a task. Pending submissions stay reviewable.
func (s *TaskService) Delete(ctx context.Context, taskID int64) error {
	return s.tasks.DeleteTask(ctx, taskID)
}

// Submit records a user's photo-proof claim on an active task. At most one
// pending or completed submission per user, task and kind is allowed.
func (s *TaskService) Submit(ctx context.Context, userID, taskID int64, proofFileID string) (*model.Submission, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TaskActive {
		return nil, repository.ErrTaskNotActive
	}

	sub, err := s.tasks.CreateSubmission(ctx, userID, taskID, task.Kind, proofFileID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSubmission) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to submit proof: %w", err)
	}
	return sub, nil
}

// GetSubmission retrieves a submission by ID.
func (s *TaskService) GetSubmission(ctx context.Context, submissionID int64) (*model.Submission, error) {
	return s.tasks.GetSubmission(ctx, submissionID)
}

// PendingSubmissions retrieves submissions awaiting review, oldest first.
func (s *TaskService) PendingSubmissions(ctx context.Context, limit int) ([]*model.Submission, error) {
	return s.tasks.ListPendingSubmissions(ctx, limit)
}

// MySubmissions retrieves a user's own submissions, newest first.
func (s *TaskService) MySubmissions(ctx context.Context, userID int64, limit int) ([]*model.Submission, error) {
	return s.tasks.ListSubmissionsByUser(ctx, userID, limit)
}

// Approve completes a pending submission, pays the task reward, bumps the
// submitter's completion counter and completes the parent task, all in one
// settlement.
func (s *TaskService) Approve(ctx context.Context, submissionID, reviewerID int64) (*model.Submission, error) {
	sub, err := s.tasks.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	s.userLock.Lock(sub.UserID)
	defer s.userLock.Unlock(sub.UserID)

	return s.tasks.ApproveSubmission(ctx, submissionID, reviewerID)
}

// Reject marks a pending submission rejected with the reviewer's comment.
// The user may submit the same task again afterwards.
func (s *TaskService) Reject(ctx context.Context, submissionID, reviewerID int64, comment string) (*model.Submission, error) {
	return s.tasks.RejectSubmission(ctx, submissionID, reviewerID, comment)
}
