package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/config"
	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/repository"
	"oxide-coins-bot/internal/service"
)

const tasksPerPage = 6

// TaskHandler handles the task board and proof submission.
type TaskHandler struct {
	cfg   *config.Config
	tasks *service.TaskService
	state *StateStore
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(cfg *config.Config, tasks *service.TaskService, state *StateStore) *TaskHandler {
	return &TaskHandler{cfg: cfg, tasks: tasks, state: state}
}

// HandleMenu shows the task board entry menu.
func (h *TaskHandler) HandleMenu(c tele.Context) error {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("⛏ Resource tasks", "tasks_resource", "0")),
		m.Row(m.Data("💳 Card tasks", "tasks_card", "0")),
		m.Row(m.Data("📤 My submissions", "tasks_mine")),
		backRow(m, "menu_main"),
	)
	return c.Edit("📋 Tasks\n\nComplete tasks, attach photo proof, get paid after review.", m)
}

// HandleList shows one page of active tasks of a kind.
func (h *TaskHandler) HandleList(c tele.Context, kind model.TaskKind, payload string) error {
	page, _ := strconv.Atoi(payload)
	if page < 0 {
		page = 0
	}

	all, err := h.tasks.ListActive(context.Background(), kind, 100)
	if err != nil {
		return c.Edit("❌ Could not load tasks")
	}

	start := page * tasksPerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + tasksPerPage
	if end > len(all) {
		end = len(all)
	}
	pageTasks := all[start:end]

	unique := "tasks_resource"
	title := "⛏ Resource tasks"
	if kind == model.TaskKindCard {
		unique = "tasks_card"
		title = "💳 Card tasks"
	}

	if len(pageTasks) == 0 {
		return c.Edit(title+"\n\nNothing here right now, check back later.", backMenu("menu_tasks"))
	}

	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, t := range pageTasks {
		label := fmt.Sprintf("⛏ %s x%d | 💰%d", t.ResourceType, t.ResourceAmount, t.Reward)
		if t.Kind == model.TaskKindCard {
			name := t.CardName
			if len(name) > 20 {
				name = name[:20]
			}
			label = fmt.Sprintf("💳 %s | 💰%d", name, t.Reward)
		}
		rows = append(rows, m.Row(m.Data(label, "task_view", fmt.Sprint(t.ID))))
	}
	if nav := pager(m, unique, page, len(pageTasks), tasksPerPage); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, backRow(m, "menu_tasks"))
	m.Inline(rows...)

	return c.Edit(fmt.Sprintf("%s (page %d)", title, page+1), m)
}

// HandleView shows one task with a submit button.
func (h *TaskHandler) HandleView(c tele.Context, payload string) error {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Bad task reference"})
	}

	task, err := h.tasks.Get(context.Background(), id)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Task not found", ShowAlert: true})
	}

	var b strings.Builder
	if task.Kind == model.TaskKindResource {
		fmt.Fprintf(&b, "⛏ Resource task #%d\n━━━━━━━━━━━━━━━\n", task.ID)
		fmt.Fprintf(&b, "🌐 Server: %s\n🏰 Clan: %s\n", task.ServerName, task.ClanName)
		fmt.Fprintf(&b, "📦 Deliver: %s / %s x%d\n", task.ResourceCategory, task.ResourceType, task.ResourceAmount)
	} else {
		fmt.Fprintf(&b, "💳 Card task #%d\n━━━━━━━━━━━━━━━\n", task.ID)
		fmt.Fprintf(&b, "🃏 Card: %s\n🔗 Link: %s\n", task.CardName, task.ReferralLink)
	}
	if task.Description != "" {
		fmt.Fprintf(&b, "📝 %s\n", task.Description)
	}
	fmt.Fprintf(&b, "\n💰 Reward: %d coins", task.Reward)

	back := "tasks_resource"
	if task.Kind == model.TaskKindCard {
		back = "tasks_card"
	}
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("📤 Submit proof", "task_submit", fmt.Sprint(task.ID))),
		m.Row(m.Data("⬅️ Back", back, "0")),
	)
	return c.Edit(b.String(), m)
}

// HandleMine lists the sender's recent submissions with their review
// status.
func (h *TaskHandler) HandleMine(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	subs, err := h.tasks.MySubmissions(context.Background(), sender.ID, 10)
	if err != nil {
		return c.Edit("❌ Could not load your submissions")
	}
	if len(subs) == 0 {
		return c.Edit("📤 My submissions\n\nYou have not submitted anything yet.", backMenu("menu_tasks"))
	}

	var b strings.Builder
	b.WriteString("📤 My submissions\n━━━━━━━━━━━━━━━\n")
	for _, s := range subs {
		icon := "⏳"
		switch s.Status {
		case model.SubmissionCompleted:
			icon = "✅"
		case model.SubmissionRejected:
			icon = "❌"
		}
		fmt.Fprintf(&b, "%s #%d | task #%d | %s\n", icon, s.ID, s.TaskID, s.SubmittedAt.Format("02.01.2006"))
		if s.Status == model.SubmissionRejected && s.AdminComment != nil && *s.AdminComment != "" {
			fmt.Fprintf(&b, "   💬 %s\n", *s.AdminComment)
		}
	}
	return c.Edit(b.String(), backMenu("menu_tasks"))
}

// HandleSubmit starts the proof upload for a task.
func (h *TaskHandler) HandleSubmit(c tele.Context, payload string) error {
	sender := c.Sender()
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || sender == nil {
		return nil
	}

	h.state.Set(sender.ID, StepTaskProof, &TaskSubmitDraft{TaskID: id})
	return c.Edit("📸 Send a photo proving you completed the task.", backMenu("menu_tasks"))
}

// HandleProofPhoto consumes the proof photo and files the submission.
func (h *TaskHandler) HandleProofPhoto(c tele.Context, draft Draft) error {
	sender := c.Sender()
	td, ok := draft.(*TaskSubmitDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	photo := c.Message().Photo
	if photo == nil {
		return c.Send("⚠️ That has to be a photo")
	}

	ctx := context.Background()
	sub, err := h.tasks.Submit(ctx, sender.ID, td.TaskID, photo.FileID)
	if err != nil {
		h.state.Clear(sender.ID)
		switch {
		case errors.Is(err, repository.ErrDuplicateSubmission):
			return c.Send("⚠️ You already submitted this task, wait for the review.")
		case errors.Is(err, repository.ErrTaskNotActive), errors.Is(err, repository.ErrTaskNotFound):
			return c.Send("❌ This task is no longer available.")
		}
		return c.Send("❌ Could not file your submission, try again later")
	}
	h.state.Clear(sender.ID)

	h.notifyReviewChannel(c, sub)

	return c.Send(fmt.Sprintf("✅ Submission #%d filed!\n\n⏳ An admin will review it shortly.", sub.ID))
}

// notifyReviewChannel forwards the proof to the review channel with
// approve and reject buttons. Best effort, settlement does not depend on
// it.
func (h *TaskHandler) notifyReviewChannel(c tele.Context, sub *model.Submission) {
	if h.cfg.Bot.ReviewChannel == 0 {
		return
	}

	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data("✅ Approve", "adm_sub_ok", fmt.Sprint(sub.ID)),
		m.Data("❌ Reject", "adm_sub_no", fmt.Sprint(sub.ID)),
	))

	caption := fmt.Sprintf("📥 Submission #%d\n👤 User %d\n📋 Task #%d (%s)",
		sub.ID, sub.UserID, sub.TaskID, sub.Kind)
	photo := &tele.Photo{File: tele.File{FileID: sub.ProofFileID}, Caption: caption}
	_, _ = c.Bot().Send(tele.ChatID(h.cfg.Bot.ReviewChannel), photo, m)
}
