package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"oxide-coins-bot/internal/model"
	"oxide-coins-bot/internal/service"
)

// Questionnaires for the recruitment forms, asked one field at a time.
var playerQuestions = []string{
	"How old are you?",
	"How many hours do you have in the game?",
	"Your real name?",
	"Your in-game nickname?",
	"Which server do you play on?",
	"Previous clans? Send \"-\" if none.",
}

var clanQuestions = []string{
	"Clan name?",
	"Clan tag?",
	"When was the clan founded?",
	"Which server does the clan play on?",
	"Minimum hours required to join?",
}

// ProfileHandler handles the recruitment board: player and clan
// listings with an expiry.
type ProfileHandler struct {
	profiles *service.ProfileService
	state    *StateStore
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, state *StateStore) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, state: state}
}

// HandleMenu shows the recruitment board entry points.
func (h *ProfileHandler) HandleMenu(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Clear(sender.ID)

	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("🔍 Players looking for a clan", "profiles_players")),
		m.Row(m.Data("🏰 Clans recruiting", "profiles_clans")),
		m.Row(
			m.Data("📝 List myself", "profile_new_player"),
			m.Data("📣 List my clan", "profile_new_clan"),
		),
		backRow(m, "menu_main"),
	)
	return c.Edit("👥 Recruitment board\n\nListings expire on their own, repost to stay visible.", m)
}

// HandlePlayers shows active player listings.
func (h *ProfileHandler) HandlePlayers(c tele.Context) error {
	players, err := h.profiles.Players(context.Background(), 20)
	if err != nil {
		return c.Edit("❌ Could not load listings, try again later", backMenu("menu_profiles"))
	}
	if len(players) == 0 {
		return c.Edit("🔍 Nobody is looking for a clan right now.", backMenu("menu_profiles"))
	}

	var b strings.Builder
	b.WriteString("🔍 Players looking for a clan\n\n")
	for _, p := range players {
		fmt.Fprintf(&b, "👤 %s (%s), %d y.o.\n", p.Nickname, p.RealName, p.Age)
		fmt.Fprintf(&b, "🖥 Server: %s | ⏱ Hours: %s\n", p.Server, p.HoursPlayed)
		if p.PrevClans != "" && p.PrevClans != "-" {
			fmt.Fprintf(&b, "🏰 Past clans: %s\n", p.PrevClans)
		}
		fmt.Fprintf(&b, "📅 Until %s\n\n", p.ExpiresAt.Format("02.01.2006"))
	}
	return c.Edit(b.String(), backMenu("menu_profiles"))
}

// HandleClans shows active clan listings.
func (h *ProfileHandler) HandleClans(c tele.Context) error {
	clans, err := h.profiles.Clans(context.Background(), 20)
	if err != nil {
		return c.Edit("❌ Could not load listings, try again later", backMenu("menu_profiles"))
	}
	if len(clans) == 0 {
		return c.Edit("🏰 No clans are recruiting right now.", backMenu("menu_profiles"))
	}

	var b strings.Builder
	b.WriteString("🏰 Clans recruiting\n\n")
	for _, cl := range clans {
		fmt.Fprintf(&b, "🏰 [%s] %s\n", cl.ClanTag, cl.ClanName)
		fmt.Fprintf(&b, "🖥 Server: %s | 📅 Founded: %s\n", cl.Server, cl.FoundedDate)
		fmt.Fprintf(&b, "⏱ Hours required: %d\n", cl.HoursRequired)
		fmt.Fprintf(&b, "📅 Until %s\n\n", cl.ExpiresAt.Format("02.01.2006"))
	}
	return c.Edit(b.String(), backMenu("menu_profiles"))
}

// HandleNewPlayer starts the player listing form.
func (h *ProfileHandler) HandleNewPlayer(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Set(sender.ID, StepPlayerProfile, &ProfileDraft{})
	return c.Edit("📝 Player listing\n\n"+playerQuestions[0], backMenu("menu_profiles"))
}

// HandleNewClan starts the clan listing form.
func (h *ProfileHandler) HandleNewClan(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	h.state.Set(sender.ID, StepClanProfile, &ProfileDraft{})
	return c.Edit("📣 Clan listing\n\n"+clanQuestions[0], backMenu("menu_profiles"))
}

// HandlePlayerText consumes one player form answer.
func (h *ProfileHandler) HandlePlayerText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	pd, ok := draft.(*ProfileDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	answer := strings.TrimSpace(c.Text())
	if answer == "" {
		return c.Send("⚠️ Send a text answer")
	}
	// Age and hours are validated up front, the rest is free text.
	if pd.Field == 0 {
		age, err := strconv.Atoi(answer)
		if err != nil || age < 10 || age > 99 {
			return c.Send("⚠️ Send your age as a number")
		}
	}
	pd.Answers = append(pd.Answers, answer)
	pd.Field++

	if pd.Field < len(playerQuestions) {
		return c.Send(playerQuestions[pd.Field])
	}
	h.state.Clear(sender.ID)

	age, _ := strconv.Atoi(pd.Answers[0])
	profile, err := h.profiles.PublishPlayer(context.Background(), &model.PlayerProfile{
		UserID:      sender.ID,
		Age:         age,
		HoursPlayed: pd.Answers[1],
		RealName:    pd.Answers[2],
		Nickname:    pd.Answers[3],
		Server:      pd.Answers[4],
		PrevClans:   pd.Answers[5],
	})
	if err != nil {
		return c.Send("❌ Could not publish the listing, try again later")
	}
	return c.Send(fmt.Sprintf(
		"✅ Listing published! It stays on the board until %s.",
		profile.ExpiresAt.Format("02.01.2006")))
}

// HandleClanText consumes one clan form answer.
func (h *ProfileHandler) HandleClanText(c tele.Context, draft Draft) error {
	sender := c.Sender()
	pd, ok := draft.(*ProfileDraft)
	if !ok {
		h.state.Clear(sender.ID)
		return nil
	}

	answer := strings.TrimSpace(c.Text())
	if answer == "" {
		return c.Send("⚠️ Send a text answer")
	}
	if pd.Field == len(clanQuestions)-1 {
		if _, err := strconv.Atoi(answer); err != nil {
			return c.Send("⚠️ Send the hour requirement as a number")
		}
	}
	pd.Answers = append(pd.Answers, answer)
	pd.Field++

	if pd.Field < len(clanQuestions) {
		return c.Send(clanQuestions[pd.Field])
	}
	h.state.Clear(sender.ID)

	hours, _ := strconv.Atoi(pd.Answers[4])
	profile, err := h.profiles.PublishClan(context.Background(), &model.ClanProfile{
		UserID:        sender.ID,
		ClanName:      pd.Answers[0],
		ClanTag:       pd.Answers[1],
		FoundedDate:   pd.Answers[2],
		Server:        pd.Answers[3],
		HoursRequired: hours,
	})
	if err != nil {
		return c.Send("❌ Could not publish the listing, try again later")
	}
	return c.Send(fmt.Sprintf(
		"✅ Clan listing published! It stays on the board until %s.",
		profile.ExpiresAt.Format("02.01.2006")))
}
