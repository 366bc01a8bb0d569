package domain

import (
	"fmt"
	"time"
)

// ActionKind is an engagement action reported by the platform
// (bot-hire, forum-post, file-upload, chat events).
type ActionKind string

const (
	ActionChat       ActionKind = "chat"
	ActionHireBot    ActionKind = "hire_bot"
	ActionForumPost  ActionKind = "forum_post"
	ActionUploadFile ActionKind = "upload_file"
)

// ValidActionKind reports whether k names a known action.
func ValidActionKind(k ActionKind) bool {
	switch k {
	case ActionChat, ActionHireBot, ActionForumPost, ActionUploadFile:
		return true
	}
	return false
}

// Requirement is a closed variant describing what a daily challenge
// asks for. Each variant binds an action kind to a target count; the
// engine decodes it once at the boundary instead of carrying loose
// JSON through the rules.
type Requirement interface {
	Action() ActionKind
	Target() int
	Describe() string
}

// ChatWithBots requires N chat messages today.
type ChatWithBots struct{ Count int }

// HireBots requires N bot hires today.
type HireBots struct{ Count int }

// ForumPosts requires N forum posts today.
type ForumPosts struct{ Count int }

// UploadFiles requires N file uploads today.
type UploadFiles struct{ Count int }

func (r ChatWithBots) Action() ActionKind { return ActionChat }
func (r ChatWithBots) Target() int        { return r.Count }
func (r ChatWithBots) Describe() string   { return plural("Chat with %d bot", "Chat with %d bots", r.Count) }

func (r HireBots) Action() ActionKind { return ActionHireBot }
func (r HireBots) Target() int        { return r.Count }
func (r HireBots) Describe() string   { return plural("Hire %d bot", "Hire %d bots", r.Count) }

func (r ForumPosts) Action() ActionKind { return ActionForumPost }
func (r ForumPosts) Target() int        { return r.Count }
func (r ForumPosts) Describe() string   { return plural("Write %d forum post", "Write %d forum posts", r.Count) }

func (r UploadFiles) Action() ActionKind { return ActionUploadFile }
func (r UploadFiles) Target() int        { return r.Count }
func (r UploadFiles) Describe() string   { return plural("Upload %d file", "Upload %d files", r.Count) }

// RequirementFor reconstructs the variant for a stored (kind, target)
// pair. Unknown kinds fall back to a chat requirement so old rows stay
// readable.
func RequirementFor(kind ActionKind, target int) Requirement {
	switch kind {
	case ActionHireBot:
		return HireBots{Count: target}
	case ActionForumPost:
		return ForumPosts{Count: target}
	case ActionUploadFile:
		return UploadFiles{Count: target}
	default:
		return ChatWithBots{Count: target}
	}
}

func plural(one, many string, n int) string {
	if n == 1 {
		return fmt.Sprintf(one, n)
	}
	return fmt.Sprintf(many, n)
}

// Challenge is a user's challenge for one UTC calendar day.
type Challenge struct {
	UserID        string      `json:"user_id"`
	Day           string      `json:"day"` // DayKey, "YYYY-MM-DD"
	Requirement   Requirement `json:"-"`
	Description   string      `json:"description"`
	Progress      int         `json:"progress"`
	Completed     bool        `json:"completed"`
	RewardCredits int         `json:"reward_credits"`
	CreatedAt     time.Time   `json:"created_at"`
}
