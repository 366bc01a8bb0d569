package domain

import "time"

// ReferralStatus is the stage of an invitation. Transitions are
// one-directional: pending → signed_up → bot_hired. "completed" is a
// reporting synonym for bot_hired and never stored.
type ReferralStatus string

const (
	ReferralPending  ReferralStatus = "pending"
	ReferralSignedUp ReferralStatus = "signed_up"
	ReferralBotHired ReferralStatus = "bot_hired"
)

// ReportingLabel maps the terminal stage onto the label used in
// user-facing reporting.
func (s ReferralStatus) ReportingLabel() string {
	if s == ReferralBotHired {
		return "completed"
	}
	return string(s)
}

// Referral is one generated invitation code and its funnel state.
// InvitedUserID is set exactly once, on the first successful signup
// redemption. Each reward flag flips false→true at most once, and
// HireRewardGiven only after SignupRewardGiven.
type Referral struct {
	Code              string         `json:"code"`
	ReferrerID        string         `json:"referrer_id"`
	InvitedUserID     string         `json:"invited_user_id,omitempty"`
	Status            ReferralStatus `json:"status"`
	SignupRewardGiven bool           `json:"signup_reward_given"`
	HireRewardGiven   bool           `json:"hire_reward_given"`
	CreatedAt         time.Time      `json:"created_at"`
	SignedUpAt        time.Time      `json:"signed_up_at,omitempty"`
	HiredAt           time.Time      `json:"hired_at,omitempty"`
}

// ReferralCodeAlphabet is the 32-symbol alphabet for invitation codes.
// Visually ambiguous characters (0/O, 1/I) are excluded.
const ReferralCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// ReferralCodeLength is the fixed length of invitation codes.
const ReferralCodeLength = 8
