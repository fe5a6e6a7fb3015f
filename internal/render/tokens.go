package render

import (
	"github.com/m3rciful/likebot/core/telegram/callbacks"
	"github.com/m3rciful/likebot/internal/likes"
)

// Kind is the action a callback button asks for.
type Kind string

const (
	Unrecognized      Kind = ""
	CreateLike        Kind = "create_like"
	ChannelSettings   Kind = "channel_settings"
	LikeStats         Kind = "like_stats"
	ViewChannel       Kind = "view_channel"
	BackToMenu        Kind = "back_to_menu"
	CheckSubscription Kind = "check_subscription"
	Share             Kind = "share"
	Vote              Kind = "vote"
	VoteGated         Kind = "vote_sub"
	Recheck           Kind = "recheck"
)

// Kinds lists every recognized kind in registration order.
func Kinds() []Kind {
	return []Kind{
		CreateLike, ChannelSettings, LikeStats, ViewChannel, BackToMenu,
		CheckSubscription, Share, Vote, VoteGated, Recheck,
	}
}

// TakesLike reports whether tokens of this kind carry a Like id.
func (k Kind) TakesLike() bool {
	switch k {
	case Share, Vote, VoteGated, Recheck:
		return true
	}
	return false
}

// Action is a decoded callback token.
type Action struct {
	Kind   Kind
	LikeID string
}

// Token encodes kind and, for Like actions, the id.
func Token(kind Kind, likeID string) string {
	if !kind.TakesLike() {
		likeID = ""
	}
	return callbacks.Join(string(kind), likeID)
}

// ParseToken decodes callback data. Unknown kinds, a missing or malformed
// Like id and unexpected payloads all yield Unrecognized.
func ParseToken(data string) Action {
	key, payload := callbacks.Split(data)
	kind := Kind(key)
	switch {
	case kind == Unrecognized:
		return Action{}
	case kind.TakesLike():
		if !likes.ValidID(payload) {
			return Action{}
		}
		return Action{Kind: kind, LikeID: payload}
	}
	for _, k := range Kinds() {
		if k == kind && payload == "" {
			return Action{Kind: kind}
		}
	}
	return Action{}
}
