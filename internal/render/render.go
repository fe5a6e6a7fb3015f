// Package render builds every message the bot sends. Functions are pure:
// the same inputs always give the same View.
package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/likebot/core/telegram/format"
	"github.com/m3rciful/likebot/internal/likes"
)

// Button is one inline button. Exactly one of URL, Action and SwitchInline is set.
type Button struct {
	Label        string
	URL          string
	Action       string
	SwitchInline string
}

// View is a legacy Markdown message with an inline keyboard.
type View struct {
	Text     string
	Keyboard [][]Button
}

// Callback answers, sent as plain text.
const (
	NoticeVoted              = "✅ Your like was counted!"
	NoticeAlreadyVoted       = "You have already liked this!"
	NoticeNotFound           = "This like was not found!"
	NoticeCannotVerify       = "Cannot verify your channel membership right now. Please try again later."
	NoticeStillNotSubscribed = "You have not joined the channel yet! Join it first."
	NoticeFailure            = "Something went wrong. Please try again."
	NoticeRateLimited        = "Too many requests. Please slow down."
	NoticeAdminOnly          = "This command is not available."
)

// NoticeNotSubscribed asks the voter to join channel.
func NoticeNotSubscribed(channel string) string {
	return fmt.Sprintf("You must join %s to like this!", channel)
}

// ChannelURL links to a public channel handle.
func ChannelURL(handle string) string {
	return "https://t.me/" + strings.TrimPrefix(handle, "@")
}

func action(label string, kind Kind, likeID string) Button {
	return Button{Label: label, Action: Token(kind, likeID)}
}

func back(label string) []Button {
	return []Button{action(label, BackToMenu, "")}
}

func voteButton(like *likes.Like, gated bool) Button {
	if gated {
		return action("Like (members only) 👍", VoteGated, like.ID)
	}
	return action("Like 👍", Vote, like.ID)
}

// MainMenu greets name; a bound channel adds a row showing it.
func MainMenu(name, channel string) View {
	kb := [][]Button{
		{action("Create like 🎯", CreateLike, "")},
		{action("Channel settings ⚙️", ChannelSettings, "")},
		{action("Like stats 📊", LikeStats, "")},
	}
	if channel != "" {
		kb = append(kb, []Button{action("Channel: "+channel, ViewChannel, "")})
	}
	return View{
		Text:     fmt.Sprintf("Hi %s! 👋\n\nWelcome to the like bot!\n\nWhat would you like to do?", format.Escape(name)),
		Keyboard: kb,
	}
}

// SubscribeRequired is shown by /start while the user is outside the required channel.
func SubscribeRequired(name, channel string) View {
	return View{
		Text: fmt.Sprintf("Hi %s! 👋\n\nTo use the like bot, join our channel first:\n\n%s",
			format.Escape(name), format.Escape(channel)),
		Keyboard: [][]Button{
			{{Label: "Join channel 📢", URL: ChannelURL(channel)}},
			{action("Check membership ✅", CheckSubscription, "")},
		},
	}
}

// CreateLikePrompt asks for the name of a new Like.
func CreateLikePrompt(maxName int) View {
	return View{
		Text:     fmt.Sprintf("Send the name of your like (up to %d characters).\n\nExample: My like, New product, Video", maxName),
		Keyboard: [][]Button{back("🔙 Back")},
	}
}

// LikeNameInvalid keeps the user in the naming step.
func LikeNameInvalid(maxName int) View {
	return View{
		Text:     fmt.Sprintf("The name must be 1 to %d characters long. Send another name:", maxName),
		Keyboard: [][]Button{back("🔙 Back")},
	}
}

// LikeCreated confirms creation and offers the banner.
func LikeCreated(like *likes.Like, gated bool) View {
	return View{
		Text: fmt.Sprintf("✅ Your like has been created!\n\n📝 Name: %s\n🆔 ID: `%s`\n\nNow you can share its banner:",
			format.Escape(like.Name), like.ID),
		Keyboard: [][]Button{
			{action("Share banner 📢", Share, like.ID)},
			{voteButton(like, gated)},
			back("🔙 Back to menu"),
		},
	}
}

// Banner is the shareable message voters press.
func Banner(like *likes.Like, gated bool) View {
	return View{
		Text: fmt.Sprintf("🎯 Like: %s\n\n👤 Creator: %s\n❤️ Likes: %d\n\nTap the button below to like:",
			format.Escape(like.Name), format.Escape(like.OwnerName), like.Likes),
		Keyboard: [][]Button{
			{voteButton(like, gated)},
			{{Label: "Share ↗️", SwitchInline: like.ID}},
		},
	}
}

// ChannelPrompt asks for a channel handle, showing the current one if any.
func ChannelPrompt(current string) View {
	var b strings.Builder
	b.WriteString("⚙️ Channel settings\n\n")
	if current != "" {
		fmt.Fprintf(&b, "Current channel: %s\n\nSend a new channel name to change it:", format.Escape(current))
	} else {
		b.WriteString("No channel is set.\n\nSend a channel name to set one:")
	}
	return View{Text: b.String(), Keyboard: [][]Button{back("🔙 Back")}}
}

// ChannelInvalid keeps the user in the channel step.
func ChannelInvalid() View {
	return View{
		Text:     "The channel name must be at least 3 characters long!",
		Keyboard: [][]Button{back("🔙 Back")},
	}
}

// ChannelSaved confirms the binding.
func ChannelSaved(handle string) View {
	return View{
		Text: fmt.Sprintf("✅ Channel %s has been set!\n\nVotes on your likes now require membership in this channel.",
			format.Escape(handle)),
		Keyboard: [][]Button{back("🔙 Back to menu")},
	}
}

// ChannelView shows the bound channel.
func ChannelView(handle string) View {
	return View{
		Text: fmt.Sprintf("📢 Your channel: %s\n\nOnly its members can vote on your likes.", format.Escape(handle)),
		Keyboard: [][]Button{
			{{Label: "Open channel", URL: ChannelURL(handle)}},
			{action("Change channel ⚙️", ChannelSettings, "")},
			back("🔙 Back"),
		},
	}
}

// Stats lists the owner's newest Likes; limit is the listing cap.
func Stats(st likes.Stats, limit int) View {
	var b strings.Builder
	b.WriteString("📊 Your like statistics\n\n")
	if st.Total == 0 {
		b.WriteString("You have not created any likes yet.")
	} else {
		fmt.Fprintf(&b, "Likes created: %d\n\n", st.Total)
		for i, like := range st.Recent {
			fmt.Fprintf(&b, "%d. %s - %d likes\n", i+1, format.Escape(like.Name), like.Likes)
		}
		if st.Total > limit {
			fmt.Fprintf(&b, "\n...and %d more", st.Total-limit)
		}
	}
	return View{Text: b.String(), Keyboard: [][]Button{back("🔙 Back")}}
}

// SubscribeToVote follows a rejected gated vote.
func SubscribeToVote(channel, likeID string, unverified bool) View {
	text := fmt.Sprintf("To like this, join %s first.", format.Escape(channel))
	if unverified {
		text = fmt.Sprintf("⚠️ Cannot verify your membership in %s. Join the channel and check again.", format.Escape(channel))
	}
	return View{
		Text: text,
		Keyboard: [][]Button{
			{{Label: "Join channel 📢", URL: ChannelURL(channel)}},
			{action("Check again ✅", Recheck, likeID)},
		},
	}
}

// Help describes the commands.
func Help() View {
	return View{
		Text: "*Like bot*\n\n" +
			"/start - open the menu\n" +
			"/help - show this message\n" +
			"/cancel - stop the current step\n\n" +
			"Create a like and share its banner to collect votes. " +
			"Set a channel to count only votes from its members.",
		Keyboard: [][]Button{back("🔙 Menu")},
	}
}

// Version reports build information to the admin.
func Version(summary string) View {
	return View{Text: "Build: `" + strings.ReplaceAll(summary, "`", "'") + "`"}
}
