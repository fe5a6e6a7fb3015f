package dialog

import (
	tghelpers "github.com/m3rciful/likebot/core/telegram/helpers"
	"github.com/m3rciful/likebot/internal/likes"

	tele "gopkg.in/telebot.v4"
)

// Presenter replies to the user once Submit has run.
type Presenter func(c tele.Context, res Result) error

// Conversation exposes a Machine to the update router.
type Conversation struct {
	*Machine
	present Presenter
}

// Conversation binds the machine to a presenter.
func (m *Machine) Conversation(present Presenter) *Conversation {
	return &Conversation{Machine: m, present: present}
}

// Handle submits the message text of the sender.
func (c *Conversation) Handle(tc tele.Context) error {
	sender := tc.Sender()
	if sender == nil {
		return nil
	}
	res, err := c.Submit(tghelpers.BuildContext(tc), Input{
		Owner: likes.Owner{ID: sender.ID, DisplayName: tghelpers.DisplayName(sender)},
		Text:  tc.Text(),
	})
	if err != nil {
		return err
	}
	switch res.Kind {
	case Ignored:
		tghelpers.SetOutcome(tc, "ignored")
		return nil
	case Invalid:
		tghelpers.SetOutcome(tc, "invalid")
	}
	if c.present == nil {
		return nil
	}
	return c.present(tc, res)
}
