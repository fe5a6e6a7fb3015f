package ui

import tele "gopkg.in/telebot.v4"

// ArticleResult builds an inline-mode article that posts text as legacy
// Markdown with the given keyboard attached.
func ArticleResult(id, title, description, text string, markup *tele.ReplyMarkup) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Description: description,
	}
	result.SetResultID(id)
	result.SetContent(&tele.InputTextMessageContent{
		Text:      text,
		ParseMode: tele.ModeMarkdown,
	})
	if markup != nil {
		result.SetReplyMarkup(markup)
	}
	return result
}
