package handlers

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"podplay/internal/models"
)

// StartTelegramBot answers bot messages until ctx is done. Replies are sent
// from repository callbacks, which run on the UI loop.
func (h *Handlers) StartTelegramBot(ctx context.Context, token string) error {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("failed to start telegram bot: %w", err)
	}
	log.WithField("account", bot.Self.UserName).Info("telegram bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil { // ignore any non-Message updates
				continue
			}
			h.handleTelegramMessage(ctx, bot, update.Message)
		}
	}
}

func (h *Handlers) handleTelegramMessage(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	log.WithFields(log.Fields{"user": message.From.UserName, "text": message.Text}).Debug("telegram message")

	reply := func(text string) {
		msg := tgbotapi.NewMessage(message.Chat.ID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := bot.Send(msg); err != nil {
			log.WithError(err).Error("error sending telegram message")
		}
	}

	if !message.IsCommand() {
		feedURL := strings.TrimSpace(message.Text)
		if !validFeedURL(feedURL) {
			reply("Send me a podcast feed URL, or use /subscribe, /unsubscribe or /list.")
			return
		}
		h.podcasts.GetPodcast(ctx, feedURL, func(p *models.Podcast) {
			reply(formatPodcast(p))
		})
		return
	}

	switch message.Command() {
	case "start", "help":
		reply("Send me a podcast feed URL to preview it.\n/subscribe &lt;url&gt;\n/unsubscribe &lt;url&gt;\n/list")
	case "list":
		podcasts, err := h.podcasts.GetAll().Snapshot(ctx)
		if err != nil {
			log.WithError(err).Error("error getting podcasts")
			reply("Internal server error")
			return
		}
		reply(formatPodcastList(podcasts, h.baseURL))
	case "subscribe":
		h.subscribe(ctx, strings.TrimSpace(message.CommandArguments()), reply)
	case "unsubscribe":
		h.unsubscribe(ctx, strings.TrimSpace(message.CommandArguments()), reply)
	default:
		reply("I don't know that command")
	}
}

func (h *Handlers) subscribe(ctx context.Context, feedURL string, reply func(string)) {
	if !validFeedURL(feedURL) {
		reply("Usage: /subscribe &lt;feed url&gt;")
		return
	}

	h.podcasts.GetPodcast(ctx, feedURL, func(p *models.Podcast) {
		switch {
		case p == nil:
			reply("Could not load a podcast from that URL.")
		case p.Saved():
			reply("You are already subscribed to <b>" + html.EscapeString(p.FeedTitle) + "</b>.")
		default:
			done := h.podcasts.Save(ctx, p)
			go func() {
				err := <-done
				h.ui.Dispatch(func() {
					if err != nil {
						reply("Failed to subscribe.")
						return
					}
					reply("Subscribed to <b>" + html.EscapeString(p.FeedTitle) + "</b>.")
				})
			}()
		}
	})
}

func (h *Handlers) unsubscribe(ctx context.Context, feedURL string, reply func(string)) {
	if !validFeedURL(feedURL) {
		reply("Usage: /unsubscribe &lt;feed url&gt;")
		return
	}

	h.podcasts.GetPodcast(ctx, feedURL, func(p *models.Podcast) {
		if p == nil || !p.Saved() {
			reply("You are not subscribed to that podcast.")
			return
		}
		done := h.podcasts.Delete(ctx, p)
		go func() {
			err := <-done
			h.ui.Dispatch(func() {
				if err != nil {
					reply("Failed to unsubscribe.")
					return
				}
				reply("Unsubscribed from <b>" + html.EscapeString(p.FeedTitle) + "</b>.")
			})
		}()
	})
}

func validFeedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func formatPodcast(p *models.Podcast) string {
	if p == nil {
		return "Could not load a podcast from that URL."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(p.FeedTitle))
	if p.FeedDesc != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(truncate(p.FeedDesc, 300)))
	}
	fmt.Fprintf(&b, "%d episodes", len(p.Episodes))
	if len(p.Episodes) > 0 {
		fmt.Fprintf(&b, ", latest: %s", html.EscapeString(p.Episodes[0].Title))
	}
	if !p.Saved() {
		b.WriteString("\nUse /subscribe " + html.EscapeString(p.FeedURL) + " to keep it.")
	}
	return b.String()
}

func formatPodcastList(podcasts []models.Podcast, baseURL string) string {
	if len(podcasts) == 0 {
		return "You have no subscriptions."
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	var b strings.Builder
	for _, p := range podcasts {
		fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(p.FeedTitle))
		if p.ID != nil {
			fmt.Fprintf(&b, ": %s/rss/%d", baseURL, *p.ID)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
