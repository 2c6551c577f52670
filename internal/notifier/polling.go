package notifier

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// pollTimeout is the getUpdates long-poll window in seconds.
	pollTimeout = 30
	pollBackoff = 5 * time.Second
)

// CommandHandler is called when a user command is received. A non-empty
// reply is sent back to the chat.
type CommandHandler func(ctx context.Context, command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// command returns the trimmed message text and the sender chat, or ok=false
// for updates that carry no text.
func (u telegramUpdate) command() (text, chat string, ok bool) {
	if u.Message == nil {
		return "", "", false
	}
	text = strings.TrimSpace(u.Message.Text)
	return text, strconv.FormatInt(u.Message.Chat.ID, 10), text != ""
}

// StartPolling long-polls getUpdates and dispatches commands from the
// configured chat to handler until ctx is done. Other chats are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: (pollTimeout + 5) * time.Second, Transport: t.Client.Transport}
	log := t.log.With().Str("component", "telegram_poller").Logger()
	log.Info().Msg("polling started")

	offset := 0
	for ctx.Err() == nil {
		updates, err := t.poll(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn().Err(err).Dur("retry_in", pollBackoff).Msg("poll failed")
			sleep(ctx, pollBackoff)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(ctx, u, handler)
		}
	}
	log.Info().Msg("polling stopped")
}

func (t *TelegramNotifier) dispatch(ctx context.Context, u telegramUpdate, handler CommandHandler) {
	text, chat, ok := u.command()
	if !ok {
		return
	}
	if chat != t.ChatID {
		t.log.Warn().Str("chat", chat).Int("update", u.UpdateID).Msg("ignoring command from unknown chat")
		return
	}
	t.log.Info().Str("command", text).Int("update", u.UpdateID).Msg("command received")
	reply := handler(ctx, text)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, reply); err != nil {
		t.log.Error().Err(err).Str("command", text).Msg("send reply failed")
	}
}

func (t *TelegramNotifier) poll(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	var updates []telegramUpdate
	params := map[string]int{"offset": offset, "timeout": pollTimeout}
	if err := t.call(ctx, client, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
