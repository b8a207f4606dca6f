package notify

import (
	"fmt"
	"io"
	"os"

	"github.com/bwmarrin/discordgo"

	"valet/internal/logging"
)

// Notifier delivers reminder notifications. The terminal is always a target;
// a Discord channel is added when configured, so reminders reach the user
// even when they are away from the keyboard.
type Notifier struct {
	out       io.Writer
	session   *discordgo.Session
	channelID string
}

// New creates a terminal-only notifier.
func New(out io.Writer) *Notifier {
	if out == nil {
		out = os.Stdout
	}
	return &Notifier{out: out}
}

// EnableDiscord adds a Discord channel target. Messages are sent over the
// REST API; no gateway connection is opened.
func (n *Notifier) EnableDiscord(token, channelID string) error {
	if token == "" || channelID == "" {
		return fmt.Errorf("discord token and channel id required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	n.session = session
	n.channelID = channelID
	logging.Info("notify", "discord notifications enabled")
	return nil
}

// Notify delivers a message to all configured targets. Delivery failures are
// logged, never surfaced.
func (n *Notifier) Notify(message string) {
	fmt.Fprintf(n.out, "\n\U0001F514 %s\n", message)

	if n.session != nil {
		if _, err := n.session.ChannelMessageSend(n.channelID, "\U0001F514 "+message); err != nil {
			logging.Info("notify", "discord send failed: %v", err)
		}
	}
}
