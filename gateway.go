package migrationbot

import (
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
)

// UnknownUser is the sentinel display name used when the actor cannot
// be resolved. Username lookups never fail the caller.
const UnknownUser = "unknown"

// SlackAPI abstracts the subset of slack.Client methods the bot uses,
// so tests can substitute a fake without a live Slack connection.
type SlackAPI interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessage(channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	GetUserInfo(userID string) (*slack.User, error)
}

// Gateway sends and edits checklist messages and resolves usernames.
type Gateway struct {
	client SlackAPI
}

func NewGateway(client SlackAPI) *Gateway {
	return &Gateway{client: client}
}

// Send posts a new message and returns its reference.
func (g *Gateway) Send(channelID, fallback string, blocks []slack.Block) (MessageRef, error) {
	id, ts, err := g.client.PostMessage(channelID,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...))
	if err != nil {
		return MessageRef{}, &RemoteError{Op: "chat.postMessage", Err: err}
	}
	return MessageRef{ChannelID: id, Timestamp: ts}, nil
}

// Edit replaces the body of an existing message.
func (g *Gateway) Edit(ref MessageRef, fallback string, blocks []slack.Block) error {
	if _, _, _, err := g.client.UpdateMessage(ref.ChannelID, ref.Timestamp,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...)); err != nil {
		return &RemoteError{Op: "chat.update", Err: err}
	}
	return nil
}

// Username resolves a user ID to a display name, preferring the Slack
// profile, then the name carried in the payload, then UnknownUser.
func (g *Gateway) Username(userID, payloadName string) string {
	if userID == "" {
		return fallbackName(payloadName)
	}
	user, err := g.client.GetUserInfo(userID)
	if err != nil {
		slog.Warn("username lookup failed", "user", userID, "error", err)
		return fallbackName(payloadName)
	}
	switch {
	case user.Profile.DisplayName != "":
		return user.Profile.DisplayName
	case user.Profile.RealName != "":
		return user.Profile.RealName
	}
	return fallbackName(payloadName)
}

func fallbackName(payloadName string) string {
	if payloadName != "" {
		return payloadName
	}
	return UnknownUser
}

// VerifySlackSignature checks the Slack signing-secret headers against
// the raw request body.
func VerifySlackSignature(headers map[string]string, body []byte, signingSecret string) error {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}

	sv, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}
