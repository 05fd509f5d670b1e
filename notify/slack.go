package notify

import (
	"context"
	"fmt"
	"net/http"
	"sort"
)

// SlackNotifier sends notifications to a Slack webhook.
type SlackNotifier struct {
	WebhookURL string
	Channel    string
	Username   string
	Client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	n := &SlackNotifier{
		WebhookURL: webhookURL,
		Username:   "prdeploy",
		Client:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SlackOption configures SlackNotifier.
type SlackOption func(*SlackNotifier)

// WithSlackChannel sets the channel to post to.
func WithSlackChannel(channel string) SlackOption {
	return func(n *SlackNotifier) { n.Channel = channel }
}

// WithSlackUsername sets the bot username.
func WithSlackUsername(username string) SlackOption {
	return func(n *SlackNotifier) { n.Username = username }
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	title := fmt.Sprintf("%s %s", emojiForEvent(event.Type), event.Type)
	if event.PRNumber > 0 {
		title = fmt.Sprintf("%s %s #%d", emojiForEvent(event.Type), event.Repository, event.PRNumber)
	}

	attachment := slackAttachment{
		Color:     colorForSeverity(event.Severity),
		Title:     title,
		TitleLink: event.URL,
		Text:      event.Message,
		Footer:    fmt.Sprintf("Run: %s", event.RunID),
		Timestamp: event.Timestamp.Unix(),
		Fields:    fieldsFor(event),
	}

	payload := slackPayload{
		Username:    n.Username,
		Channel:     n.Channel,
		Attachments: []slackAttachment{attachment},
	}

	if err := postJSON(ctx, n.Client, n.WebhookURL, nil, payload); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	return nil
}

func emojiForEvent(t EventType) string {
	switch t {
	case EventDeployStarted:
		return ":rocket:"
	case EventDeploySucceeded:
		return ":white_check_mark:"
	case EventDeployFailed:
		return ":x:"
	case EventDeploySkipped:
		return ":fast_forward:"
	default:
		return ":loudspeaker:"
	}
}

func colorForSeverity(severity string) string {
	switch severity {
	case SeverityError:
		return "danger"
	case SeverityWarning:
		return "warning"
	default:
		return "good"
	}
}

func fieldsFor(event Event) []slackField {
	var fields []slackField
	if event.Step != "" {
		fields = append(fields, slackField{Title: "step", Value: event.Step, Short: true})
	}
	if event.SHA != "" {
		fields = append(fields, slackField{Title: "sha", Value: event.SHA, Short: true})
	}

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, slackField{
			Title: k,
			Value: fmt.Sprintf("%v", event.Metadata[k]),
			Short: true,
		})
	}
	return fields
}

// Slack webhook payload types
type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color     string       `json:"color,omitempty"`
	Title     string       `json:"title"`
	TitleLink string       `json:"title_link,omitempty"`
	Text      string       `json:"text"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
	Fields    []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
