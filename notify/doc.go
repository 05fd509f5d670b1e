// Package notify reports preview deployment outcomes.
//
// Core types:
//   - Notifier: Interface for sending notifications
//   - Event: Notification event with type, message, and metadata
//   - EventType: deploy_started, deploy_succeeded, deploy_failed, deploy_skipped
//
// Implementations:
//   - SlackNotifier: Sends notifications to Slack webhooks
//   - WebhookNotifier: Sends notifications to generic webhooks
//   - LogNotifier: Logs notifications with slog
//   - MultiNotifier: Combines multiple notifiers
//   - NopNotifier: No-op notifier (for testing)
//
// Example usage:
//
//	notifier := notify.NewSlackNotifier(webhookURL,
//	    notify.WithSlackChannel("#previews"),
//	)
//	err := notifier.Notify(ctx, notify.Event{
//	    Type:     notify.EventDeploySucceeded,
//	    PRNumber: 42,
//	    URL:      deployURL,
//	    Message:  "Preview deployed",
//	})
package notify
