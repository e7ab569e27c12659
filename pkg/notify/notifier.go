// Package notify implements the Notifier port (pkg/ports.Notifier): a Slack
// alert fired when the safety stage's verdict requires human review.
// slack-go/slack has no other home in this repo.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/domain"
	coreerrors "github.com/biomind/repurposing/pkg/shared/errors"
)

// Notifier posts a Slack message when a workflow's safety verdict requires
// human review. Disabled Notifiers no-op so missing Slack credentials never
// fail a request.
type Notifier struct {
	client    *slack.Client
	channelID string
	enabled   bool
}

func New(cfg config.NotifyConfig) *Notifier {
	if !cfg.Enabled || cfg.BotToken == "" {
		return &Notifier{enabled: false}
	}
	return &Notifier{
		client:    slack.New(cfg.BotToken),
		channelID: cfg.ChannelID,
		enabled:   true,
	}
}

// NotifyReviewRequired posts a summary of verdict's flags to the configured
// channel.
func (n *Notifier) NotifyReviewRequired(ctx context.Context, requestID string, verdict domain.SafetyVerdict) error {
	if !n.enabled {
		return nil
	}
	var lines []string
	for _, f := range verdict.Flags {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", f.Severity, f.Kind, f.Message))
	}
	text := fmt.Sprintf("Request `%s` requires human review:\n%s", requestID, strings.Join(lines, "\n"))

	_, _, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return coreerrors.New(coreerrors.KindRepositoryUnavailable, coreerrors.FailedTo("post slack notification", err))
	}
	return nil
}
