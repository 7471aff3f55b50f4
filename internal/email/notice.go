package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const noticeEmailTimeout = 5 * time.Second

// EmailSender delivers one plain-text message. SESClient implements it.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SendRunNotice mails message to every recipient asynchronously. Sends
// outlive the caller's context.
func SendRunNotice(ctx context.Context, client EmailSender, recipients []string, message Message, logger *zerolog.Logger) {
	if client == nil || len(recipients) == 0 {
		return
	}
	if message.Subject == "" || message.Body == "" {
		return
	}

	go func() {
		sendCtx, cancel := detachedContext(ctx, noticeEmailTimeout)
		defer cancel()
		for _, recipient := range recipients {
			recipient = strings.TrimSpace(recipient)
			if recipient == "" {
				continue
			}
			if err := client.Send(sendCtx, recipient, message.Subject, message.Body); err != nil {
				if logger != nil {
					logger.Error().Err(err).Str("recipient", recipient).Msg("Failed to send run notice")
				}
				continue
			}
			if logger != nil {
				logger.Info().Str("recipient", recipient).Msg("Run notice sent")
			}
		}
	}()
}

// detachedContext keeps ctx values (the request logger) but not its
// cancellation, so a finished request does not abort queued notices.
func detachedContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
