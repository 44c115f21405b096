// Package notify formats qualifying opportunities into operator alerts and
// delivers them over one or more channels (Telegram bot, Discord webhook).
// Delivery is fire-and-forget from the pipeline's point of view: transport
// failures are reported but never retried by the caller and never affect
// what gets persisted as seen.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/arb-arena/arbscan/internal/logger"
)

// DisplayCap is the maximum number of opportunities included in a single
// message. It bounds message size only; the full hit set is still recorded
// as seen by the caller.
const DisplayCap = 8

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, message string) error
	Name() string
}

// Broadcast delivers the message to every sender. A failing sender does not
// prevent delivery to the rest; the combined error lists all failures.
func Broadcast(ctx context.Context, senders []Sender, message string) error {
	var failures []string
	for _, s := range senders {
		if err := s.Send(ctx, message); err != nil {
			logger.Error("Notification via %s failed: %v", s.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		logger.Debug("Notification sent via %s", s.Name())
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d sender(s) failed: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}
