package services

import (
	"fmt"
	"log/slog"

	"entrypass/models"
	"entrypass/utils"

	pubnub "github.com/pubnub/go/v7"
)

// GateNotifier publishes check-in events to the ops dashboard channel.
// Publishing is best effort and always happens after the store transition
// has committed; a dead PubNub endpoint trips the breaker instead of
// queueing goroutines behind the gate path.
type GateNotifier struct {
	pn      *pubnub.PubNub
	channel string
	breaker *utils.CircuitBreaker
}

func NewGateNotifier(pn *pubnub.PubNub, channel string) *GateNotifier {
	return &GateNotifier{
		pn:      pn,
		channel: channel,
		breaker: utils.NewCircuitBreaker("gate-notifier"),
	}
}

func (n *GateNotifier) PublishCheckIn(ticket *models.Ticket, gateID string) {
	if n.pn == nil {
		return
	}

	err := n.breaker.Execute(func() error {
		_, pnStatus, err := n.pn.Publish().
			Channel(n.channel).
			Message(map[string]any{
				"type":          "check_in",
				"ticket_id":     ticket.ID,
				"holder_name":   ticket.HolderName,
				"pass_class":    string(ticket.PassClass),
				"gate_id":       gateID,
				"checked_in_at": ticket.CheckedInAt,
			}).
			Execute()
		if err != nil {
			return err
		}
		if pnStatus.Error != nil {
			return fmt.Errorf("pubnub publish status %d", pnStatus.StatusCode)
		}
		return nil
	})
	if err != nil {
		slog.Warn("failed to publish check-in event", "error", err, "ticket_id", ticket.ID)
	}
}
