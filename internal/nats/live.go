package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/model"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
)

// LiveSubjectPrefix is the prefix of live chat subjects.
const LiveSubjectPrefix = "live"

// LiveSubject returns the core NATS subject carrying a contact's messages.
func LiveSubject(userID, contactID string) string {
	return fmt.Sprintf("%s.%s.%s", LiveSubjectPrefix, userID, contactID)
}

// LiveHub publishes appended messages and lets the live chat stream
// subscribe to them. Delivery is best effort.
type LiveHub struct {
	client *Client
	logger *logger.Logger
}

func NewLiveHub(client *Client, log *logger.Logger) *LiveHub {
	return &LiveHub{client: client, logger: log.Named("live")}
}

// Notify publishes msg on its contact's live subject.
func (h *LiveHub) Notify(msg *model.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := h.client.Conn().Publish(LiveSubject(msg.UserID, msg.ContactID), data); err != nil {
		h.logger.Warn("live publish failed", zap.String("contact_id", msg.ContactID), zap.Error(err))
	}
}

// Subscribe delivers the messages of one contact until cancel is called.
// Slow readers lose messages rather than block the connection.
func (h *LiveHub) Subscribe(userID, contactID string) (<-chan *model.Message, func(), error) {
	raw := make(chan *nats.Msg, 64)
	sub, err := h.client.Conn().ChanSubscribe(LiveSubject(userID, contactID), raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan *model.Message, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case m := <-raw:
				var msg model.Message
				if err := json.Unmarshal(m.Data, &msg); err != nil {
					continue
				}
				select {
				case out <- &msg:
				default:
				}
			}
		}
	}()

	var stopped bool
	cancel := func() {
		if stopped {
			return
		}
		stopped = true
		_ = sub.Unsubscribe()
		close(done)
	}
	return out, cancel, nil
}
