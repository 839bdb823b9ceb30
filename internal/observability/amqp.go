package observability

import (
	"context"
	"sync/atomic"
)

// Publisher is satisfied by rabbitmq.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error
}

type publisherHolder struct{ Publisher }

var defaultPublisher atomic.Pointer[publisherHolder]

// SetPublisher installs the publisher used by PublishEvent. Passing nil disables publishing.
func SetPublisher(publisher Publisher) {
	if publisher == nil {
		defaultPublisher.Store(nil)
		return
	}
	defaultPublisher.Store(&publisherHolder{publisher})
}

// PublishEvent wraps payload in an EventEnvelope and sends it with the
// correlation headers of meta. Failures are counted, not retried.
func PublishEvent(ctx context.Context, routingKey, eventType, eventName string, payload any, meta RequestMeta) error {
	holder := defaultPublisher.Load()
	if holder == nil {
		return nil
	}

	envelope := EventEnvelope{EventType: eventType, EventName: eventName, Payload: payload}
	err := holder.Publish(ctx, routingKey, envelope, meta.Headers())
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
