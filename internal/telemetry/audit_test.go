package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"community-service/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	user := "user-1"
	pub.On("Publish", mock.Anything, "audit.community", mock.MatchedBy(func(env AuditEnvelope) bool {
		return env.EventType == "audit_log" &&
			env.Service == "community-service" &&
			env.RequestID == "req-7" &&
			*env.UserID == user &&
			env.Payload.Route == "/api/questions" &&
			env.Payload.Status == 400 &&
			env.Payload.Text == "Title is required"
	}), map[string]string{"x-request-id": "req-7"}).Return(nil).Once()

	e := NewAuditEmitter(pub, "audit.community", "community-service", "test", zerolog.Nop())
	e.Emit(context.Background(), Entry{
		Level:     "WARN",
		Text:      "Title is required",
		RequestID: "req-7",
		UserID:    &user,
		Method:    "POST",
		Route:     "/api/questions",
		Status:    400,
	})

	pub.AssertExpectations(t)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	e := NewAuditEmitter(pub, "audit.community", "community-service", "test", zerolog.Nop())
	require.NotPanics(t, func() {
		e.Emit(context.Background(), Entry{Level: "ERROR", Text: "boom"})
	})
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestNilEmitterIsNoop(t *testing.T) {
	var e *AuditEmitter
	require.NotPanics(t, func() {
		e.Emit(context.Background(), Entry{Level: "INFO", Text: "ignored"})
	})
}
