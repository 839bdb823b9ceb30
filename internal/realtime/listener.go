package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"community-service/internal/models"
	"community-service/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeChange parses a trigger payload.
func DecodeChange(payload string) (models.Change, error) {
	var ch models.Change
	if err := json.UnmarshalFromString(payload, &ch); err != nil {
		return models.Change{}, fmt.Errorf("decode change: %w", err)
	}
	if ch.Table == "" || ch.Op == "" {
		return models.Change{}, errors.New("decode change: missing table or op")
	}
	if ch.Record == nil {
		ch.Record = map[string]any{}
	}
	return ch, nil
}

// PGListener feeds a Bus from a Postgres LISTEN channel.
type PGListener struct {
	dsn     string
	channel string
	bus     *Bus
	log     zerolog.Logger
	backoff time.Duration
}

// NewPGListener constructs a listener for channel.
func NewPGListener(dsn, channel string, bus *Bus, log zerolog.Logger) *PGListener {
	return &PGListener{dsn: dsn, channel: channel, bus: bus, log: log, backoff: 2 * time.Second}
}

// Run listens until ctx is done, reconnecting after failures. After every
// reconnect subscribers receive a resync so no change is lost silently.
func (l *PGListener) Run(ctx context.Context) {
	first := true
	for {
		err := l.listen(ctx, !first)
		if ctx.Err() != nil {
			return
		}
		first = false
		l.log.Error().Err(err).Dur("retry_in", l.backoff).Msg("change listener disconnected")
		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *PGListener) listen(ctx context.Context, resync bool) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.log.Info().Str("channel", l.channel).Msg("listening for row changes")
	if resync {
		l.bus.Resync()
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ch, err := DecodeChange(n.Payload)
		if err != nil {
			l.log.Warn().Err(err).Msg("dropping change notification")
			continue
		}
		observability.IncChangeNotification(ch.Table)
		l.bus.Publish(ch)
	}
}
