package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type countingPurger struct {
	calls int
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls++
	return 3, p.err
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("not a schedule", &countingPurger{}, zerolog.Nop())
	require.Error(t, err)
}

func TestPurgeRunsPurger(t *testing.T) {
	p := &countingPurger{}
	s, err := NewScheduler("@every 1h", p, zerolog.Nop())
	require.NoError(t, err)

	s.purge(p)
	p.err = errors.New("db down")
	s.purge(p)
	require.Equal(t, 2, p.calls)

	s.Start()
	s.Stop()
}
