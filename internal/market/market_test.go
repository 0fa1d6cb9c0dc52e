package market

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolutionError_MatchesKindAndCause(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("pipeline: %w", &ResolutionError{Ticker: "BTC", Kind: ErrUpstreamUnavailable, Err: context.DeadlineExceeded})

	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, ErrNotFound)

	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	require.Equal(t, "BTC", re.Ticker)
}

func TestFetchError_Message(t *testing.T) {
	t.Parallel()

	err := &FetchError{ID: "bitcoin", Kind: ErrIncompleteData}
	require.Equal(t, `fetch "bitcoin": incomplete data`, err.Error())
	require.ErrorIs(t, err, ErrIncompleteData)
	require.NotErrorIs(t, err, ErrUpstreamUnavailable)
}
