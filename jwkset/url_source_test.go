package jwkset

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/NomadCrew/jwkset-resolver/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	data []byte
	err  error
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string) ([]byte, error) {
	return r.data, r.err
}

func TestURLSource_RetrieveFailureYieldsJWKSetUnavailable(t *testing.T) {
	source := NewURLSource("https://example.com/jwks.json", &fakeRetriever{err: errors.New("connection refused")}, nil)

	_, err := source.Get(NoRefresh(), 0, context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsJWKSetUnavailable(err))
}

func TestURLSource_ParseFailureYieldsJWKSetUnavailable(t *testing.T) {
	source := NewURLSource("https://example.com/jwks.json", &fakeRetriever{data: []byte("not json")}, nil)

	_, err := source.Get(NoRefresh(), 0, context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsJWKSetUnavailable(err))
}

func TestURLSource_SuccessfulParse(t *testing.T) {
	set := newTestSet(t, "a")
	body, err := json.Marshal(set.Keys())
	require.NoError(t, err)

	source := NewURLSource("https://example.com/jwks.json", &fakeRetriever{data: body}, nil)

	got, err := source.Get(NoRefresh(), 0, context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}
