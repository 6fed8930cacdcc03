package aiclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClient_GenerateMarshalsRespondValue(t *testing.T) {
	f := NewFakeClient(structuredSlide{Title: "From Fake"})
	var out structuredSlide
	err := f.Generate(context.Background(), Request{}, &out)
	require.NoError(t, err)
	assert.Equal(t, "From Fake", out.Title)
	assert.Equal(t, 1, f.Calls)
}

func TestFakeClient_GenerateReturnsConfiguredError(t *testing.T) {
	wantErr := errors.New("boom")
	f := &FakeClient{Respond: func(context.Context, Request) (any, error) { return nil, wantErr }}
	var out structuredSlide
	err := f.Generate(context.Background(), Request{}, &out)
	assert.ErrorIs(t, err, wantErr)
}
