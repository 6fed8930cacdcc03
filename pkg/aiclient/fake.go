package aiclient

import (
	"context"
	"encoding/json"
)

// FakeClient is an in-memory Client for orchestrator and slide generation
// tests that need a deterministic AI boundary without a real HTTP server.
type FakeClient struct {
	// Respond, if set, is called for every Generate and controls both the
	// returned error and the structured value marshaled into target.
	Respond func(ctx context.Context, req Request) (any, error)
	Calls   int
}

// NewFakeClient builds a FakeClient that always returns resp until
// Respond is overridden.
func NewFakeClient(resp any) *FakeClient {
	return &FakeClient{
		Respond: func(context.Context, Request) (any, error) { return resp, nil },
	}
}

// Generate implements Client.
func (f *FakeClient) Generate(ctx context.Context, req Request, target any) error {
	f.Calls++
	value, err := f.Respond(ctx, req)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
