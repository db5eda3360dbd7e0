package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"garden-server/internal/ai"
)

// MockCompletionClient is a mock type for the ai.CompletionClient type
type MockCompletionClient struct {
	mock.Mock
}

// Complete provides a mock function with given fields: ctx, prompt, backend, model
func (_m *MockCompletionClient) Complete(ctx context.Context, prompt string, backend ai.Backend, model string) (string, error) {
	ret := _m.Called(ctx, prompt, backend, model)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, ai.Backend, string) string); ok {
		r0 = rf(ctx, prompt, backend, model)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(string)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, ai.Backend, string) error); ok {
		r1 = rf(ctx, prompt, backend, model)
	} else {
		err := ret.Error(1)
		if err != nil {
			r1 = err
		}
	}

	return r0, r1
}

// NewMockCompletionClient creates a new instance of MockCompletionClient.
// The first argument is typically a *testing.T value.
func NewMockCompletionClient(t interface {
	mock.TestingT
	Helper()
}) *MockCompletionClient {
	m := &MockCompletionClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.CompletionClient = (*MockCompletionClient)(nil)
