package http_test

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/usecase"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Forward(ctx context.Context, req dto.ProxyRequest) (*dto.ProxyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProxyResponse), args.Error(1)
}

type MockPinScheduler struct {
	mock.Mock
}

func (m *MockPinScheduler) Schedule(ctx context.Context, req dto.SchedulePinRequest) (*model.ScheduledPin, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledPin), args.Error(1)
}

func (m *MockPinScheduler) ListPins(ctx context.Context) ([]model.ScheduledPin, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScheduledPin), args.Error(1)
}

func (m *MockPinScheduler) GetPin(ctx context.Context, id string) (*model.ScheduledPin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledPin), args.Error(1)
}

func (m *MockPinScheduler) UpdatePin(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScheduledPin), args.Error(1)
}

func (m *MockPinScheduler) DeletePin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPinScheduler) PublishNow(ctx context.Context, id string) (*dto.PublishOutcome, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PublishOutcome), args.Error(1)
}

func (m *MockPinScheduler) PlanBulk(ctx context.Context, csv io.Reader, postsPerDay int, boardIDs []string) (*dto.BulkPlan, error) {
	body, _ := io.ReadAll(csv)
	args := m.Called(ctx, string(body), postsPerDay, boardIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.BulkPlan), args.Error(1)
}

func (m *MockPinScheduler) ScheduleBulk(ctx context.Context, plan *dto.BulkPlan, account string) *dto.BulkScheduleResponse {
	args := m.Called(ctx, plan, account)
	return args.Get(0).(*dto.BulkScheduleResponse)
}

type MockOAuthBroker struct {
	mock.Mock
}

func (m *MockOAuthBroker) AuthorizationURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockOAuthBroker) VerifyState(state string) error {
	args := m.Called(state)
	return args.Error(0)
}

func (m *MockOAuthBroker) ExchangeCode(ctx context.Context, code string) (*dto.TokenResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TokenResponse), args.Error(1)
}

func (m *MockOAuthBroker) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TokenResponse), args.Error(1)
}

type MockScheduledPublisher struct {
	mock.Mock
}

func (m *MockScheduledPublisher) RunOnce(ctx context.Context) (*dto.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RunSummary), args.Error(1)
}

func (m *MockScheduledPublisher) PublishClaimed(ctx context.Context, pin model.ScheduledPin) dto.PublishOutcome {
	args := m.Called(ctx, pin)
	return args.Get(0).(dto.PublishOutcome)
}

// memoryBoardCache is an in-process stand-in for the redis board cache.
type memoryBoardCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryBoardCache() *memoryBoardCache {
	return &memoryBoardCache{items: map[string][]byte{}}
}

func (c *memoryBoardCache) Get(_ context.Context, token string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[token]
	return v, ok
}

func (c *memoryBoardCache) Set(_ context.Context, token string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[token] = body
}

var _ usecase.IPinScheduler = (*MockPinScheduler)(nil)
