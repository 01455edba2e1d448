package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/usecase"
)

type MockPinterestAPI struct {
	mock.Mock
}

func (m *MockPinterestAPI) Do(ctx context.Context, req dto.ProxyRequest) (*dto.ProxyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProxyResponse), args.Error(1)
}

func (m *MockPinterestAPI) GetUserAccount(ctx context.Context, accessToken string) (*model.PinterestUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PinterestUser), args.Error(1)
}

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

type MockPublishWorker struct {
	mock.Mock
}

func (m *MockPublishWorker) Publish(ctx context.Context, pin model.ScheduledPin, accessToken string) (*usecase.PublishResult, error) {
	args := m.Called(ctx, pin, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.PublishResult), args.Error(1)
}

type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) AccessToken(username string) (string, error) {
	args := m.Called(username)
	return args.String(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPinEvent(ctx context.Context, evt model.PinEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) ListCredentials(ctx context.Context) ([]model.Credential, string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]model.Credential), args.String(1), args.Error(2)
}

func (m *MockCredentialStore) UpsertCredential(ctx context.Context, c model.Credential) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCredentialStore) DeleteCredential(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

func (m *MockCredentialStore) SetActive(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

type MockOAuthBroker struct {
	mock.Mock
}

func (m *MockOAuthBroker) AuthorizationURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockOAuthBroker) VerifyState(state string) error {
	return m.Called(state).Error(0)
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
