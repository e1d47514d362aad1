package mocks

import (
	"context"

	"github.com/dukex/updlflow/pkg/models"
	"github.com/dukex/updlflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockFlowRepository is a mock implementation of persistence.FlowRepository interface.
type MockFlowRepository struct {
	mock.Mock
}

var _ persistence.FlowRepository = (*MockFlowRepository)(nil)

func (m *MockFlowRepository) GetAll(ctx context.Context) ([]*models.Flow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) GetByID(ctx context.Context, id string) (*models.Flow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockFlowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockChatMessageRepository is a mock implementation of persistence.ChatMessageRepository interface.
type MockChatMessageRepository struct {
	mock.Mock
}

var _ persistence.ChatMessageRepository = (*MockChatMessageRepository)(nil)

func (m *MockChatMessageRepository) Add(ctx context.Context, message *models.ChatMessage) error {
	args := m.Called(ctx, message)

	return args.Error(0)
}

func (m *MockChatMessageRepository) GetByChat(ctx context.Context, flowID, chatID string) ([]*models.ChatMessage, error) {
	args := m.Called(ctx, flowID, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ChatMessage), args.Error(1)
}

func (m *MockChatMessageRepository) DeleteByFlow(ctx context.Context, flowID string) error {
	args := m.Called(ctx, flowID)

	return args.Error(0)
}

// MockVariableRepository is a mock implementation of persistence.VariableRepository interface.
type MockVariableRepository struct {
	mock.Mock
}

var _ persistence.VariableRepository = (*MockVariableRepository)(nil)

func (m *MockVariableRepository) GetAll(ctx context.Context) ([]*models.Variable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Variable), args.Error(1)
}

func (m *MockVariableRepository) Save(ctx context.Context, variable *models.Variable) error {
	args := m.Called(ctx, variable)

	return args.Error(0)
}

func (m *MockVariableRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence returns the embedded repository mocks.
type MockPersistence struct {
	mock.Mock

	Flows     *MockFlowRepository
	Variables *MockVariableRepository
	Messages  *MockChatMessageRepository
}

var _ persistence.Persistence = (*MockPersistence)(nil)

func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		Flows:     &MockFlowRepository{},
		Variables: &MockVariableRepository{},
		Messages:  &MockChatMessageRepository{},
	}
}

func (m *MockPersistence) FlowRepository() persistence.FlowRepository {
	return m.Flows
}

func (m *MockPersistence) VariableRepository() persistence.VariableRepository {
	return m.Variables
}

func (m *MockPersistence) ChatMessageRepository() persistence.ChatMessageRepository {
	return m.Messages
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
