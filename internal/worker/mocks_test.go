package worker

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pharmetrix/careplan-service/internal/careplan"
	"github.com/pharmetrix/careplan-service/internal/llm"
	"github.com/pharmetrix/careplan-service/internal/order"
	"github.com/pharmetrix/careplan-service/internal/patient"
	"github.com/pharmetrix/careplan-service/internal/provider"
)

type mockOrderStore struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	claimFunc   func(ctx context.Context, id uuid.UUID) (bool, error)

	claimed    []uuid.UUID
	completed  []uuid.UUID
	failedID   uuid.UUID
	failedMsgs []string
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, order.ErrNotFound
}

func (m *mockOrderStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	m.claimed = append(m.claimed, id)
	if m.claimFunc != nil {
		return m.claimFunc(ctx, id)
	}
	return true, nil
}

func (m *mockOrderStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	m.completed = append(m.completed, id)
	return nil
}

func (m *mockOrderStore) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	m.failedID = id
	m.failedMsgs = append(m.failedMsgs, message)
	return nil
}

type mockPatientStore struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

func (m *mockPatientStore) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, patient.ErrNotFound
}

type mockProviderStore struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*provider.Provider, error)
}

func (m *mockProviderStore) GetByID(ctx context.Context, id uuid.UUID) (*provider.Provider, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, provider.ErrNotFound
}

type mockPlanStore struct {
	getByOrderIDFunc func(ctx context.Context, orderID uuid.UUID) (*careplan.CarePlan, error)
	createErr        error

	created   []*careplan.CarePlan
	filePaths map[uuid.UUID]string
}

func (m *mockPlanStore) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*careplan.CarePlan, error) {
	if m.getByOrderIDFunc != nil {
		return m.getByOrderIDFunc(ctx, orderID)
	}
	return nil, careplan.ErrNotFound
}

func (m *mockPlanStore) Create(ctx context.Context, cp *careplan.CarePlan) error {
	if m.createErr != nil {
		return m.createErr
	}
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	m.created = append(m.created, cp)
	return nil
}

func (m *mockPlanStore) SetFilePath(ctx context.Context, id uuid.UUID, filePath string) error {
	if m.filePaths == nil {
		m.filePaths = map[uuid.UUID]string{}
	}
	m.filePaths[id] = filePath
	return nil
}

type mockBackend struct {
	generateFunc func(ctx context.Context, prompt, systemPrompt string) (*llm.Response, error)
	calls        int
}

func (m *mockBackend) Generate(ctx context.Context, prompt, systemPrompt string) (*llm.Response, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, prompt, systemPrompt)
	}
	return nil, errors.New("backend unavailable")
}

type mockPublisher struct {
	routingKeys []string
	events      []any
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	m.routingKeys = append(m.routingKeys, routingKey)
	m.events = append(m.events, event)
	return nil
}
