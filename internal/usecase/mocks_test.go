package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/xavierca1/recupa-ai/internal/entity"
	"github.com/xavierca1/recupa-ai/internal/infra/database/memory"
)

// MockSender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(ctx context.Context, instanceKey, phone, text string) error {
	args := m.Called(ctx, instanceKey, phone, text)
	return args.Error(0)
}

// MockQueue
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) Enqueue(ctx context.Context, job entity.RecoveryJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockEngine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Opening(ctx context.Context, product *entity.Product, lead *entity.Lead) string {
	args := m.Called(ctx, product, lead)
	return args.String(0)
}

func (m *MockEngine) Reply(ctx context.Context, product *entity.Product, lead *entity.Lead, incoming string) (string, []entity.ConversationEntry) {
	args := m.Called(ctx, product, lead, incoming)
	log := append([]entity.ConversationEntry{}, lead.ConversationLog...)
	log = append(log, entity.ConversationEntry{Role: entity.RoleUser, Content: incoming})
	return args.String(0), log
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLeadFailed(ctx context.Context, lead *entity.Lead, reason string) error {
	args := m.Called(ctx, lead, reason)
	return args.Error(0)
}

func (m *MockNotifier) NotifyLeadEscalated(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// MockProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) InitInstance(ctx context.Context, instanceKey string) error {
	return m.Called(ctx, instanceKey).Error(0)
}

func (m *MockProvider) Connect(ctx context.Context, instanceKey string) (string, error) {
	args := m.Called(ctx, instanceKey)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Status(ctx context.Context, instanceKey string) (entity.InstanceStatus, error) {
	args := m.Called(ctx, instanceKey)
	return args.Get(0).(entity.InstanceStatus), args.Error(1)
}

// brokenLeadRepo simula o banco fora do ar nas escritas.
type brokenLeadRepo struct {
	entity.LeadRepositoryInterface
	err error
}

func (r *brokenLeadRepo) Create(ctx context.Context, lead *entity.Lead) error { return r.err }

func (r *brokenLeadRepo) ConvertActive(ctx context.Context, clientID, productID, email string) (int64, error) {
	return 0, r.err
}

const testClientID = "client-001"

type fixture struct {
	store   *memory.Store
	product *entity.Product
	leads   *LeadStore
	logger  *zap.Logger
}

func newFixture() *fixture {
	store := memory.NewStore()
	product := store.AddProduct(entity.Product{
		ClientID:          testClientID,
		Platform:          entity.PlatformHotmart,
		ExternalProductID: "p1",
		Name:              "Curso Python Pro",
		DelayMinutes:      30,
		IsActive:          true,
	})
	return &fixture{
		store:   store,
		product: product,
		leads:   NewLeadStore(store.Leads()),
		logger:  zap.NewNop(),
	}
}

// seedLead grava um lead com telefone e status dados.
func (f *fixture) seedLead(status entity.LeadStatus) *entity.Lead {
	lead := &entity.Lead{
		ClientID:        testClientID,
		ProductID:       f.product.ID,
		Name:            "Carlos Silva",
		Email:           "a@b.com",
		Phone:           "+55 (11) 99999-9999",
		PhoneNormalized: "5511999999999",
		Status:          status,
	}
	_ = f.store.Leads().Create(context.Background(), lead)
	return lead
}

func (f *fixture) connectInstance() {
	_ = f.store.Instances().Upsert(context.Background(), &entity.Instance{
		ClientID:    testClientID,
		InstanceKey: entity.InstanceKeyFor(testClientID),
		Status:      entity.InstanceConnected,
	})
}

func (f *fixture) lead(id string) *entity.Lead {
	l, _ := f.store.Leads().FindByID(context.Background(), id)
	return l
}
