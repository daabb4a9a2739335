package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

func newWebhookUseCase(f *fixture, queue *MockQueue) *ProcessWebhookUseCase {
	return NewProcessWebhookUseCase(
		NewProductRegistry(f.store.Products()),
		f.leads,
		NewRecoveryScheduler(queue),
		f.logger,
	)
}

const hotmartAbandonment = `{"hottok":"t","prod":"p1","event":"CART_ABANDONMENT","email":"a@b.com","price":297,
	"phone_local_code":"55","phone_number":"11999999999","name":"Carlos Silva"}`

func TestWebhookAbandonmentQueuesRecovery(t *testing.T) {
	f := newFixture()
	queue := new(MockQueue)

	var job entity.RecoveryJob
	queue.On("Enqueue", mock.Anything, mock.AnythingOfType("entity.RecoveryJob")).
		Run(func(args mock.Arguments) { job = args.Get(1).(entity.RecoveryJob) }).
		Return(nil).Once()

	out, err := newWebhookUseCase(f, queue).Execute(context.Background(), testClientID, []byte(hotmartAbandonment))
	require.NoError(t, err)

	assert.Equal(t, WebhookQueued, out.Status)
	require.NotEmpty(t, out.LeadID)

	lead := f.lead(out.LeadID)
	assert.Equal(t, entity.StatusPendingRecovery, lead.Status)
	assert.Equal(t, "a@b.com", lead.Email)
	assert.Equal(t, "5511999999999", lead.Phone)
	assert.Equal(t, 297.0, *lead.Value)
	assert.Equal(t, "Carlos Silva", lead.Name)

	assert.Equal(t, out.LeadID, job.LeadID)
	assert.Equal(t, 1, job.Attempt)
	assert.Equal(t, entity.DefaultMaxAttempts, job.MaxAttempts)
	assert.Equal(t, 30*time.Minute, job.RunAt.Sub(job.EnqueuedAt))
	queue.AssertExpectations(t)
}

func TestWebhookDuplicateAbandonmentDoesNotReschedule(t *testing.T) {
	f := newFixture()
	queue := new(MockQueue)
	queue.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
	uc := newWebhookUseCase(f, queue)

	first, err := uc.Execute(context.Background(), testClientID, []byte(hotmartAbandonment))
	require.NoError(t, err)
	second, err := uc.Execute(context.Background(), testClientID, []byte(hotmartAbandonment))
	require.NoError(t, err)

	assert.Equal(t, first.LeadID, second.LeadID)
	queue.AssertNumberOfCalls(t, "Enqueue", 1)
}

func TestWebhookConversionTriggersKillSwitch(t *testing.T) {
	f := newFixture()
	f.store.AddProduct(entity.Product{ClientID: testClientID, Platform: entity.PlatformKiwify, ExternalProductID: "p1", IsActive: true})
	kiwify, _ := f.store.Products().FindByExternalID(context.Background(), testClientID, entity.PlatformKiwify, "p1")

	lead := &entity.Lead{ClientID: testClientID, ProductID: kiwify.ID, Email: "a@b.com", Status: entity.StatusContacted}
	require.NoError(t, f.store.Leads().Create(context.Background(), lead))

	queue := new(MockQueue)
	body := `{"order_id":"o-1","product_id":"p1","status":"paid","email":"a@b.com"}`

	out, err := newWebhookUseCase(f, queue).Execute(context.Background(), testClientID, []byte(body))
	require.NoError(t, err)

	assert.Equal(t, &WebhookOutput{Status: WebhookSuccess, Action: ActionKillSwitch}, out)
	assert.Equal(t, entity.StatusConvertedOrganically, f.lead(lead.ID).Status)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWebhookClassificationErrors(t *testing.T) {
	f := newFixture()
	uc := newWebhookUseCase(f, new(MockQueue))

	tests := []struct {
		name string
		body string
		code string
	}{
		{"unknown platform", `{"foo":"bar","email":"a@b.com"}`, CodeUnknownPlatform},
		{"missing product id", `{"hottok":"t","event":"CART_ABANDONMENT","email":"a@b.com"}`, CodeUnknownPlatform},
		{"not json", `<xml/>`, CodeMalformedBody},
		{"json array", `[1,2]`, CodeMalformedBody},
		{"missing email", `{"hottok":"t","prod":"p1","event":"CART_ABANDONMENT"}`, CodeInvalidLead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), testClientID, []byte(tt.body))
			var de *DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestWebhookIgnoredEvents(t *testing.T) {
	f := newFixture()
	queue := new(MockQueue)
	uc := newWebhookUseCase(f, queue)

	out, err := uc.Execute(context.Background(), testClientID, []byte(`{"hottok":"t","prod":"nao-configurado","event":"CART_ABANDONMENT","email":"a@b.com"}`))
	require.NoError(t, err)
	assert.Equal(t, &WebhookOutput{Status: WebhookIgnored, Reason: ReasonProductNotConfigured}, out)

	out, err = uc.Execute(context.Background(), testClientID, []byte(`{"hottok":"t","prod":"p1","event":"PURCHASE_REFUNDED","email":"a@b.com"}`))
	require.NoError(t, err)
	assert.Equal(t, &WebhookOutput{Status: WebhookIgnored, Reason: "unknown_event_PURCHASE_REFUNDED"}, out)

	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestWebhookPersistenceFailure(t *testing.T) {
	f := newFixture()
	broken := &brokenLeadRepo{LeadRepositoryInterface: f.store.Leads(), err: errors.New("connection refused")}
	f.leads = NewLeadStore(broken)

	_, err := newWebhookUseCase(f, new(MockQueue)).Execute(context.Background(), testClientID, []byte(hotmartAbandonment))

	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeDBError, te.Code)
}

func TestWebhookQueueFailureMarksLeadFailed(t *testing.T) {
	f := newFixture()
	queue := new(MockQueue)
	queue.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	_, err := newWebhookUseCase(f, queue).Execute(context.Background(), testClientID, []byte(hotmartAbandonment))

	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeQueueError, te.Code)

	// lead órfão não fica pendente para sempre
	_, err = f.store.Leads().FindActive(context.Background(), testClientID, f.product.ID, "a@b.com")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}
