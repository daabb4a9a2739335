package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/recupa-ai/internal/entity"
)

// Store guarda leads, produtos e instâncias em memória. Usado quando não há
// DATABASE_URL (dev/demo) e nos testes. Toda leitura devolve cópia.
type Store struct {
	mu sync.Mutex

	leads     map[string]*entity.Lead
	products  map[string]*entity.Product
	instances map[string]*entity.Instance // key: instance_key

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		leads:     map[string]*entity.Lead{},
		products:  map[string]*entity.Product{},
		instances: map[string]*entity.Instance{},
		now:       time.Now,
	}
}

func (s *Store) Leads() *LeadRepo               { return &LeadRepo{s} }
func (s *Store) Products() *ProductRepo         { return &ProductRepo{s} }
func (s *Store) Instances() *InstanceRepo       { return &InstanceRepo{s} }
func (s *Store) Ping(ctx context.Context) error { return nil }

// AddProduct é o seed de produtos (não há CRUD de produto na API).
func (s *Store) AddProduct(p entity.Product) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
		p.UpdatedAt = p.CreatedAt
	}
	cp := p
	s.products[p.ID] = &cp
	return &p
}

type LeadRepo struct{ s *Store }

func (r *LeadRepo) Create(ctx context.Context, lead *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// mesmo contrato do índice uq_leads_active no Postgres
	if !lead.Status.IsTerminal() {
		dup := r.s.match(func(l *entity.Lead) bool {
			return l.ID != lead.ID && l.ClientID == lead.ClientID && l.ProductID == lead.ProductID &&
				l.Email == lead.Email && !l.Status.IsTerminal()
		})
		if len(dup) > 0 {
			return entity.ErrActiveLeadExists
		}
	}
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = r.s.now()
		lead.UpdatedAt = lead.CreatedAt
	}
	r.s.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (r *LeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return cloneLead(l), nil
}

func (r *LeadRepo) FindActive(ctx context.Context, clientID, productID, email string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.match(func(l *entity.Lead) bool {
		return l.ClientID == clientID && l.ProductID == productID && l.Email == email && !l.Status.IsTerminal()
	})
	if len(found) == 0 {
		return nil, entity.ErrLeadNotFound
	}
	return cloneLead(found[0]), nil
}

func (r *LeadRepo) FindLatestByPhone(ctx context.Context, clientID, phoneNormalized string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.s.match(func(l *entity.Lead) bool {
		return l.PhoneNormalized == phoneNormalized && (clientID == "" || l.ClientID == clientID)
	})
	if len(found) == 0 {
		return nil, entity.ErrLeadNotFound
	}
	return cloneLead(found[0]), nil
}

func (r *LeadRepo) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if l.Status.IsTerminal() && l.Status != status {
		return entity.ErrLeadFinalized
	}
	l.Status = status
	l.UpdatedAt = r.s.now()
	return nil
}

func (r *LeadRepo) ConvertActive(ctx context.Context, clientID, productID, email string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, l := range r.s.leads {
		if l.ClientID == clientID && l.ProductID == productID && l.Email == email && !l.Status.IsTerminal() {
			l.Status = entity.StatusConvertedOrganically
			l.UpdatedAt = r.s.now()
			n++
		}
	}
	return n, nil
}

func (r *LeadRepo) SaveConversation(ctx context.Context, id string, log []entity.ConversationEntry, status entity.LeadStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if l.Status.IsTerminal() {
		return entity.ErrLeadFinalized
	}
	l.ConversationLog = append([]entity.ConversationEntry(nil), log...)
	l.Status = status
	l.UpdatedAt = r.s.now()
	return nil
}

// ExpireStale marca como failed os leads ainda aguardando criados antes de cutoff.
func (r *LeadRepo) ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, l := range r.s.leads {
		if l.Status.Awaiting() && l.CreatedAt.Before(cutoff) {
			l.Status = entity.StatusFailed
			l.UpdatedAt = r.s.now()
			ids = append(ids, l.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// match devolve os leads que passam no filtro, do mais recente para o mais antigo.
func (s *Store) match(fn func(*entity.Lead) bool) []*entity.Lead {
	var out []*entity.Lead
	for _, l := range s.leads {
		if fn(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type ProductRepo struct{ s *Store }

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt != nil {
		return nil, entity.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProductRepo) FindByExternalID(ctx context.Context, clientID string, platform entity.Platform, externalProductID string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.ClientID == clientID && p.Platform == platform && p.ExternalProductID == externalProductID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, entity.ErrProductNotFound
}

type InstanceRepo struct{ s *Store }

func (r *InstanceRepo) FindConnectedByClient(ctx context.Context, clientID string) (*entity.Instance, error) {
	inst, err := r.FindByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if inst.Status != entity.InstanceConnected {
		return nil, entity.ErrInstanceNotFound
	}
	return inst, nil
}

func (r *InstanceRepo) FindByClient(ctx context.Context, clientID string) (*entity.Instance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inst := range r.s.instances {
		if inst.ClientID == clientID {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, entity.ErrInstanceNotFound
}

func (r *InstanceRepo) FindByKey(ctx context.Context, instanceKey string) (*entity.Instance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.instances[instanceKey]
	if !ok {
		return nil, entity.ErrInstanceNotFound
	}
	cp := *inst
	return &cp, nil
}

func (r *InstanceRepo) Upsert(ctx context.Context, instance *entity.Instance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.instances[instance.InstanceKey]; ok {
		instance.ID = existing.ID
	} else if instance.ID == "" {
		instance.ID = uuid.New().String()
	}
	instance.UpdatedAt = r.s.now()
	cp := *instance
	r.s.instances[instance.InstanceKey] = &cp
	return nil
}

func (r *InstanceRepo) UpdateStatus(ctx context.Context, instanceKey string, status entity.InstanceStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inst, ok := r.s.instances[instanceKey]
	if !ok {
		return entity.ErrInstanceNotFound
	}
	inst.Status = status
	inst.UpdatedAt = r.s.now()
	return nil
}

func cloneLead(l *entity.Lead) *entity.Lead {
	cp := *l
	cp.ConversationLog = append([]entity.ConversationEntry{}, l.ConversationLog...)
	if l.Value != nil {
		v := *l.Value
		cp.Value = &v
	}
	return &cp
}
