package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/solarerp/backend/internal/domain/kit"
	"github.com/solarerp/backend/internal/domain/project"
	"github.com/solarerp/backend/internal/domain/sales"
	"github.com/solarerp/backend/internal/domain/shared"
	"github.com/solarerp/backend/internal/domain/stock"
)

// In-memory repositories for service tests. They store copies, so callers
// never share state with the store, and they drop pending domain events on write.

// MemMaterials is an in-memory stock.MaterialRepository
type MemMaterials struct {
	mu    sync.Mutex
	items map[uuid.UUID]stock.Material
}

// NewMemMaterials creates a material store seeded with the given materials
func NewMemMaterials(materials ...*stock.Material) *MemMaterials {
	r := &MemMaterials{items: make(map[uuid.UUID]stock.Material)}
	for _, m := range materials {
		r.put(m)
	}
	return r
}

func (r *MemMaterials) put(m *stock.Material) {
	cp := *m
	cp.ClearDomainEvents()
	r.items[m.ID] = cp
}

// Get returns a copy of the stored material
func (r *MemMaterials) Get(id uuid.UUID) (stock.Material, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	return m, ok
}

func (r *MemMaterials) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*stock.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok || m.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &m, nil
}

func (r *MemMaterials) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*stock.Material, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *MemMaterials) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]stock.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.Material, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.items[id]; ok && m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MemMaterials) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.Material
	for _, m := range r.items {
		if m.TenantID != tenantID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter), nil
}

func (r *MemMaterials) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	filter.Page, filter.PageSize = 1, 100
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *MemMaterials) Save(_ context.Context, m *stock.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(m)
	return nil
}

func (r *MemMaterials) SaveWithLock(_ context.Context, m *stock.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[m.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != m.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.put(m)
	return nil
}

// MemMovements is an in-memory stock.MovementRepository with the
// one-allocation-per-project uniqueness of the real table
type MemMovements struct {
	mu    sync.Mutex
	items []stock.StockMovement
}

// NewMemMovements creates an empty movement store
func NewMemMovements() *MemMovements {
	return &MemMovements{}
}

// All returns a copy of every stored movement in insertion order
func (r *MemMovements) All() []stock.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.StockMovement, len(r.items))
	copy(out, r.items)
	return out
}

func (r *MemMovements) Create(_ context.Context, mv *stock.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mv.Kind == stock.KindAllocation || mv.Kind == stock.KindAllocationReversal {
		for _, existing := range r.items {
			if existing.MaterialID == mv.MaterialID && existing.ReferenceID == mv.ReferenceID && existing.Kind == mv.Kind {
				return stock.ErrDuplicateMovement
			}
		}
	}
	r.items = append(r.items, *mv)
	return nil
}

func (r *MemMovements) FindByMaterial(_ context.Context, tenantID, materialID uuid.UUID, filter shared.Filter) ([]stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.StockMovement
	for i := len(r.items) - 1; i >= 0; i-- {
		mv := r.items[i]
		if mv.TenantID == tenantID && mv.MaterialID == materialID {
			out = append(out, mv)
		}
	}
	return page(out, filter), nil
}

func (r *MemMovements) CountByMaterial(ctx context.Context, tenantID, materialID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, mv := range r.items {
		if mv.TenantID == tenantID && mv.MaterialID == materialID {
			n++
		}
	}
	return n, nil
}

func (r *MemMovements) FindByReference(_ context.Context, tenantID, referenceID uuid.UUID, kind stock.MovementKind) ([]stock.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []stock.StockMovement
	for i := len(r.items) - 1; i >= 0; i-- {
		mv := r.items[i]
		if mv.TenantID == tenantID && mv.ReferenceID == referenceID && mv.Kind == kind {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (r *MemMovements) ExistsForReference(_ context.Context, tenantID, materialID, referenceID uuid.UUID, kind stock.MovementKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mv := range r.items {
		if mv.TenantID == tenantID && mv.MaterialID == materialID && mv.ReferenceID == referenceID && mv.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

// MemQuotes is an in-memory project.QuoteRepository
type MemQuotes struct {
	mu    sync.Mutex
	items map[uuid.UUID]project.Quote
}

// NewMemQuotes creates a quote store seeded with the given quotes
func NewMemQuotes(quotes ...*project.Quote) *MemQuotes {
	r := &MemQuotes{items: make(map[uuid.UUID]project.Quote)}
	for _, q := range quotes {
		cp := *q
		cp.ClearDomainEvents()
		r.items[q.ID] = cp
	}
	return r
}

// Get returns a copy of the stored quote
func (r *MemQuotes) Get(id uuid.UUID) (project.Quote, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.items[id]
	return q, ok
}

func (r *MemQuotes) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*project.Quote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.items[id]
	if !ok || q.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &q, nil
}

func (r *MemQuotes) Save(_ context.Context, q *project.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	cp.ClearDomainEvents()
	r.items[q.ID] = cp
	return nil
}

// MemProjects is an in-memory project.ProjectRepository with sites and tasks
type MemProjects struct {
	mu       sync.Mutex
	projects map[uuid.UUID]project.Project
	sites    map[uuid.UUID]project.ConstructionSite
	tasks    map[uuid.UUID][]project.Task
}

// NewMemProjects creates a project store seeded with the given projects
func NewMemProjects(projects ...*project.Project) *MemProjects {
	r := &MemProjects{
		projects: make(map[uuid.UUID]project.Project),
		sites:    make(map[uuid.UUID]project.ConstructionSite),
		tasks:    make(map[uuid.UUID][]project.Task),
	}
	for _, p := range projects {
		cp := *p
		cp.ClearDomainEvents()
		r.projects[p.ID] = cp
	}
	return r
}

// Get returns a copy of the stored project
func (r *MemProjects) Get(id uuid.UUID) (project.Project, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	return p, ok
}

// HasSite reports whether a site row exists for the project
func (r *MemProjects) HasSite(projectID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sites[projectID]
	return ok
}

// TaskCount returns the number of task rows of the project
func (r *MemProjects) TaskCount(projectID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks[projectID])
}

func (r *MemProjects) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *MemProjects) Save(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.ClearDomainEvents()
	r.projects[p.ID] = cp
	return nil
}

func (r *MemProjects) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *MemProjects) SaveSite(_ context.Context, site *project.ConstructionSite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sites[site.ProjectID] = *site
	return nil
}

func (r *MemProjects) FindSite(_ context.Context, tenantID, projectID uuid.UUID) (*project.ConstructionSite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sites[projectID]
	if !ok || s.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *MemProjects) DeleteSite(_ context.Context, _, projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sites, projectID)
	return nil
}

func (r *MemProjects) SaveTask(_ context.Context, task *project.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.tasks[task.ProjectID]
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = *task
			return nil
		}
	}
	r.tasks[task.ProjectID] = append(tasks, *task)
	return nil
}

func (r *MemProjects) FindTasks(_ context.Context, tenantID, projectID uuid.UUID) ([]project.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []project.Task
	for _, t := range r.tasks[projectID] {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemProjects) DeleteTasks(_ context.Context, _, projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, projectID)
	return nil
}

// MemSales is an in-memory sales.SaleRepository enforcing one sale per quote
type MemSales struct {
	mu    sync.Mutex
	items map[uuid.UUID]sales.Sale
}

// NewMemSales creates an empty sale store
func NewMemSales() *MemSales {
	return &MemSales{items: make(map[uuid.UUID]sales.Sale)}
}

// Get returns a copy of the stored sale
func (r *MemSales) Get(id uuid.UUID) (sales.Sale, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	return s, ok
}

// Len returns the number of stored sales
func (r *MemSales) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *MemSales) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || s.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *MemSales) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *MemSales) ExistsByQuote(_ context.Context, tenantID, quoteID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.TenantID == tenantID && s.QuoteID == quoteID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemSales) ExistsByNumber(_ context.Context, tenantID uuid.UUID, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.items {
		if s.TenantID == tenantID && s.SaleNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemSales) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.Sale
	for _, s := range r.items {
		if s.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.ClientID != nil && s.ClientID != *filter.ClientID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Filter), nil
}

func (r *MemSales) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) (int64, error) {
	filter.Page, filter.PageSize = 1, 100
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *MemSales) Save(_ context.Context, s *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.items {
		if id != s.ID && existing.TenantID == s.TenantID && existing.QuoteID == s.QuoteID {
			return shared.ErrDuplicateSale
		}
	}
	cp := *s
	cp.ClearDomainEvents()
	r.items[s.ID] = cp
	return nil
}

func (r *MemSales) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok || s.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// MemReceivables is an in-memory sales.ReceivableRepository
type MemReceivables struct {
	mu    sync.Mutex
	items map[uuid.UUID]sales.Receivable
}

// NewMemReceivables creates an empty receivable store
func NewMemReceivables() *MemReceivables {
	return &MemReceivables{items: make(map[uuid.UUID]sales.Receivable)}
}

func (r *MemReceivables) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*sales.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rc, ok := r.items[id]
	if !ok || rc.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &rc, nil
}

func (r *MemReceivables) FindBySale(_ context.Context, tenantID, saleID uuid.UUID) ([]sales.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.Receivable
	for _, rc := range r.items {
		if rc.TenantID == tenantID && rc.SaleID == saleID {
			out = append(out, rc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstallmentIndex < out[j].InstallmentIndex })
	return out, nil
}

func (r *MemReceivables) SaveBatch(ctx context.Context, receivables []*sales.Receivable) error {
	for _, rc := range receivables {
		if err := r.Save(ctx, rc); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemReceivables) Save(_ context.Context, rc *sales.Receivable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rc.ID] = *rc
	return nil
}

func (r *MemReceivables) DeleteBySale(_ context.Context, tenantID, saleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rc := range r.items {
		if rc.TenantID == tenantID && rc.SaleID == saleID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *MemReceivables) MarkOverdue(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rc := range r.items {
		if rc.Status == sales.ReceivableStatusPending && rc.DueDate.Before(cutoff) {
			rc.Status = sales.ReceivableStatusOverdue
			r.items[id] = rc
			n++
		}
	}
	return n, nil
}

// MemKits is an in-memory kit.Repository
type MemKits struct {
	mu    sync.Mutex
	items map[uuid.UUID]kit.Kit
}

// NewMemKits creates an empty kit store
func NewMemKits() *MemKits {
	return &MemKits{items: make(map[uuid.UUID]kit.Kit)}
}

func (r *MemKits) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*kit.Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.items[id]
	if !ok || k.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &k, nil
}

func (r *MemKits) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter kit.Filter) ([]kit.Kit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []kit.Kit
	for _, k := range r.items {
		if k.TenantID != tenantID {
			continue
		}
		if filter.Category != "" && k.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(k.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Filter), nil
}

func (r *MemKits) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter kit.Filter) (int64, error) {
	filter.Page, filter.PageSize = 1, 100
	all, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(all)), nil
}

func (r *MemKits) Save(_ context.Context, k *kit.Kit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *k
	cp.Items = append([]kit.LineItem(nil), k.Items...)
	cp.ClearDomainEvents()
	r.items[k.ID] = cp
	return nil
}

func (r *MemKits) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.items[id]
	if !ok || k.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func page[T any](items []T, filter shared.Filter) []T {
	start := filter.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + filter.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var (
	_ stock.MaterialRepository   = (*MemMaterials)(nil)
	_ stock.MovementRepository   = (*MemMovements)(nil)
	_ project.QuoteRepository    = (*MemQuotes)(nil)
	_ project.ProjectRepository  = (*MemProjects)(nil)
	_ sales.SaleRepository       = (*MemSales)(nil)
	_ sales.ReceivableRepository = (*MemReceivables)(nil)
	_ kit.Repository             = (*MemKits)(nil)
)
