package services

import (
	"context"
	"sort"
	"strings"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// fakeRepoManager is an in-memory repositories.RepositoryManager for
// exercising services without a database.
type fakeRepoManager struct {
	products map[string]*models.Product
	users    map[string]*models.User
	orders   map[string]*models.Order
	notices  map[string]*models.DemandNotice
	quotes   map[string]*models.Quotation

	commission *models.CommissionSetting
	taxes      []models.TaxSetting
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		products: map[string]*models.Product{},
		users:    map[string]*models.User{},
		orders:   map[string]*models.Order{},
		notices:  map[string]*models.DemandNotice{},
		quotes:   map[string]*models.Quotation{},
	}
}

func (m *fakeRepoManager) Products() repositories.ProductRepository          { return &fakeProductRepo{m} }
func (m *fakeRepoManager) Users() repositories.UserRepository                { return &fakeUserRepo{m} }
func (m *fakeRepoManager) Orders() repositories.OrderRepository              { return &fakeOrderRepo{m} }
func (m *fakeRepoManager) DemandNotices() repositories.DemandNoticeRepository {
	return &fakeDemandNoticeRepo{m}
}
func (m *fakeRepoManager) Quotations() repositories.QuotationRepository { return &fakeQuotationRepo{m} }
func (m *fakeRepoManager) Settings() repositories.SettingsRepository    { return &fakeSettingsRepo{m} }

func (m *fakeRepoManager) WithTransaction(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	return fn(m)
}

func (m *fakeRepoManager) Close() error                     { return nil }
func (m *fakeRepoManager) Health(ctx context.Context) error { return nil }

type fakeProductRepo struct{ m *fakeRepoManager }

func (r *fakeProductRepo) Create(ctx context.Context, product *models.Product) error {
	for _, existing := range r.m.products {
		if existing.SKU == product.SKU {
			return repositories.DuplicateError("product", "sku", product.SKU)
		}
	}
	copied := *product
	r.m.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product, ok := r.m.products[id]
	if !ok {
		return nil, repositories.NotFoundError("product", id)
	}
	copied := *product
	return &copied, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	for _, product := range r.m.products {
		if product.SKU == sku {
			copied := *product
			return &copied, nil
		}
	}
	return nil, repositories.NotFoundError("product", sku)
}

func (r *fakeProductRepo) Update(ctx context.Context, product *models.Product) error {
	if _, ok := r.m.products[product.ID]; !ok {
		return repositories.NotFoundError("product", product.ID)
	}
	copied := *product
	r.m.products[product.ID] = &copied
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.m.products[id]; !ok {
		return repositories.NotFoundError("product", id)
	}
	delete(r.m.products, id)
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, filters repositories.ProductFilters) ([]*models.Product, error) {
	var products []*models.Product
	for _, product := range r.m.products {
		if filters.Category != nil && product.Category != *filters.Category {
			continue
		}
		if filters.Query != nil && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(*filters.Query)) {
			continue
		}
		copied := *product
		products = append(products, &copied)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (r *fakeProductRepo) AdjustStock(ctx context.Context, id string, delta int) error {
	product, ok := r.m.products[id]
	if !ok {
		return repositories.NotFoundError("product", id)
	}
	if product.QuantityInStock+delta < 0 {
		return repositories.InsufficientStockError(id, -delta)
	}
	product.QuantityInStock += delta
	return nil
}

type fakeUserRepo struct{ m *fakeRepoManager }

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.m.users {
		if existing.Username == user.Username {
			return repositories.DuplicateError("user", "username", user.Username)
		}
	}
	copied := *user
	r.m.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.m.users[id]
	if !ok {
		return nil, repositories.NotFoundError("user", id)
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.NotFoundError("user", username)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.m.users[user.ID]; !ok {
		return repositories.NotFoundError("user", user.ID)
	}
	copied := *user
	r.m.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.m.users[id]; !ok {
		return repositories.NotFoundError("user", id)
	}
	delete(r.m.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	for _, user := range r.m.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

type fakeOrderRepo struct{ m *fakeRepoManager }

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	copied := *order
	r.m.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	order, ok := r.m.orders[id]
	if !ok {
		return nil, repositories.NotFoundError("order", id)
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	stored, ok := r.m.orders[order.ID]
	if !ok {
		return repositories.NotFoundError("order", order.ID)
	}
	if stored.Version != order.Version {
		return repositories.ConcurrencyError("order", order.ID)
	}
	order.Version++
	copied := *order
	r.m.orders[order.ID] = &copied
	return nil
}

func (r *fakeOrderRepo) List(ctx context.Context, filters repositories.OrderFilters) ([]*models.Order, error) {
	var orders []*models.Order
	for _, order := range r.m.orders {
		if len(filters.Statuses) > 0 && !containsOrderStatus(filters.Statuses, order.Status) {
			continue
		}
		if filters.SalespersonID != nil {
			id := *filters.SalespersonID
			secondary := order.SecondarySalespersonID != nil && *order.SecondarySalespersonID == id
			if order.PrimarySalespersonID != id && !secondary {
				continue
			}
		}
		if filters.CreatedAfter != nil && order.CreatedAt.Before(*filters.CreatedAfter) {
			continue
		}
		if filters.CreatedBefore != nil && order.CreatedAt.After(*filters.CreatedBefore) {
			continue
		}
		copied := *order
		orders = append(orders, &copied)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func containsOrderStatus(statuses []models.OrderStatus, status models.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeDemandNoticeRepo struct{ m *fakeRepoManager }

func (r *fakeDemandNoticeRepo) Create(ctx context.Context, notice *models.DemandNotice) error {
	if err := notice.Validate(); err != nil {
		return repositories.ValidationError("demand_notice", notice.ID, err)
	}
	copied := *notice
	r.m.notices[notice.ID] = &copied
	return nil
}

func (r *fakeDemandNoticeRepo) GetByID(ctx context.Context, id string) (*models.DemandNotice, error) {
	notice, ok := r.m.notices[id]
	if !ok {
		return nil, repositories.NotFoundError("demand_notice", id)
	}
	copied := *notice
	return &copied, nil
}

func (r *fakeDemandNoticeRepo) Update(ctx context.Context, notice *models.DemandNotice) error {
	stored, ok := r.m.notices[notice.ID]
	if !ok {
		return repositories.NotFoundError("demand_notice", notice.ID)
	}
	if stored.Version != notice.Version {
		return repositories.ConcurrencyError("demand_notice", notice.ID)
	}
	notice.Version++
	copied := *notice
	r.m.notices[notice.ID] = &copied
	return nil
}

func (r *fakeDemandNoticeRepo) List(ctx context.Context, filters repositories.DemandNoticeFilters) ([]*models.DemandNotice, error) {
	var notices []*models.DemandNotice
	for _, notice := range r.m.notices {
		if filters.SalespersonID != nil && notice.SalespersonID != *filters.SalespersonID {
			continue
		}
		if filters.CreatedAfter != nil && notice.CreatedAt.Before(*filters.CreatedAfter) {
			continue
		}
		if filters.CreatedBefore != nil && notice.CreatedAt.After(*filters.CreatedBefore) {
			continue
		}
		copied := *notice
		notices = append(notices, &copied)
	}
	sort.Slice(notices, func(i, j int) bool { return notices[i].CreatedAt.After(notices[j].CreatedAt) })
	return notices, nil
}

type fakeQuotationRepo struct{ m *fakeRepoManager }

func (r *fakeQuotationRepo) Create(ctx context.Context, quotation *models.Quotation) error {
	copied := *quotation
	r.m.quotes[quotation.ID] = &copied
	return nil
}

func (r *fakeQuotationRepo) GetByID(ctx context.Context, id string) (*models.Quotation, error) {
	quotation, ok := r.m.quotes[id]
	if !ok {
		return nil, repositories.NotFoundError("quotation", id)
	}
	copied := *quotation
	copied.Items = append([]models.QuotationItem(nil), quotation.Items...)
	return &copied, nil
}

func (r *fakeQuotationRepo) Update(ctx context.Context, quotation *models.Quotation) error {
	stored, ok := r.m.quotes[quotation.ID]
	if !ok {
		return repositories.NotFoundError("quotation", quotation.ID)
	}
	if stored.Version != quotation.Version {
		return repositories.ConcurrencyError("quotation", quotation.ID)
	}
	quotation.Version++
	copied := *quotation
	copied.Items = append([]models.QuotationItem(nil), quotation.Items...)
	r.m.quotes[quotation.ID] = &copied
	return nil
}

func (r *fakeQuotationRepo) List(ctx context.Context, filters repositories.QuotationFilters) ([]*models.Quotation, error) {
	var quotations []*models.Quotation
	for _, quotation := range r.m.quotes {
		if filters.SalespersonID != nil && quotation.SalespersonID != *filters.SalespersonID {
			continue
		}
		copied := *quotation
		quotations = append(quotations, &copied)
	}
	sort.Slice(quotations, func(i, j int) bool { return quotations[i].CreatedAt.After(quotations[j].CreatedAt) })
	return quotations, nil
}

type fakeSettingsRepo struct{ m *fakeRepoManager }

func (r *fakeSettingsRepo) GetCommissionSetting(ctx context.Context) (*models.CommissionSetting, error) {
	if r.m.commission == nil {
		return &models.CommissionSetting{IsActive: false}, nil
	}
	copied := *r.m.commission
	return &copied, nil
}

func (r *fakeSettingsRepo) SaveCommissionSetting(ctx context.Context, setting *models.CommissionSetting) error {
	copied := *setting
	r.m.commission = &copied
	return nil
}

func (r *fakeSettingsRepo) GetTaxSettings(ctx context.Context) ([]models.TaxSetting, error) {
	return append([]models.TaxSetting(nil), r.m.taxes...), nil
}

func (r *fakeSettingsRepo) SaveTaxSettings(ctx context.Context, settings []models.TaxSetting) error {
	r.m.taxes = append([]models.TaxSetting(nil), settings...)
	return nil
}

// Test actors

func adminActor() *models.User {
	u := models.NewUser("admin", models.RoleAdmin)
	return u
}

func salespersonActor(username string) *models.User {
	return models.NewUser(username, models.RoleSalesperson)
}

func cashierActor(username string) *models.User {
	return models.NewUser(username, models.RoleCashier)
}

func seedProduct(m *fakeRepoManager, sku, name string, price float64, stock int) *models.Product {
	product := models.NewProduct(sku, name, "general", price, stock)
	m.products[product.ID] = product
	return product
}
