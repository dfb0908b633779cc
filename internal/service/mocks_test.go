package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/repository"
)

var errMockFailure = errors.New("mock failure")

// Mock repositories for testing

type mockUserRepository struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
	levels map[int]bool
	// salesBy marks users that sales are attributed to
	salesBy map[int64]bool
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:   make(map[int64]*domain.User),
		levels:  map[int]bool{domain.LevelAdmin: true, domain.LevelSpecial: true, domain.LevelUser: true},
		salesBy: make(map[int64]bool),
	}
}

func (m *mockUserRepository) usernameTaken(username string, except int64) bool {
	for _, u := range m.users {
		if u.Username == username && u.ID != except {
			return true
		}
	}
	return false
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usernameTaken(user.Username, 0) {
		return domain.ErrUsernameTaken
	}
	if !m.levels[user.Level] {
		return domain.ErrUnknownLevel
	}
	m.nextID++
	user.ID = m.nextID
	if user.Image == "" {
		user.Image = domain.DefaultImage
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if m.usernameTaken(user.Username, user.ID) {
		return domain.ErrUsernameTaken
	}
	stored.Name = user.Name
	stored.Username = user.Username
	stored.Level = user.Level
	stored.Active = user.Active
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.mutate(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (m *mockUserRepository) UpdateImage(ctx context.Context, id int64, image string) error {
	return m.mutate(id, func(u *domain.User) { u.Image = image })
}

func (m *mockUserRepository) UpdateStatus(ctx context.Context, id int64, active bool) error {
	return m.mutate(id, func(u *domain.User) { u.Active = active })
}

func (m *mockUserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return m.mutate(id, func(u *domain.User) { u.LastLogin = &at })
}

func (m *mockUserRepository) mutate(id int64, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(user)
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	if m.salesBy[id] {
		return domain.ErrUserHasSales
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			found := *user
			return &found, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []*domain.User{}
	for _, user := range m.users {
		found := *user
		users = append(users, &found)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type mockGroupRepository struct {
	groups map[int64]*domain.Group
	nextID int64
}

func newMockGroupRepository() *mockGroupRepository {
	m := &mockGroupRepository{groups: make(map[int64]*domain.Group)}
	for _, g := range []domain.Group{
		{Name: "Admin", Level: domain.LevelAdmin, Active: true},
		{Name: "Special", Level: domain.LevelSpecial, Active: true},
		{Name: "User", Level: domain.LevelUser, Active: true},
	} {
		group := g
		_ = m.Create(context.Background(), &group)
	}
	return m
}

func (m *mockGroupRepository) conflict(group *domain.Group) error {
	for _, g := range m.groups {
		if g.ID == group.ID {
			continue
		}
		if g.Level == group.Level {
			return domain.ErrGroupLevelTaken
		}
		if g.Name == group.Name {
			return domain.ErrGroupNameTaken
		}
	}
	return nil
}

func (m *mockGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	if err := m.conflict(group); err != nil {
		return err
	}
	m.nextID++
	group.ID = m.nextID
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *mockGroupRepository) Update(ctx context.Context, group *domain.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return domain.ErrGroupNotFound
	}
	if err := m.conflict(group); err != nil {
		return err
	}
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *mockGroupRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.groups[id]; !ok {
		return domain.ErrGroupNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepository) FindByID(ctx context.Context, id int64) (*domain.Group, error) {
	group, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

func (m *mockGroupRepository) FindByLevel(ctx context.Context, level int) (*domain.Group, error) {
	for _, group := range m.groups {
		if group.Level == level {
			return group, nil
		}
	}
	return nil, domain.ErrGroupNotFound
}

func (m *mockGroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	groups := []*domain.Group{}
	for _, group := range m.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Level < groups[j].Level })
	return groups, nil
}

type mockCategoryRepository struct {
	categories map[int64]*domain.Category
	nextID     int64
	inUse      map[int64]bool
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[int64]*domain.Category), inUse: make(map[int64]bool)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Name == category.Name {
			return domain.ErrCategoryExists
		}
	}
	m.nextID++
	category.ID = m.nextID
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	for _, c := range m.categories {
		if c.Name == category.Name && c.ID != category.ID {
			return domain.ErrCategoryExists
		}
	}
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	if m.inUse[id] {
		return domain.ErrCategoryInUse
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return c, nil
}

type mockMediaRepository struct {
	media  map[int64]*domain.Media
	nextID int64
	inUse  map[int64]bool
	failOn string
	// failCreateAt fails only the nth Create call, counting from 1
	failCreateAt int
	creates      int
}

func newMockMediaRepository() *mockMediaRepository {
	return &mockMediaRepository{media: make(map[int64]*domain.Media), inUse: make(map[int64]bool)}
}

func (m *mockMediaRepository) Create(ctx context.Context, media *domain.Media) error {
	m.creates++
	if m.failOn == "create" || m.creates == m.failCreateAt {
		return errMockFailure
	}
	m.nextID++
	media.ID = m.nextID
	media.UploadedAt = time.Now()
	stored := *media
	m.media[media.ID] = &stored
	return nil
}

func (m *mockMediaRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.media[id]; !ok {
		return domain.ErrMediaNotFound
	}
	if m.inUse[id] {
		return domain.ErrMediaInUse
	}
	delete(m.media, id)
	return nil
}

func (m *mockMediaRepository) FindByID(ctx context.Context, id int64) (*domain.Media, error) {
	media, ok := m.media[id]
	if !ok {
		return nil, domain.ErrMediaNotFound
	}
	return media, nil
}

func (m *mockMediaRepository) List(ctx context.Context) ([]*domain.Media, error) {
	list := []*domain.Media{}
	for _, media := range m.media {
		list = append(list, media)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

// mockProductRepository mirrors the conditional debit of the SQL repository.
type mockProductRepository struct {
	products map[int64]*domain.Product
	nextID   int64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[int64]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.nextID++
	product.ID = m.nextID
	product.CreatedAt = time.Now()
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	stored := *product
	m.products[product.ID] = &stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	found := *product
	return &found, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	list := []*domain.Product{}
	for _, p := range m.products {
		found := *p
		list = append(list, &found)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (m *mockProductRepository) Search(ctx context.Context, term string, limit int) ([]*domain.Product, error) {
	list := []*domain.Product{}
	for _, p := range m.products {
		if p.Quantity > 0 && len(list) < limit {
			found := *p
			list = append(list, &found)
		}
	}
	return list, nil
}

func (m *mockProductRepository) DebitStock(ctx context.Context, id int64, qty int) error {
	product, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Quantity < qty {
		return domain.ErrInsufficientStock
	}
	product.Quantity -= qty
	return nil
}

func (m *mockProductRepository) CreditStock(ctx context.Context, id int64, qty int) error {
	product, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.Quantity += qty
	return nil
}

type mockSaleRepository struct {
	sales    map[int64]*domain.Sale
	products *mockProductRepository
	nextID   int64
	failOn   string
}

func newMockSaleRepository(products *mockProductRepository) *mockSaleRepository {
	return &mockSaleRepository{sales: make(map[int64]*domain.Sale), products: products}
}

func (m *mockSaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	if m.failOn == "create" {
		return errMockFailure
	}
	if _, ok := m.products.products[sale.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	m.nextID++
	sale.ID = m.nextID
	stored := *sale
	m.sales[sale.ID] = &stored
	return nil
}

func (m *mockSaleRepository) Update(ctx context.Context, sale *domain.Sale) error {
	if m.failOn == "update" {
		return errMockFailure
	}
	if _, ok := m.sales[sale.ID]; !ok {
		return domain.ErrSaleNotFound
	}
	stored := *sale
	m.sales[sale.ID] = &stored
	return nil
}

func (m *mockSaleRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.sales[id]; !ok {
		return domain.ErrSaleNotFound
	}
	delete(m.sales, id)
	return nil
}

func (m *mockSaleRepository) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, ok := m.sales[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	found := *sale
	if p, ok := m.products.products[sale.ProductID]; ok {
		found.ProductName = p.Name
	}
	return &found, nil
}

func (m *mockSaleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Sale, error) {
	return m.FindByID(ctx, id)
}

func (m *mockSaleRepository) List(ctx context.Context, limit int) ([]*domain.Sale, error) {
	list := []*domain.Sale{}
	for id := range m.sales {
		found, _ := m.FindByID(ctx, id)
		list = append(list, found)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// mockTxRunner snapshots both mock stores and restores them when fn fails,
// which is what a rolled back transaction looks like to the caller.
type mockTxRunner struct {
	products *mockProductRepository
	sales    *mockSaleRepository
}

func (r *mockTxRunner) RunInTx(ctx context.Context, fn repository.LedgerFunc) error {
	products := make(map[int64]domain.Product, len(r.products.products))
	for id, p := range r.products.products {
		products[id] = *p
	}
	sales := make(map[int64]domain.Sale, len(r.sales.sales))
	for id, s := range r.sales.sales {
		sales[id] = *s
	}

	if err := fn(r.products, r.sales); err != nil {
		r.products.products = make(map[int64]*domain.Product, len(products))
		for id, p := range products {
			restored := p
			r.products.products[id] = &restored
		}
		r.sales.sales = make(map[int64]*domain.Sale, len(sales))
		for id, s := range sales {
			restored := s
			r.sales.sales[id] = &restored
		}
		return err
	}
	return nil
}

// memoryFileStore is an in-memory storage.FileStore.
type memoryFileStore struct {
	files map[string][]byte
}

func newMemoryFileStore() *memoryFileStore {
	return &memoryFileStore{files: make(map[string][]byte)}
}

func (s *memoryFileStore) Save(name string, data []byte) error {
	s.files[name] = data
	return nil
}

func (s *memoryFileStore) Remove(name string) error {
	delete(s.files, name)
	return nil
}

func (s *memoryFileStore) Dir() string {
	return "memory"
}
