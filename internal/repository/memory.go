package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/guitarshop/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Используется без DATABASE_URI и в тестах.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]*model.User // email -> user
	products map[int64]*model.Product
	orders   map[string]*model.Order
	nextID   int64
	now      func() time.Time
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]*model.User),
		products: make(map[int64]*model.Product),
		orders:   make(map[string]*model.Order),
		now:      time.Now,
	}
}

// Close ничего не делает и нужен для совместимости с PostgresRepository.
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *MemoryRepository) CreateUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Email]; ok {
		return ErrUserExists
	}

	u.CreatedAt = r.now()
	stored := *u
	r.users[u.Email] = &stored
	return nil
}

// UpsertAdmin создаёт администратора или обновляет пароль и роль существующего пользователя.
func (r *MemoryRepository) UpsertAdmin(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[u.Email]; ok {
		existing.PasswordHash = u.PasswordHash
		existing.IsAdmin = true
		u.ID = existing.ID
		u.CreatedAt = existing.CreatedAt
		u.IsAdmin = true
		return nil
	}

	u.IsAdmin = true
	u.CreatedAt = r.now()
	stored := *u
	r.users[u.Email] = &stored
	return nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	res := *u
	return &res, nil
}

// CreateProduct добавляет товар в каталог и заполняет его идентификатор.
func (r *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	r.products[p.ID] = &stored
	return nil
}

// GetProduct возвращает товар по идентификатору.
func (r *MemoryRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	res := *p
	return &res, nil
}

// ListProducts возвращает товары по возрастанию идентификатора.
func (r *MemoryRepository) ListProducts(ctx context.Context, query string) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = strings.ToLower(query)
	res := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		res = append(res, *p)
	}
	slices.SortFunc(res, func(a, b model.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return res, nil
}

// UpdateProduct перезаписывает поля товара.
func (r *MemoryRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now()
	stored := *p
	r.products[p.ID] = &stored
	return nil
}

// DeleteProduct удаляет товар, если на него не ссылается ни один заказ.
func (r *MemoryRepository) DeleteProduct(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	for _, o := range r.orders {
		for _, l := range o.Lines {
			if l.ProductID == id {
				return ErrProductInUse
			}
		}
	}

	delete(r.products, id)
	return nil
}

// InsertOrder сохраняет заказ вместе с позициями.
func (r *MemoryRepository) InsertOrder(ctx context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o.CreatedAt = r.now()
	o.UpdatedAt = o.CreatedAt
	r.orders[o.ID] = copyOrder(o)
	return nil
}

// GetOrder возвращает заказ по идентификатору. При includeLines позиции дополняются товарами.
func (r *MemoryRepository) GetOrder(ctx context.Context, id string, includeLines bool) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if !includeLines {
		res := *o
		res.Lines = nil
		return &res, nil
	}

	res := copyOrder(o)
	for i := range res.Lines {
		if p, ok := r.products[res.Lines[i].ProductID]; ok {
			product := *p
			res.Lines[i].Product = &product
		}
	}
	return res, nil
}

// ListOrders возвращает заказы начиная с самых новых.
func (r *MemoryRepository) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		res = append(res, *copyOrder(o))
	}
	slices.SortFunc(res, func(a, b model.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return res, nil
}

// UpdateOrderStatus меняет статус заказа и время его изменения.
func (r *MemoryRepository) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = r.now()
	return nil
}

func copyOrder(o *model.Order) *model.Order {
	res := *o
	res.Lines = make([]model.OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		l.Product = nil
		res.Lines[i] = l
	}
	return &res
}
