package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"resto/internal/apperrors"
	"resto/internal/models"

	"github.com/shopspring/decimal"
)

// memoryData holds every table of the in-memory store.
type memoryData struct {
	dishes    map[uint]models.Dish
	users     map[uint]models.User
	merchants map[uint]models.Merchant
	sessions  map[uint]models.Session
	orders    map[uint]models.Order
	items     map[uint][]models.OrderItem // keyed by order ID
	seq       map[string]uint
}

func newMemoryData() *memoryData {
	return &memoryData{
		dishes:    make(map[uint]models.Dish),
		users:     make(map[uint]models.User),
		merchants: make(map[uint]models.Merchant),
		sessions:  make(map[uint]models.Session),
		orders:    make(map[uint]models.Order),
		items:     make(map[uint][]models.OrderItem),
		seq:       make(map[string]uint),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.dishes {
		c.dishes[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.merchants {
		c.merchants[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.items {
		c.items[k] = append([]models.OrderItem(nil), v...)
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

func (d *memoryData) nextID(table string) uint {
	d.seq[table]++
	return d.seq[table]
}

// MemoryStore is an in-memory Store. All access is serialized behind one lock, and a
// failed Transaction restores the snapshot taken when it began.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:   &sync.Mutex{},
		data: newMemoryData(),
		now:  time.Now,
	}
}

// lock acquires the store lock unless the caller is already inside a transaction,
// which holds it for its whole duration.
func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Dishes() DishRepository        { return &MemoryDishRepository{store: s} }
func (s *MemoryStore) Users() UserRepository         { return &MemoryUserRepository{store: s} }
func (s *MemoryStore) Merchants() MerchantRepository { return &MemoryMerchantRepository{store: s} }
func (s *MemoryStore) Sessions() SessionRepository   { return &MemorySessionRepository{store: s} }
func (s *MemoryStore) Orders() OrderRepository       { return &MemoryOrderRepository{store: s} }

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// MemoryDishRepository is an in-memory implementation of DishRepository.
type MemoryDishRepository struct {
	store *MemoryStore
}

// GetAll returns all dishes ordered by id.
func (r *MemoryDishRepository) GetAll(ctx context.Context) ([]models.Dish, error) {
	defer r.store.lock()()

	dishList := make([]models.Dish, 0, len(r.store.data.dishes))
	for _, d := range r.store.data.dishes {
		dishList = append(dishList, d)
	}
	sort.Slice(dishList, func(i, j int) bool { return dishList[i].ID < dishList[j].ID })
	return dishList, nil
}

// GetByID returns a dish by its ID.
func (r *MemoryDishRepository) GetByID(ctx context.Context, id uint) (*models.Dish, error) {
	defer r.store.lock()()

	dish, ok := r.store.data.dishes[id]
	if !ok {
		return nil, fmt.Errorf("dish with ID %d: %w", id, apperrors.ErrNotFound)
	}
	return &dish, nil
}

// Create adds a new dish, assigning the next ID when none is set.
func (r *MemoryDishRepository) Create(ctx context.Context, dish *models.Dish) error {
	defer r.store.lock()()

	data := r.store.data
	if dish.ID == 0 {
		dish.ID = data.nextID("dishes")
	} else if dish.ID > data.seq["dishes"] {
		data.seq["dishes"] = dish.ID
	}
	now := r.store.now()
	dish.CreatedAt = now
	dish.UpdatedAt = now
	data.dishes[dish.ID] = *dish
	return nil
}

// Update replaces an existing dish.
func (r *MemoryDishRepository) Update(ctx context.Context, dish *models.Dish) error {
	defer r.store.lock()()

	existing, ok := r.store.data.dishes[dish.ID]
	if !ok {
		return fmt.Errorf("dish with ID %d not found for update: %w", dish.ID, apperrors.ErrNotFound)
	}
	dish.CreatedAt = existing.CreatedAt
	dish.UpdatedAt = r.store.now()
	r.store.data.dishes[dish.ID] = *dish
	return nil
}

func (r *MemoryDishRepository) Count(ctx context.Context) (int64, error) {
	defer r.store.lock()()
	return int64(len(r.store.data.dishes)), nil
}

// MemoryUserRepository is an in-memory implementation of UserRepository.
type MemoryUserRepository struct {
	store *MemoryStore
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *models.User) error {
	defer r.store.lock()()

	data := r.store.data
	for _, u := range data.users {
		if u.Username == user.Username {
			return fmt.Errorf("username '%s': %w", user.Username, apperrors.ErrConflict)
		}
	}
	user.ID = data.nextID("users")
	user.CreatedAt = r.store.now()
	data.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer r.store.lock()()

	for _, u := range r.store.data.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with username %s: %w", username, apperrors.ErrNotFound)
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer r.store.lock()()

	u, ok := r.store.data.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d: %w", id, apperrors.ErrNotFound)
	}
	return &u, nil
}

// MemoryMerchantRepository is an in-memory implementation of MerchantRepository.
type MemoryMerchantRepository struct {
	store *MemoryStore
}

func (r *MemoryMerchantRepository) Create(ctx context.Context, merchant *models.Merchant) error {
	defer r.store.lock()()

	data := r.store.data
	for _, m := range data.merchants {
		if m.Username == merchant.Username {
			return fmt.Errorf("merchant username '%s': %w", merchant.Username, apperrors.ErrConflict)
		}
	}
	merchant.ID = data.nextID("merchants")
	merchant.CreatedAt = r.store.now()
	data.merchants[merchant.ID] = *merchant
	return nil
}

func (r *MemoryMerchantRepository) GetByUsername(ctx context.Context, username string) (*models.Merchant, error) {
	defer r.store.lock()()

	for _, m := range r.store.data.merchants {
		if m.Username == username {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("merchant with username %s: %w", username, apperrors.ErrNotFound)
}

func (r *MemoryMerchantRepository) GetByID(ctx context.Context, id uint) (*models.Merchant, error) {
	defer r.store.lock()()

	m, ok := r.store.data.merchants[id]
	if !ok {
		return nil, fmt.Errorf("merchant with ID %d: %w", id, apperrors.ErrNotFound)
	}
	return &m, nil
}

// MemorySessionRepository is an in-memory implementation of SessionRepository.
type MemorySessionRepository struct {
	store *MemoryStore
}

func (r *MemorySessionRepository) Create(ctx context.Context, session *models.Session) error {
	defer r.store.lock()()

	if session.Kind() == "" {
		return apperrors.Storage("create session", fmt.Errorf("session must reference exactly one principal"))
	}
	data := r.store.data
	for _, s := range data.sessions {
		if s.Token == session.Token {
			return apperrors.Storage("create session", fmt.Errorf("duplicate session token"))
		}
	}
	session.ID = data.nextID("sessions")
	session.CreatedAt = r.store.now()
	data.sessions[session.ID] = *session
	return nil
}

func (r *MemorySessionRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	defer r.store.lock()()

	for _, s := range r.store.data.sessions {
		if s.Token == token && s.ExpiresAt.After(now) {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session: %w", apperrors.ErrNotFound)
}

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	store *MemoryStore
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	defer r.store.lock()()

	data := r.store.data
	if order.UserID != nil {
		if _, ok := data.users[*order.UserID]; !ok {
			return apperrors.Storage("create order", fmt.Errorf("user %d does not exist", *order.UserID))
		}
	}
	order.ID = data.nextID("orders")
	now := r.store.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	header := *order
	header.Items = nil
	data.orders[order.ID] = header
	return nil
}

func (r *MemoryOrderRepository) AddItem(ctx context.Context, item *models.OrderItem) error {
	defer r.store.lock()()

	data := r.store.data
	if _, ok := data.orders[item.OrderID]; !ok {
		return apperrors.Storage("add item", fmt.Errorf("order %d does not exist", item.OrderID))
	}
	if _, ok := data.dishes[item.DishID]; !ok {
		return apperrors.Storage("add item", fmt.Errorf("dish %d does not exist", item.DishID))
	}
	item.ID = data.nextID("order_items")
	data.items[item.OrderID] = append(data.items[item.OrderID], *item)
	return nil
}

func (r *MemoryOrderRepository) SetTotal(ctx context.Context, id uint, total decimal.Decimal) error {
	defer r.store.lock()()

	order, ok := r.store.data.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %d: %w", id, apperrors.ErrNotFound)
	}
	order.Total = total
	order.UpdatedAt = r.store.now()
	r.store.data.orders[id] = order
	return nil
}

// withItems returns a copy of the stored header with its items attached.
func (r *MemoryOrderRepository) withItems(order models.Order) models.Order {
	order.Items = append([]models.OrderItem{}, r.store.data.items[order.ID]...)
	return order
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	defer r.store.lock()()

	order, ok := r.store.data.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %d: %w", id, apperrors.ErrNotFound)
	}
	order = r.withItems(order)
	return &order, nil
}

func (r *MemoryOrderRepository) list(keep func(models.Order) bool) []models.Order {
	orderList := make([]models.Order, 0, len(r.store.data.orders))
	for _, o := range r.store.data.orders {
		if keep(o) {
			orderList = append(orderList, r.withItems(o))
		}
	}
	sort.Slice(orderList, func(i, j int) bool { return orderList[i].ID > orderList[j].ID })
	return orderList
}

func (r *MemoryOrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	defer r.store.lock()()
	return r.list(func(models.Order) bool { return true }), nil
}

func (r *MemoryOrderRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Order, error) {
	defer r.store.lock()()
	return r.list(func(o models.Order) bool { return o.OwnedBy(userID) }), nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	defer r.store.lock()()

	order, ok := r.store.data.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %d not found for status update: %w", id, apperrors.ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = r.store.now()
	r.store.data.orders[id] = order
	return nil
}

func (r *MemoryOrderRepository) MarkPickupNotified(ctx context.Context, id uint) (bool, error) {
	defer r.store.lock()()

	order, ok := r.store.data.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %d: %w", id, apperrors.ErrNotFound)
	}
	if order.PickupNotified {
		return false, nil
	}
	order.PickupNotified = true
	order.UpdatedAt = r.store.now()
	r.store.data.orders[id] = order
	return true, nil
}
