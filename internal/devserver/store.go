package devserver

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"ai-shopping-list/internal/api"
)

var (
	ErrEmailExists    = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrListNotFound   = errors.New("shopping list not found")
	ErrForeignProduct = errors.New("product does not belong to the list")
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type user struct {
	id                 int64
	email              string
	passwordHash       []byte
	userName           string
	householdSize      *int
	ages               []int
	dietaryPreferences []string
	createdAt          time.Time
}

type product struct {
	id        int64
	name      string
	quantity  int
	status    api.ProductStatus
	createdAt time.Time
}

type list struct {
	id          int64
	ownerID     int64
	title       string
	storeName   string
	plannedDate string
	source      string
	createdAt   time.Time
	updatedAt   time.Time
	products    []product
}

// memoryStore keeps users and lists for the lifetime of the process.
type memoryStore struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         map[int64]*user
	byEmail       map[string]int64
	lists         map[int64]*list
	nextUserID    int64
	nextListID    int64
	nextProductID int64
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{
		now:     now,
		users:   make(map[int64]*user),
		byEmail: make(map[string]int64),
		lists:   make(map[int64]*list),
	}
}

func (s *memoryStore) createUser(email string, hash []byte, req api.RegisterRequest) (*user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.byEmail[key]; ok {
		return nil, ErrEmailExists
	}
	s.nextUserID++
	u := &user{
		id:                 s.nextUserID,
		email:              strings.TrimSpace(email),
		passwordHash:       hash,
		userName:           strings.TrimSpace(req.UserName),
		householdSize:      req.HouseholdSize,
		ages:               slices.Clone(req.Ages),
		dietaryPreferences: slices.Clone(req.DietaryPreferences),
		createdAt:          s.now().UTC(),
	}
	s.users[u.id] = u
	s.byEmail[key] = u.id
	return u, nil
}

func (s *memoryStore) userByEmail(email string) (*user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, false
	}
	u := *s.users[id]
	return &u, true
}

func (s *memoryStore) profile(userID int64) (*api.UserProfileResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	count := 0
	for _, l := range s.lists {
		if l.ownerID == userID {
			count++
		}
	}
	return &api.UserProfileResponse{
		ID:                 u.id,
		Email:              u.email,
		UserName:           u.userName,
		HouseholdSize:      u.householdSize,
		Ages:               slices.Clone(u.ages),
		DietaryPreferences: slices.Clone(u.dietaryPreferences),
		CreatedAt:          u.createdAt.Format(timeLayout),
		ListsCount:         count,
	}, nil
}

func (s *memoryStore) updateProfile(userID int64, req api.UpdateProfileRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.userName = strings.TrimSpace(req.UserName)
	u.householdSize = req.HouseholdSize
	u.ages = slices.Clone(req.Ages)
	u.dietaryPreferences = slices.Clone(req.DietaryPreferences)
	return nil
}

func (s *memoryStore) createList(ownerID int64, title, store, date, source string, items []api.ProductRequest) *api.ShoppingListDetailResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.nextListID++
	l := &list{
		id:          s.nextListID,
		ownerID:     ownerID,
		title:       title,
		storeName:   store,
		plannedDate: date,
		source:      source,
		createdAt:   now,
		updatedAt:   now,
	}
	for _, item := range items {
		s.nextProductID++
		l.products = append(l.products, product{
			id:        s.nextProductID,
			name:      strings.TrimSpace(item.Name),
			quantity:  item.Quantity,
			status:    api.StatusPending,
			createdAt: now,
		})
	}
	s.lists[l.id] = l
	return l.detail()
}

func (s *memoryStore) ownedList(ownerID, id int64) (*list, error) {
	l, ok := s.lists[id]
	if !ok || l.ownerID != ownerID {
		return nil, ErrListNotFound
	}
	return l, nil
}

func (s *memoryStore) getList(ownerID, id int64) (*api.ShoppingListDetailResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.ownedList(ownerID, id)
	if err != nil {
		return nil, err
	}
	return l.detail(), nil
}

// replaceList applies a full-state update: products sent with an id keep
// their status and creation time, products without one are created, and
// everything else is removed. Nil scalar fields are left unchanged.
func (s *memoryStore) replaceList(ownerID, id int64, req api.UpdateShoppingListRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.ownedList(ownerID, id)
	if err != nil {
		return err
	}

	existing := make(map[int64]product, len(l.products))
	for _, p := range l.products {
		existing[p.id] = p
	}

	now := s.now().UTC()
	next := make([]product, 0, len(req.Products))
	for _, item := range req.Products {
		if item.ID != nil {
			p, ok := existing[*item.ID]
			if !ok {
				return ErrForeignProduct
			}
			p.name = strings.TrimSpace(item.Name)
			p.quantity = item.Quantity
			next = append(next, p)
			continue
		}
		s.nextProductID++
		next = append(next, product{
			id:        s.nextProductID,
			name:      strings.TrimSpace(item.Name),
			quantity:  item.Quantity,
			status:    api.StatusPending,
			createdAt: now,
		})
	}

	if req.Title != nil {
		l.title = strings.TrimSpace(*req.Title)
	}
	if req.StoreName != nil {
		l.storeName = strings.TrimSpace(*req.StoreName)
	}
	if req.PlannedShoppingDate != nil {
		l.plannedDate = *req.PlannedShoppingDate
	}
	l.products = next
	l.updatedAt = now
	return nil
}

func (s *memoryStore) deleteList(ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ownedList(ownerID, id); err != nil {
		return err
	}
	delete(s.lists, id)
	return nil
}

// listPage returns one page of the owner's lists in the requested order.
func (s *memoryStore) listPage(ownerID int64, q api.ListQuery) *api.ShoppingListsResponse {
	s.mu.RLock()
	owned := make([]*list, 0)
	for _, l := range s.lists {
		if l.ownerID == ownerID {
			owned = append(owned, l)
		}
	}

	slices.SortFunc(owned, func(a, b *list) int {
		switch q.Sort {
		case api.SortOldest:
			return compareCreated(a, b)
		case api.SortName:
			if c := strings.Compare(strings.ToLower(a.title), strings.ToLower(b.title)); c != 0 {
				return c
			}
			return compareCreated(a, b)
		default:
			return compareCreated(b, a)
		}
	})

	total := len(owned)
	pages := (total + q.PageSize - 1) / q.PageSize
	start := total
	if q.Page-1 < pages {
		start = (q.Page - 1) * q.PageSize
	}
	end := min(start+q.PageSize, total)

	resp := &api.ShoppingListsResponse{
		Data: make([]api.ShoppingListResponse, 0, end-start),
		Pagination: api.PaginationMetadata{
			Page:       q.Page,
			PageSize:   q.PageSize,
			TotalItems: total,
			TotalPages: pages,
		},
	}
	for _, l := range owned[start:end] {
		resp.Data = append(resp.Data, api.ShoppingListResponse{
			ID:                  l.id,
			Title:               l.title,
			ProductsCount:       len(l.products),
			PlannedShoppingDate: l.plannedDate,
			CreatedAt:           l.createdAt.Format(timeLayout),
			Source:              l.source,
			StoreName:           l.storeName,
		})
	}
	s.mu.RUnlock()
	return resp
}

func compareCreated(a, b *list) int {
	if c := a.createdAt.Compare(b.createdAt); c != 0 {
		return c
	}
	switch {
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	}
	return 0
}

func (l *list) detail() *api.ShoppingListDetailResponse {
	d := &api.ShoppingListDetailResponse{
		ID:                  l.id,
		Title:               l.title,
		StoreName:           l.storeName,
		PlannedShoppingDate: l.plannedDate,
		CreatedAt:           l.createdAt.Format(timeLayout),
		UpdatedAt:           l.updatedAt.Format(timeLayout),
		Source:              l.source,
		ShopName:            l.storeName,
		Products:            make([]api.ProductInListResponse, 0, len(l.products)),
	}
	for _, p := range l.products {
		d.Products = append(d.Products, api.ProductInListResponse{
			ID:        p.id,
			Name:      p.name,
			Quantity:  p.quantity,
			StatusID:  p.status,
			Status:    p.status.String(),
			CreatedAt: p.createdAt.Format(timeLayout),
		})
	}
	return d
}
