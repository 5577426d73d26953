package api

// ProductStatus is the server-side lifecycle of a product in a list.
type ProductStatus int

const (
	StatusPending   ProductStatus = 1
	StatusInCart    ProductStatus = 2
	StatusPurchased ProductStatus = 3
)

func (s ProductStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInCart:
		return "In cart"
	case StatusPurchased:
		return "Purchased"
	default:
		return "Unknown"
	}
}

// Sort orders accepted by GET /api/shoppinglists.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortName   = "name"
)

// Source tags reported by the server.
const (
	SourceManual    = "manual"
	SourceGenerated = "generated"
)

type RegisterRequest struct {
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	UserName           string   `json:"userName"`
	HouseholdSize      *int     `json:"householdSize,omitempty"`
	Ages               []int    `json:"ages,omitempty"`
	DietaryPreferences []string `json:"dietaryPreferences,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName"`
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
}

type UserProfileResponse struct {
	ID                 int64    `json:"id"`
	Email              string   `json:"email"`
	UserName           string   `json:"userName"`
	HouseholdSize      *int     `json:"householdSize,omitempty"`
	Ages               []int    `json:"ages,omitempty"`
	DietaryPreferences []string `json:"dietaryPreferences,omitempty"`
	CreatedAt          string   `json:"createdAt"`
	ListsCount         int      `json:"listsCount"`
}

// UpdateProfileRequest omits household size and ages when HouseholdSize is nil.
type UpdateProfileRequest struct {
	UserName           string   `json:"userName"`
	HouseholdSize      *int     `json:"householdSize,omitempty"`
	Ages               []int    `json:"ages,omitempty"`
	DietaryPreferences []string `json:"dietaryPreferences"`
}

type ListQuery struct {
	Page     int
	PageSize int
	Sort     string
}

type ProductRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type CreateShoppingListRequest struct {
	Title               string           `json:"title,omitempty"`
	Products            []ProductRequest `json:"products,omitempty"`
	PlannedShoppingDate string           `json:"plannedShoppingDate,omitempty"`
	StoreName           string           `json:"storeName,omitempty"`
}

// UpdateProductRequest carries an ID only for products the server already knows.
type UpdateProductRequest struct {
	ID       *int64 `json:"id,omitempty"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// UpdateShoppingListRequest replaces the list wholesale.
type UpdateShoppingListRequest struct {
	Title               *string                `json:"title,omitempty"`
	Products            []UpdateProductRequest `json:"products"`
	PlannedShoppingDate *string                `json:"plannedShoppingDate,omitempty"`
	StoreName           *string                `json:"storeName,omitempty"`
}

type GenerateShoppingListRequest struct {
	Title               string `json:"title,omitempty"`
	PlannedShoppingDate string `json:"plannedShoppingDate,omitempty"`
	StoreName           string `json:"storeName,omitempty"`
}

type PaginationMetadata struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

type ShoppingListResponse struct {
	ID                  int64  `json:"id"`
	Title               string `json:"title,omitempty"`
	ProductsCount       int    `json:"productsCount"`
	PlannedShoppingDate string `json:"plannedShoppingDate,omitempty"`
	CreatedAt           string `json:"createdAt"`
	Source              string `json:"source"`
	StoreName           string `json:"storeName,omitempty"`
}

type ShoppingListsResponse struct {
	Data       []ShoppingListResponse `json:"data"`
	Pagination PaginationMetadata     `json:"pagination"`
}

type ProductInListResponse struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	StatusID  ProductStatus `json:"statusId"`
	Status    string        `json:"status"`
	CreatedAt string        `json:"createdAt"`
}

type ShoppingListDetailResponse struct {
	ID                  int64                   `json:"id"`
	Title               string                  `json:"title,omitempty"`
	StoreName           string                  `json:"storeName,omitempty"`
	PlannedShoppingDate string                  `json:"plannedShoppingDate,omitempty"`
	CreatedAt           string                  `json:"createdAt"`
	UpdatedAt           string                  `json:"updatedAt"`
	Source              string                  `json:"source"`
	ShopName            string                  `json:"shopName,omitempty"`
	Products            []ProductInListResponse `json:"products"`
}
