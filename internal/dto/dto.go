package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/holister/holister-api/internal/model"
)

// Response is the uniform envelope every endpoint returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        model.Role `json:"role"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Address     string     `json:"address,omitempty"`
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token" binding:"required,uuid"`
	Password string `json:"password" binding:"required,min=8"`
}

// --- Catalog ---

type CreateProductRequest struct {
	SKU             string          `json:"sku" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	Category        string          `json:"category" binding:"required"`
	Gender          string          `json:"gender" binding:"omitempty,oneof=men women unisex kids"`
	SellingPrice    decimal.Decimal `json:"selling_price" binding:"required"`
	PurchasingPrice decimal.Decimal `json:"purchasing_price"`
	MaterialAndCare string          `json:"material_and_care"`
}

type UpdateProductRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	Gender          *string          `json:"gender" binding:"omitempty,oneof=men women unisex kids"`
	SellingPrice    *decimal.Decimal `json:"selling_price"`
	PurchasingPrice *decimal.Decimal `json:"purchasing_price"`
	MaterialAndCare *string          `json:"material_and_care"`
	Active          *bool            `json:"active"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	Gender   string `form:"gender" binding:"omitempty,oneof=men women unisex kids"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=name selling_price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type CreateVariantRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"required"`
}

type CreateSizeRequest struct {
	Size  string `json:"size" binding:"required"`
	Stock int    `json:"stock" binding:"min=0"`
}

type UpdateSizeRequest struct {
	Stock int `json:"stock" binding:"min=0"`
}

type SizeResponse struct {
	ID    uuid.UUID `json:"id"`
	Size  string    `json:"size"`
	Stock int       `json:"stock"`
}

type VariantResponse struct {
	ID    uuid.UUID      `json:"id"`
	Name  string         `json:"name"`
	Color string         `json:"color"`
	Stock int            `json:"stock"`
	Sizes []SizeResponse `json:"sizes"`
}

type ProductResponse struct {
	ID              uuid.UUID         `json:"id"`
	SKU             string            `json:"sku"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Category        string            `json:"category"`
	Gender          model.Gender      `json:"gender"`
	SellingPrice    decimal.Decimal   `json:"selling_price"`
	PurchasingPrice decimal.Decimal   `json:"purchasing_price"`
	ProfitMargin    decimal.Decimal   `json:"profit_margin"`
	MaterialAndCare string            `json:"material_and_care,omitempty"`
	Active          bool              `json:"active"`
	Variants        []VariantResponse `json:"variants"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	SizeID    *uuid.UUID `json:"size_id"`
	Quantity  int        `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CartItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	VariantID  *uuid.UUID      `json:"variant_id,omitempty"`
	SizeID     *uuid.UUID      `json:"size_id,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type CartResponse struct {
	ID             uuid.UUID          `json:"id"`
	Items          []CartItemResponse `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	CouponCode     string             `json:"coupon_code,omitempty"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	Total          decimal.Decimal    `json:"total"`
}

// --- Coupons ---

type CreateCouponRequest struct {
	Code                  string           `json:"code" binding:"required"`
	Description           string           `json:"description"`
	DiscountType          string           `json:"discount_type" binding:"required,oneof=percentage fixed_amount"`
	DiscountValue         decimal.Decimal  `json:"discount_value" binding:"required"`
	MaxDiscountAmount     *decimal.Decimal `json:"max_discount_amount"`
	MinimumOrderAmount    decimal.Decimal  `json:"minimum_order_amount"`
	ValidFrom             time.Time        `json:"valid_from" binding:"required"`
	ValidTo               time.Time        `json:"valid_to" binding:"required"`
	TotalUsageLimit       *int             `json:"total_usage_limit"`
	UsageLimitPerCustomer int              `json:"usage_limit_per_customer" binding:"min=1"`
	IsActive              *bool            `json:"is_active"`
}

type UpdateCouponRequest struct {
	Description           *string          `json:"description"`
	DiscountValue         *decimal.Decimal `json:"discount_value"`
	MaxDiscountAmount     *decimal.Decimal `json:"max_discount_amount"`
	MinimumOrderAmount    *decimal.Decimal `json:"minimum_order_amount"`
	ValidFrom             *time.Time       `json:"valid_from"`
	ValidTo               *time.Time       `json:"valid_to"`
	TotalUsageLimit       *int             `json:"total_usage_limit"`
	UsageLimitPerCustomer *int             `json:"usage_limit_per_customer"`
	IsActive              *bool            `json:"is_active"`
}

type ListCouponsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=active inactive valid expired"`
	Search string `form:"search"`
}

type ValidateCouponRequest struct {
	Code       string          `json:"code" binding:"required"`
	OrderTotal decimal.Decimal `json:"order_total" binding:"required"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type CouponResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Code                  string           `json:"code"`
	Description           string           `json:"description,omitempty"`
	DiscountType          string           `json:"discount_type"`
	DiscountValue         decimal.Decimal  `json:"discount_value"`
	DiscountDisplay       string           `json:"discount_display"`
	MaxDiscountAmount     *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinimumOrderAmount    decimal.Decimal  `json:"minimum_order_amount"`
	ValidFrom             time.Time        `json:"valid_from"`
	ValidTo               time.Time        `json:"valid_to"`
	TotalUsageLimit       *int             `json:"total_usage_limit,omitempty"`
	UsageLimitPerCustomer int              `json:"usage_limit_per_customer"`
	IsActive              bool             `json:"is_active"`
	TimesUsed             int              `json:"times_used"`
	CreatedAt             time.Time        `json:"created_at"`
}

type CouponListResponse struct {
	Coupons []CouponResponse `json:"coupons"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}

type CouponDiscountResponse struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

type CouponUsageStatsResponse struct {
	TotalUses     int             `json:"total_uses"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	UniqueUsers   int             `json:"unique_users"`
}

// --- Checkout / Orders ---

type AddressRequest struct {
	AddressLine1 string `json:"address_line_1" binding:"required"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

type CheckoutRequest struct {
	Email           string          `json:"email" binding:"required,email"`
	PhoneNumber     string          `json:"phone_number" binding:"required"`
	ShippingAddress AddressRequest  `json:"shipping_address" binding:"required"`
	BillingAddress  *AddressRequest `json:"billing_address"`
	Notes           string          `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	Notes  string `json:"notes"`
}

type ListOrdersRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed processing shipped delivered cancelled refunded"`
	Search string `form:"search"`
}

type OrderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	VariantID  *uuid.UUID      `json:"variant_id,omitempty"`
	SizeID     *uuid.UUID      `json:"size_id,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type StatusHistoryResponse struct {
	Status    model.OrderStatus `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	CreatedBy *uuid.UUID        `json:"created_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type AddressResponse struct {
	ID           uuid.UUID `json:"id"`
	AddressLine1 string    `json:"address_line_1"`
	AddressLine2 string    `json:"address_line_2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"is_default"`
}

type OrderResponse struct {
	ID            uuid.UUID               `json:"id"`
	OrderNumber   string                  `json:"order_number"`
	CustomerID    uuid.UUID               `json:"customer_id"`
	Status        model.OrderStatus       `json:"status"`
	PaymentStatus string                  `json:"payment_status"`
	TotalAmount   decimal.Decimal         `json:"total_amount"`
	Email         string                  `json:"email"`
	PhoneNumber   string                  `json:"phone_number"`
	Notes         string                  `json:"notes,omitempty"`
	Items         []OrderItemResponse     `json:"items"`
	StatusHistory []StatusHistoryResponse `json:"status_history,omitempty"`
	ItemCount     int                     `json:"item_count"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type OrderStatsResponse struct {
	TotalOrders       int             `json:"total_orders"`
	PendingOrders     int             `json:"pending_orders"`
	ProcessingOrders  int             `json:"processing_orders"`
	CompletedOrders   int             `json:"completed_orders"`
	CancelledOrders   int             `json:"cancelled_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type CustomerOrderStatsResponse struct {
	TotalOrders     int             `json:"total_orders"`
	CompletedOrders int             `json:"completed_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}

// --- Banners / Settings ---

type CreateBannerRequest struct {
	Title    string `json:"title" binding:"required"`
	ImageURL string `json:"image_url" binding:"required,url"`
	IsActive *bool  `json:"is_active"`
}

type UpdateBannerRequest struct {
	Title    *string `json:"title"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
	IsActive *bool   `json:"is_active"`
}

type BannerResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateSettingsRequest struct {
	Currency *string `json:"currency" binding:"omitempty,oneof=USD EUR GBP CAD AUD JPY"`
	Timezone *string `json:"timezone"`
}

type SettingsResponse struct {
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}
