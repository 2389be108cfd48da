package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/grocer/internal/config"
	"github.com/example/grocer/internal/database"
	"github.com/example/grocer/internal/handlers"
	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/repository"
	"github.com/example/grocer/internal/routes"
	"github.com/example/grocer/internal/services"
	"github.com/example/grocer/internal/utils"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	lg := zap.NewNop()

	carts := repository.NewCartRepository(db)
	products := repository.NewProductRepository(db)
	discounts := services.NewDiscountService(repository.NewOfferRepository(db))
	orders := services.NewOrderService(
		repository.NewTransactor(db),
		carts,
		products,
		repository.NewOrderRepository(db),
		discounts,
		lg,
	)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(lg)})
	routes.Register(app, routes.Deps{
		DB:        db,
		Config:    cfg,
		Logger:    lg,
		Carts:     services.NewCartService(carts, products),
		Discounts: discounts,
		Orders:    orders,
	})

	return &testEnv{app: app, db: db, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

// createUser inserts a user directly and returns an access token for it.
func (e *testEnv) createUser(t *testing.T, role string) (models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	email := uuid.NewString()[:8] + "@example.com"
	user := models.User{UserName: "user-" + uuid.NewString()[:8], Email: &email, PasswordHash: hash, RoleType: role}
	require.NoError(t, e.db.Create(&user).Error)

	token, err := utils.GenerateToken(e.cfg.JWTSecret, utils.Identity{
		ID:       user.ID,
		UserName: user.UserName,
		Email:    email,
		RoleType: role,
	}, utils.AccessToken, time.Hour)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedCategory(t *testing.T) models.Category {
	t.Helper()

	category := models.Category{Name: "Vegetables " + uuid.NewString()[:6], Slug: "vegetables-" + uuid.NewString()[:6], IsActive: true}
	require.NoError(t, e.db.Create(&category).Error)
	return category
}

func (e *testEnv) seedProduct(t *testing.T, price string) models.Product {
	t.Helper()

	category := e.seedCategory(t)
	product := models.Product{
		Name:        "Tomatoes",
		Slug:        "tomatoes-" + uuid.NewString()[:8],
		Brand:       models.DefaultBrand,
		CategoryID:  &category.ID,
		IsAvailable: true,
		Variants: []models.ProductVariant{
			{Unit: "1kg", Price: decimal.RequireFromString(price), StockQty: 50, Packaging: "box"},
		},
	}
	require.NoError(t, e.db.Create(&product).Error)
	return product
}

func (e *testEnv) seedOffer(t *testing.T, code, percentage string, maxDiscount *string) models.Offer {
	t.Helper()

	offer := models.Offer{
		Name:               code + " offer",
		Code:               &code,
		DiscountPercentage: decimal.RequireFromString(percentage),
		StartDate:          time.Now().Add(-time.Hour),
		EndDate:            time.Now().Add(24 * time.Hour),
		Status:             models.OfferActive,
		MaxUsageCount:      40,
	}
	if maxDiscount != nil {
		offer.MaxDiscountAmount = decimal.NewNullDecimal(decimal.RequireFromString(*maxDiscount))
	}
	require.NoError(t, e.db.Create(&offer).Error)
	return offer
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	register := map[string]string{
		"userName": "alice",
		"email":    "Alice@Example.com",
		"password": "secret123",
	}
	resp, body := env.do(t, http.MethodPost, "/api/auth/register", register, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, body.Success)

	resp, body = env.do(t, http.MethodPost, "/api/auth/register", register, "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.False(t, body.Success)

	resp, body = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, body, &login)
	assert.NotEmpty(t, login.Token)

	var names []string
	for _, cookie := range resp.Cookies() {
		names = append(names, cookie.Name)
	}
	assert.Contains(t, names, "accessToken")
	assert.Contains(t, names, "refreshToken")

	resp, _ = env.do(t, http.MethodGet, "/api/auth/me", nil, login.Token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	env := setupApp(t)

	resp, body := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"userName": "bob",
		"password": "123",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Errors)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := setupApp(t)
	_, customer := env.createUser(t, models.RoleCustomer)

	category := map[string]interface{}{"name": "Dairy", "image": "https://cdn.example.com/dairy.png"}

	resp, _ := env.do(t, http.MethodPost, "/api/categories", category, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/categories", category, customer)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/admin/stats", nil, customer)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestCreateCategorySlugs(t *testing.T) {
	env := setupApp(t)
	_, admin := env.createUser(t, models.RoleAdmin)

	create := func(name string) (*http.Response, models.Category) {
		resp, body := env.do(t, http.MethodPost, "/api/categories", map[string]interface{}{
			"name":  name,
			"image": "https://cdn.example.com/fruit.png",
		}, admin)
		var category models.Category
		if resp.StatusCode == fiber.StatusCreated {
			decodeData(t, body, &category)
		}
		return resp, category
	}

	resp, first := create("Fresh Fruit")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "fresh-fruit", first.Slug)
	assert.Equal(t, models.CategoryMain, first.Type)

	resp, second := create("Fresh Fruit!")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "fresh-fruit-1", second.Slug)

	resp, _ = create("fresh fruit")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []models.Category
	decodeData(t, body, &list)
	assert.Len(t, list, 2)
}

func TestCreateProductValidation(t *testing.T) {
	env := setupApp(t)
	_, admin := env.createUser(t, models.RoleAdmin)
	category := env.seedCategory(t)

	product := func(categoryID string, images []string) map[string]interface{} {
		return map[string]interface{}{
			"name":     "Basmati Rice",
			"category": categoryID,
			"images":   images,
			"variants": []map[string]interface{}{
				{"unit": "5kg", "price": 12.5, "stockQty": 10, "packaging": "bag"},
			},
		}
	}

	tests := []struct {
		name   string
		body   map[string]interface{}
		status int
	}{
		{
			name:   "two images",
			body:   product(category.ID.String(), []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}),
			status: fiber.StatusBadRequest,
		},
		{
			name:   "unknown category",
			body:   product(uuid.NewString(), nil),
			status: fiber.StatusBadRequest,
		},
		{
			name:   "no images",
			body:   product(category.ID.String(), nil),
			status: fiber.StatusCreated,
		},
		{
			name:   "single image",
			body:   product(category.ID.String(), []string{"https://cdn.example.com/a.png"}),
			status: fiber.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/products", tt.body, admin)
			assert.Equal(t, tt.status, resp.StatusCode, body.Message)
		})
	}

	resp, body := env.do(t, http.MethodGet, "/api/products?search=basmati", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []models.Product
	decodeData(t, body, &list)
	require.Len(t, list, 2)
	assert.Equal(t, models.DefaultBrand, list[0].Brand)
	assert.NotEqual(t, list[0].Slug, list[1].Slug)
}

func TestListProductsRejectsUnknownSort(t *testing.T) {
	env := setupApp(t)

	resp, _ := env.do(t, http.MethodGet, "/api/products?sortField=password", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestOfferValidateAndApply(t *testing.T) {
	env := setupApp(t)
	env.seedOffer(t, "SAVE20", "20", nil)
	capAt := "50"
	env.seedOffer(t, "BIG50", "50", &capAt)

	resp, body := env.do(t, http.MethodGet, "/api/offers/validate/save20", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "promo code is valid", body.Message)

	resp, _ = env.do(t, http.MethodGet, "/api/offers/validate/NOPE", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	tests := []struct {
		code      string
		wantDisc  string
		wantFinal string
	}{
		{code: "SAVE20", wantDisc: "100", wantFinal: "400"},
		{code: "big50", wantDisc: "50", wantFinal: "450"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			resp, body := env.do(t, http.MethodPost, "/api/offers/apply-discount", map[string]interface{}{
				"code":        tt.code,
				"totalAmount": 500,
			}, "")
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			var got struct {
				DiscountAmount decimal.Decimal `json:"discountAmount"`
				FinalAmount    decimal.Decimal `json:"finalAmount"`
			}
			decodeData(t, body, &got)
			assert.True(t, decimal.RequireFromString(tt.wantDisc).Equal(got.DiscountAmount), got.DiscountAmount.String())
			assert.True(t, decimal.RequireFromString(tt.wantFinal).Equal(got.FinalAmount), got.FinalAmount.String())
		})
	}
}

func TestCheckoutFlow(t *testing.T) {
	env := setupApp(t)
	user, token := env.createUser(t, models.RoleCustomer)
	product := env.seedProduct(t, "250")
	offer := env.seedOffer(t, "SAVE20", "20", nil)

	resp, body := env.do(t, http.MethodPost, "/api/cart", map[string]interface{}{
		"productId":       product.ID.String(),
		"selectedVariant": map[string]string{"unit": "1kg"},
		"quantity":        2,
	}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)

	resp, _ = env.do(t, http.MethodPost, "/api/cart", map[string]interface{}{
		"productId":       product.ID.String(),
		"selectedVariant": map[string]string{"unit": "3kg"},
		"quantity":        1,
	}, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodPost, "/api/orders", map[string]interface{}{
		"code": "save20",
		"shippingAddress": map[string]string{
			"fullName": "Alice Doe",
			"phone":    "+15550100",
			"line1":    "1 Market St",
			"city":     "Springfield",
		},
	}, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var order models.Order
	decodeData(t, body, &order)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.True(t, decimal.RequireFromString("500").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("100").Equal(order.DiscountAmount))
	assert.True(t, decimal.RequireFromString("400").Equal(order.TotalAmount))
	assert.Equal(t, "Springfield", order.ShippingAddress.City)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Tomatoes", order.Items[0].ProductName)

	var stored models.Offer
	require.NoError(t, env.db.First(&stored, "id = ?", offer.ID).Error)
	assert.Equal(t, 1, stored.UsageCount)

	resp, body = env.do(t, http.MethodGet, "/api/cart", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cart models.Cart
	decodeData(t, body, &cart)
	assert.Empty(t, cart.Items)

	resp, _ = env.do(t, http.MethodPost, "/api/orders", map[string]interface{}{}, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/orders/"+order.ID.String(), nil, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, stranger := env.createUser(t, models.RoleCustomer)
	resp, _ = env.do(t, http.MethodGet, "/api/orders/"+order.ID.String(), nil, stranger)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	_, admin := env.createUser(t, models.RoleAdmin)
	resp, _ = env.do(t, http.MethodPut, "/api/orders/"+order.ID.String(), map[string]string{"status": "shipped"}, admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPut, "/api/orders/"+order.ID.String(), map[string]string{"status": "lost"}, admin)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutWithInvalidCodeKeepsCart(t *testing.T) {
	env := setupApp(t)
	_, token := env.createUser(t, models.RoleCustomer)
	product := env.seedProduct(t, "10")

	resp, _ := env.do(t, http.MethodPost, "/api/cart", map[string]interface{}{
		"productId":       product.ID.String(),
		"selectedVariant": map[string]string{"unit": "1kg"},
		"quantity":        1,
	}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/orders", map[string]string{"code": "BOGUS"}, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/cart", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cart models.Cart
	decodeData(t, body, &cart)
	assert.Len(t, cart.Items, 1)
}

func TestErrorHandlerTranslatesErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "fiber error", err: fiber.NewError(fiber.StatusUnauthorized, "nope"), status: fiber.StatusUnauthorized},
		{name: "validation", err: &utils.ValidationError{Fields: map[string]string{"name": "is required"}}, status: fiber.StatusBadRequest},
		{name: "invalid line", err: &services.InvalidLineError{ProductID: uuid.New(), Unit: "1kg", Reason: "gone"}, status: fiber.StatusBadRequest},
		{name: "cart empty", err: services.ErrCartEmpty, status: fiber.StatusBadRequest},
		{name: "invalid offer", err: services.ErrInvalidOffer, status: fiber.StatusNotFound},
		{name: "conflict", err: fmt.Errorf("save: %w", services.ErrCartConflict), status: fiber.StatusConflict},
		{name: "record not found", err: gorm.ErrRecordNotFound, status: fiber.StatusNotFound},
		{name: "duplicate", err: gorm.ErrDuplicatedKey, status: fiber.StatusConflict},
		{name: "unexpected", err: fmt.Errorf("boom"), status: fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zap.NewNop())})
			app.Get("/", func(*fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body envelope
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
			if tt.status == fiber.StatusInternalServerError {
				assert.Equal(t, "internal server error", body.Message)
			}
		})
	}
}

func TestResetPassword(t *testing.T) {
	env := setupApp(t)
	user, _ := env.createUser(t, models.RoleCustomer)

	resp, _ := env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": user.EmailValue()}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.User
	require.NoError(t, env.db.First(&stored, "id = ?", user.ID).Error)
	assert.NotEmpty(t, stored.ResetPasswordToken)
	require.NotNil(t, stored.ResetPasswordExpires)

	token, digest, err := utils.NewResetToken()
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&stored).Update("reset_password_token", digest).Error)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":       "not-the-token",
		"newPassword": "newsecret",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": "newsecret",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    user.EmailValue(),
		"password": "newsecret",
	}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":       token,
		"newPassword": "another1",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAddressBook(t *testing.T) {
	env := setupApp(t)
	_, token := env.createUser(t, models.RoleCustomer)

	add := func(label string) models.UserAddress {
		resp, body := env.do(t, http.MethodPost, "/api/user/address", map[string]interface{}{
			"label":    label,
			"fullName": "Alice Doe",
			"phone":    "+15550100",
			"line1":    label + " street 1",
			"city":     "Springfield",
		}, token)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)
		var address models.UserAddress
		decodeData(t, body, &address)
		return address
	}

	home := add("home")
	assert.True(t, home.IsDefault)
	work := add("work")
	assert.False(t, work.IsDefault)

	resp, body := env.do(t, http.MethodPatch, "/api/user/address/"+work.ID.String()+"/set-default", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)

	defaults := func() []uuid.UUID {
		var ids []uuid.UUID
		require.NoError(t, env.db.Model(&models.UserAddress{}).Where("is_default = ?", true).Pluck("id", &ids).Error)
		return ids
	}
	assert.Equal(t, []uuid.UUID{work.ID}, defaults())

	resp, _ = env.do(t, http.MethodDelete, "/api/user/address/"+work.ID.String(), nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []uuid.UUID{home.ID}, defaults())

	_, stranger := env.createUser(t, models.RoleCustomer)
	resp, _ = env.do(t, http.MethodDelete, "/api/user/address/"+home.ID.String(), nil, stranger)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/user/addresses", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list []models.UserAddress
	decodeData(t, body, &list)
	assert.Len(t, list, 1)
}

func TestUpdateOfferMaxDiscount(t *testing.T) {
	env := setupApp(t)
	_, admin := env.createUser(t, models.RoleAdmin)
	capAt := "50"
	offer := env.seedOffer(t, "HALF", "50", &capAt)
	path := "/api/offers/" + offer.ID.String()

	stored := func() models.Offer {
		var o models.Offer
		require.NoError(t, env.db.First(&o, "id = ?", offer.ID).Error)
		return o
	}

	resp, body := env.do(t, http.MethodPut, path, map[string]interface{}{"name": "Half off"}, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	got := stored()
	assert.Equal(t, "Half off", got.Name)
	require.True(t, got.MaxDiscountAmount.Valid)
	assert.True(t, decimal.RequireFromString("50").Equal(got.MaxDiscountAmount.Decimal))

	resp, body = env.do(t, http.MethodPut, path, map[string]interface{}{"maxDiscountAmount": 80}, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	assert.True(t, decimal.RequireFromString("80").Equal(stored().MaxDiscountAmount.Decimal))

	resp, body = env.do(t, http.MethodPut, path, map[string]interface{}{"maxDiscountAmount": nil}, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, body.Message)
	assert.False(t, stored().MaxDiscountAmount.Valid)

	resp, body = env.do(t, http.MethodPost, "/api/offers/apply-discount", map[string]interface{}{
		"code":        "HALF",
		"totalAmount": 500,
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var applied struct {
		DiscountAmount decimal.Decimal `json:"discountAmount"`
	}
	decodeData(t, body, &applied)
	assert.True(t, decimal.RequireFromString("250").Equal(applied.DiscountAmount), applied.DiscountAmount.String())
}
