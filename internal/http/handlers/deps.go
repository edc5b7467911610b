package handlers

import (
	"github.com/jmoiron/sqlx"

	"canteen/internal/config"
	"canteen/internal/events"
	"canteen/internal/repos"
	"canteen/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Queries *services.OrderQueryService

	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	OrderHandler   *OrderHandler
	AdminHandler   *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, pub events.Publisher) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	authSvc := services.NewAuthService(userRepo)
	catalogSvc := services.NewCatalogService(prodRepo)
	orderSvc := services.NewOrderService(db, prodRepo, orderRepo, pub)
	orderSvc.RequireAvailable = cfg.RequireAvailable
	querySvc := services.NewOrderQueryService(orderRepo, prodRepo)

	return &Deps{
		Auth:    authSvc,
		Catalog: catalogSvc,
		Orders:  orderSvc,
		Queries: querySvc,

		AuthHandler:    &AuthHandler{Auth: authSvc, SecureCookie: cfg.CookieSecure},
		ProductHandler: &ProductHandler{Catalog: catalogSvc},
		OrderHandler:   &OrderHandler{Orders: orderSvc, Queries: querySvc},
		AdminHandler:   &AdminHandler{Orders: orderSvc, Queries: querySvc},
	}
}
