package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qitafauto/qitaf-backend/api/controllers"
	"github.com/qitafauto/qitaf-backend/api/middleware"
	"github.com/qitafauto/qitaf-backend/internal/catalog"
	"github.com/qitafauto/qitaf-backend/internal/orders"
	"github.com/qitafauto/qitaf-backend/internal/promotions"
	"github.com/qitafauto/qitaf-backend/internal/users"
	"github.com/qitafauto/qitaf-backend/pkg/config"
	"github.com/qitafauto/qitaf-backend/pkg/db"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
	"github.com/qitafauto/qitaf-backend/pkg/redis"
)

// RouterParams bundle the dependencies the HTTP surface needs.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Users      users.Service
	Catalog    catalog.Service
	Orders     orders.Service
	Promotions promotions.Service
	Metrics    prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	authed := middleware.Auth(cfg.JWT, logg)
	staff := middleware.RequireStaff(logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.Users, logg))
		r.Post("/login", controllers.AuthLogin(p.Users, logg))
		r.With(authed).Get("/me", controllers.AuthProfile(p.Users, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.Catalog, logg))
		r.Get("/{productId}", controllers.ProductsDetail(p.Catalog, logg))
		r.Get("/{productId}/reviews", controllers.ProductsReviews(p.Catalog, logg))
		r.With(authed).Post("/{productId}/reviews", controllers.ProductsCreateReview(p.Catalog, logg))
	})

	r.Route("/api/v1/banners", func(r chi.Router) {
		r.Get("/", controllers.BannersList(p.Promotions, logg))
	})

	r.Route("/api/v1/promotions", func(r chi.Router) {
		r.Get("/", controllers.PromotionsList(p.Promotions, logg))
		r.Post("/validate", controllers.PromotionsValidate(p.Promotions, logg))
		r.Post("/redeem", controllers.PromotionsRedeem(p.Promotions, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		// Guests place orders too, so creation tolerates a missing token.
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Post("/", controllers.OrdersCreate(p.Orders, logg))

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Get("/", controllers.OrdersList(p.Orders, logg))
			r.Get("/{orderNumber}", controllers.OrdersGet(p.Orders, logg))
			r.Get("/{orderNumber}/history", controllers.OrdersHistory(p.Orders, logg))
			r.Post("/{orderNumber}/cancel", controllers.OrdersCancel(p.Orders, logg))
		})
	})

	r.Route("/api/admin/v1/orders", func(r chi.Router) {
		r.Use(authed, staff)
		r.Post("/{orderNumber}/payments", controllers.OrdersRecordPayment(p.Orders, logg))
		r.Patch("/{orderNumber}/status", controllers.OrdersUpdateStatus(p.Orders, logg))
	})

	return r
}
