package http

import (
	"net/http"

	"github.com/atinyakov/mealledger/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	Meals     *MealHandler
	SavedMeal *SavedMealHandler
	Profile   *ProfileHandler
}

// NewRouter constructs and returns an HTTP handler that serves
// the meal ledger API under /api.
//
// Routes:
//
//	POST   /api/register          → Auth.Register
//	POST   /api/login             → Auth.Login
//	GET    /api/meals             → Meals.List        (bearer)
//	POST   /api/meals             → Meals.Create      (bearer)
//	GET    /api/meals/totals      → Meals.Totals      (bearer)
//	GET    /api/meals/summary     → Meals.Summary     (bearer)
//	PATCH  /api/meals/{id}        → Meals.Update      (bearer)
//	DELETE /api/meals/{id}        → Meals.Delete      (bearer)
//	GET    /api/saved-meals       → SavedMeal.List    (bearer)
//	POST   /api/saved-meals       → SavedMeal.Create  (bearer)
//	PATCH  /api/saved-meals/{id}  → SavedMeal.Update  (bearer)
//	DELETE /api/saved-meals/{id}  → SavedMeal.Delete  (bearer)
//	GET    /api/profile           → Profile.Get       (bearer)
//	PUT    /api/profile           → Profile.Put       (bearer)
//	POST   /api/goal              → Profile.Goal      (bearer)
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects non-JSON bodies
//  2. WithRequestLogging(logger) logs every request
//  3. BearerAuth(tokens) on the protected group
func NewRouter(h Handlers, tokens middleware.TokenParser, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(tokens))

			r.Route("/meals", func(r chi.Router) {
				r.Get("/", h.Meals.List)
				r.Post("/", h.Meals.Create)
				r.Get("/totals", h.Meals.Totals)
				r.Get("/summary", h.Meals.Summary)
				r.Patch("/{id}", h.Meals.Update)
				r.Delete("/{id}", h.Meals.Delete)
			})

			r.Route("/saved-meals", func(r chi.Router) {
				r.Get("/", h.SavedMeal.List)
				r.Post("/", h.SavedMeal.Create)
				r.Patch("/{id}", h.SavedMeal.Update)
				r.Delete("/{id}", h.SavedMeal.Delete)
			})

			r.Get("/profile", h.Profile.Get)
			r.Put("/profile", h.Profile.Put)
			r.Post("/goal", h.Profile.Goal)
		})
	})

	return r
}
