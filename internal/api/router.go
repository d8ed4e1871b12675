package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pesaflow/sacco-api/internal/auth"
	"github.com/pesaflow/sacco-api/internal/ledger"
	"github.com/pesaflow/sacco-api/internal/store"
)

// Deps bundles what the router needs.
type Deps struct {
	Store      *store.Store
	Ledger     *ledger.Service
	Tokens     *auth.Manager
	BcryptCost int
}

// NewRouter assembles the full API router. Register and login are
// open; everything else under /api requires a bearer token. Writes and
// cross-member reads are admin-only, member-keyed reads are restricted
// to the owner.
func NewRouter(deps Deps) chi.Router {
	authHandler := NewAuthHandler(deps.Store, deps.Tokens, deps.BcryptCost)
	usersHandler := NewUsersHandler(deps.Store)
	accountsHandler := NewAccountsHandler(deps.Store, deps.Ledger)
	transactionsHandler := NewTransactionsHandler(deps.Store, deps.Ledger)

	requireAuth := AuthMiddleware(deps.Tokens, deps.Store)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Patch("/change-password", authHandler.ChangePassword)
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users", func(r chi.Router) {
				r.With(AdminOnly).Get("/", usersHandler.List)
				r.With(AdminOnly).Post("/", usersHandler.Create)
				r.With(RestrictToOwner("id")).Get("/{id}", usersHandler.Get)
				r.With(RestrictToOwner("id")).Put("/{id}", usersHandler.Update)
				r.With(AdminOnly).Delete("/{id}", usersHandler.Delete)
				r.With(AdminOnly).Patch("/{id}/restore", usersHandler.Restore)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.With(AdminOnly).Get("/", accountsHandler.List)
				r.With(AdminOnly).Post("/", accountsHandler.Create)
				r.With(RestrictToOwner("id")).Get("/{id}", accountsHandler.Get)
				r.With(AdminOnly).Put("/{id}", accountsHandler.Update)
				r.With(AdminOnly).Delete("/{id}", accountsHandler.Delete)
				r.With(AdminOnly).Patch("/{id}/balance", accountsHandler.Balance)
				r.With(RestrictToOwner("id")).Get("/{id}/summary", accountsHandler.Summary)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.With(AdminOnly).Get("/", transactionsHandler.List)
				r.With(AdminOnly).Post("/", transactionsHandler.Create)
				// Ownership of a single transaction is checked in the
				// handler once the record is loaded.
				r.Get("/{id}", transactionsHandler.Get)
				r.With(AdminOnly).Put("/{id}", transactionsHandler.Update)
				r.With(AdminOnly).Patch("/{id}/complete", transactionsHandler.Complete)
				r.With(AdminOnly).Delete("/{id}", transactionsHandler.Delete)
				r.With(RestrictToOwner("memberNumber")).Get("/member/{memberNumber}", transactionsHandler.ListByMember)
			})
		})
	})

	return r
}
