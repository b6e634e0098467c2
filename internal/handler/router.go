package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/kittipat-dev/unilib-api/internal/middleware"
	"github.com/kittipat-dev/unilib-api/internal/model"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Logger *zerolog.Logger
	Guard  *middleware.Guard

	Auth          *AuthHandler
	Users         *UserHandler
	PasswordReset *PasswordResetHandler
	AdminReset    *PasswordResetHandler
	OTP           *OTPHandler
}

// NewRouter assembles the API routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", deps.Auth.Register)
			r.Post("/login", deps.Auth.Login)
			r.Post("/logout", deps.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(deps.Guard.Protect)

				r.Get("/me", deps.Auth.Me)
				r.Patch("/update-password", deps.Auth.UpdatePassword)
				r.Get("/{id}", deps.Users.GetUser)

				r.Group(func(r chi.Router) {
					r.Use(deps.Guard.RestrictTo(model.RoleAdmin))

					r.Get("/", deps.Users.ListUsers)
					r.Post("/", deps.Users.CreateUser)
					r.Patch("/{id}", deps.Users.UpdateUser)
					r.Delete("/{id}", deps.Users.DeleteUser)
				})
			})
		})

		r.Route("/password", func(r chi.Router) {
			r.Post("/forgot-password", deps.PasswordReset.ForgotPassword)
			r.Get("/resetpassword/{token}", deps.PasswordReset.VerifyToken)
			r.Post("/resetpassword/{token}", deps.PasswordReset.ResetPassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/forgot-password", deps.AdminReset.ForgotPassword)
			r.Get("/verify-token/{token}", deps.AdminReset.VerifyToken)
			r.Post("/reset-password/{token}", deps.AdminReset.ResetPassword)
		})

		r.Route("/otp", func(r chi.Router) {
			r.Post("/request", deps.OTP.Request)
			r.Post("/request-password-reset", deps.OTP.RequestPasswordReset)
			r.Post("/verify", deps.OTP.Verify)
			r.Post("/reset-password", deps.OTP.ResetPassword)
		})
	})

	return r
}
