package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/barangaylink/barangaylink-backend/internal/handlers"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Profile       *handlers.ProfileHandler
	DocumentTypes *handlers.DocumentTypeHandler
	Requests      *handlers.RequestHandler
	Attachments   *handlers.AttachmentHandler
	Payments      *handlers.PaymentHandler
	Stats         *handlers.StatsHandler
	Events        *handlers.EventsHandler
}

// SetupRoutes registers the full API surface on the router.
func SetupRoutes(r *chi.Mux, h Handlers) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.Auth.Signup)
		r.Post("/signin", h.Auth.Signin)
		r.Post("/signout", h.Auth.Signout)
		r.Get("/me", h.Auth.Me)
		r.Get("/access", h.Auth.AccessCheck)
		r.Post("/confirm", h.Auth.ConfirmEmail)
		r.Post("/resend-confirmation", h.Auth.ResendConfirmation)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/reset-password", h.Auth.ResetPassword)
	})

	r.Route("/api/profile", func(r chi.Router) {
		r.Put("/", h.Profile.UpdateProfile)
		r.Get("/{id}", h.Profile.GetProfileByID)
	})

	r.Route("/api/document-types", func(r chi.Router) {
		r.Get("/", h.DocumentTypes.ListActive)
		r.Get("/all", h.DocumentTypes.ListAll)
		r.Post("/", h.DocumentTypes.Create)
		r.Put("/{id}", h.DocumentTypes.Update)
		r.Patch("/{id}/active", h.DocumentTypes.SetActive)
	})

	r.Route("/api/requests", func(r chi.Router) {
		r.Post("/", h.Requests.Create)
		r.Get("/mine", h.Requests.ListMine)
		r.Get("/{id}", h.Requests.Get)
		r.Get("/{id}/history", h.Requests.GetHistory)
		r.Post("/{id}/cancel", h.Requests.Cancel)
		r.Put("/{id}/id-image", h.Attachments.ReplaceIDImage)

		r.Get("/{id}/documents", h.Attachments.List)
		r.Post("/{id}/documents", h.Attachments.Upload)
		r.Delete("/{id}/documents/{docID}", h.Attachments.Delete)
		r.Get("/{id}/documents/{docID}/download", h.Attachments.Download)
		r.Get("/{id}/documents/{docID}/view", h.Attachments.View)
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/create-intent", h.Payments.CreateIntent)
		r.Post("/verify", h.Payments.Verify)
		r.Get("/history", h.Payments.History)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/requests", h.Requests.ListAll)
		r.Put("/requests/{id}/status", h.Requests.UpdateStatus)
		r.Get("/stats", h.Stats.AdminStats)
		r.Get("/dashboard", h.Stats.Dashboard)
	})

	r.Get("/ws/requests", h.Events.Serve)
}
