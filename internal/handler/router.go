package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"arzweb/internal/app/session"
	"arzweb/internal/pkg/limiter"
	"arzweb/internal/pkg/logx"
	"arzweb/internal/pkg/resp"
	"arzweb/internal/ui"
)

const (
	SubmitRate  = 2
	SubmitBurst = 10
)

// Router builds the navigation shell: global middleware, the session, and the three
// guarded route groups. The returned limiter must be stopped on shutdown.
func Router(deps *AppDeps) (http.Handler, *limiter.IPRateLimiter) {
	submitLimiter := limiter.NewIPRateLimiter(rate.Limit(SubmitRate), SubmitBurst)
	upgrader := newUpgrader(deps)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":   "ok",
			"service":  "Arz Store web",
			"sessions": deps.Sessions.Len(),
			"live":     deps.Live.Len(),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/static/*", http.StripPrefix("/static/", ui.Static()))

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(deps.Sessions, deps.Cookie))
		r.Use(postLimit(submitLimiter))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			resp.Redirect(w, r, "/feed")
		})
		r.Get("/previews/*", HandlePreview(deps))
		r.Get("/live", HandleLive(deps, upgrader))
		r.Post("/logout", HandleLogout(deps))

		r.Group(func(r chi.Router) {
			r.Use(PublicOnly.Middleware(deps))

			r.Get("/auth", HandleLoginPage(deps))
			r.Post("/auth", HandleLogin(deps))
			r.Get("/register", HandleRegisterPage(deps))
			r.Post("/register", HandleRegister(deps))
		})

		r.Group(func(r chi.Router) {
			r.Use(PendingVerificationOnly.Middleware(deps))

			r.Get("/verify-email", HandleVerifyPage(deps))
			r.Post("/verify-email", HandleVerify(deps))
			r.Post("/verify-email/resend", HandleResendCode(deps))
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthenticatedOnly.Middleware(deps))

			r.Get("/feed", HandleFeed(deps))
			r.Get("/feed/more", HandleFeedMore(deps))
			r.Get("/help", HandleHelp(deps))

			r.Route("/c/{category}", func(r chi.Router) {
				r.Get("/", HandleCategory(deps))
				r.Get("/more", HandleCategoryMore(deps))
				r.Post("/ads", HandleCreateListing(deps))
			})

			r.Get("/ads/{id}", HandleListing(deps))
			r.Post("/ads/{id}/report", HandleReport(deps))

			r.Route("/manage-ads/{id}", func(r chi.Router) {
				r.Get("/", HandleManage(deps))
				r.Post("/", HandleUpdateListing(deps))
				r.Post("/delete", HandleDeleteListing(deps))
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", HandleProfile(deps))
				r.Post("/background", HandleBackgroundUpload(deps))
				r.Post("/background/commit", HandleBackgroundCommit(deps))
				r.Post("/background/cancel", HandleBackgroundCancel(deps))
				r.Post("/background/delete", HandleBackgroundDelete(deps))
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", HandleSettings(deps))
				r.Post("/password", HandleUpdatePassword(deps))
				r.Post("/theme", HandleUpdateTheme(deps))
				r.Post("/avatar", HandleAvatarUpload(deps))
				r.Post("/avatar/commit", HandleAvatarCommit(deps))
				r.Post("/avatar/cancel", HandleAvatarCancel(deps))
				r.Post("/{field}", HandleUpdateField(deps))
			})

			r.Get("/reviews/new", HandleReviewPage(deps))
			r.Post("/reviews", HandleSubmitReview(deps))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		resp.Redirect(w, r, "/auth")
	})

	return r, submitLimiter
}

// postLimit applies the per-IP limiter to form submissions only.
func postLimit(l *limiter.IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := l.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HandleHelp renders the static help screen.
func HandleHelp(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.render(w, r, http.StatusOK, "help", deps.page(r, "Help"))
	}
}
