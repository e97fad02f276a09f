package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.tripjournal/internal/middleware"
)

// Routes collects what RegisterRoutes mounts.
type Routes struct {
	Auth     *AuthHandler
	Journals *JournalHandler
	Profiles *ProfileHandler
	Verifier middleware.TokenVerifier
	// AuthLimiter throttles password reset emails per client IP.
	AuthLimiter *middleware.RateLimiter
	Logger      *zap.SugaredLogger
}

// RegisterRoutes mounts the API on router
func RegisterRoutes(router *gin.Engine, r Routes) {
	configureBinding()
	requireAuth := middleware.AuthMiddleware(r.Verifier, r.Logger)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/sign-up", r.Auth.SignUp)
			auth.POST("/sign-in", r.Auth.SignIn)
			auth.POST("/reset-password", middleware.RateLimit(r.AuthLimiter), r.Auth.ResetPassword)
			auth.POST("/update-password", requireAuth, r.Auth.UpdatePassword)
		}

		journals := v1.Group("/journals")
		journals.Use(requireAuth)
		{
			journals.POST("/create-journal", r.Journals.CreateJournal)
			journals.POST("/list-journals", r.Journals.ListJournals)
			journals.POST("/list-public", r.Journals.ListPublic)
			journals.POST("/get-journal", r.Journals.GetJournal)
			journals.POST("/update-journal", r.Journals.UpdateJournal)
			journals.POST("/toggle-status", r.Journals.ToggleStatus)
			journals.POST("/delete-journal", r.Journals.DeleteJournal)
			journals.POST("/upload-cover", r.Journals.UploadCover)
			journals.POST("/delete-cover", r.Journals.DeleteCover)
			journals.POST("/generate-summary", r.Journals.GenerateSummary)
			journals.POST("/day-options", r.Journals.DayOptions)
			journals.GET("/currencies", r.Journals.Currencies)
		}

		places := v1.Group("/places")
		places.Use(requireAuth)
		{
			places.POST("/add-place", r.Journals.AddPlace)
			places.POST("/update-place", r.Journals.UpdatePlace)
			places.POST("/delete-place", r.Journals.DeletePlace)
			places.POST("/save-places", r.Journals.SavePlaces)
		}

		profile := v1.Group("/profile")
		profile.Use(requireAuth)
		{
			profile.POST("/get-profile", r.Profiles.GetProfile)
			profile.POST("/update-profile", r.Profiles.UpdateProfile)
			profile.POST("/upload-avatar", r.Profiles.UploadAvatar)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
