package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/shlok2345788/dropout-front/internal/api"
	"github.com/shlok2345788/dropout-front/internal/config"
	"github.com/shlok2345788/dropout-front/internal/handlers"
	"github.com/shlok2345788/dropout-front/internal/models"
	"github.com/shlok2345788/dropout-front/internal/schedule"
	"github.com/shlok2345788/dropout-front/internal/scores"
	"github.com/shlok2345788/dropout-front/internal/store"
	"github.com/shlok2345788/dropout-front/internal/streak"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitExceeded(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
}

// Setup wires middleware, handlers and routes.
func Setup(log *zap.Logger, cfg *config.Config, forms *models.FormSet, client api.Client, st store.Store, tracker *streak.Tracker, book *scores.Book, planner *schedule.Planner) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	cookieStore := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("dropout_session", cookieStore))

	router.Use(CSRFProtection())
	router.Use(ActiveSubjectLoader(st, log, handlers.ActiveSubjectContextKey))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	formsHandler := handlers.NewFormsHandler(log, client, st, forms)
	streakHandler := handlers.NewStreakHandler(log, tracker)
	scoresHandler := handlers.NewScoresHandler(log, book)
	scheduleHandler := handlers.NewScheduleHandler(log, planner)

	// Engagement clicks are already rate limited server-side by the
	// 24-hour rule; this throttle just keeps rapid retries off the wire.
	clickLimiterStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
	clickLimiter := ratelimit.RateLimiter(clickLimiterStore, &ratelimit.Options{
		ErrorHandler: rateLimitExceeded,
		KeyFunc:      keyFunc,
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/csrf", func(c *gin.Context) {
		token, _ := c.Get(csrfTokenContextKey)
		c.JSON(http.StatusOK, gin.H{"csrf_token": token})
	})

	formRoutes := router.Group("/forms")
	{
		formRoutes.POST("/:schema/start", formsHandler.Start)
		formRoutes.GET("/current", formsHandler.Current)
		formRoutes.POST("/answer", formsHandler.Answer)
		formRoutes.POST("/next", formsHandler.Next)
		formRoutes.POST("/prev", formsHandler.Prev)
		formRoutes.POST("/submit", formsHandler.Submit)
	}

	streakRoutes := router.Group("/streak")
	{
		streakRoutes.GET("/:id", streakHandler.GetStreak)
		streakRoutes.GET("/:id/countdown", streakHandler.Countdown)
		streakRoutes.POST("/:id/click", clickLimiter, streakHandler.Click)
	}

	scoreRoutes := router.Group("/scores")
	{
		scoreRoutes.GET("/:id", scoresHandler.Get)
		scoreRoutes.POST("/:id", scoresHandler.Add)
		scoreRoutes.GET("/:id/chart", scoresHandler.Chart)
	}

	scheduleRoutes := router.Group("/schedule")
	{
		scheduleRoutes.GET("/:id", scheduleHandler.Get)
		scheduleRoutes.POST("/:id", scheduleHandler.Build)
	}

	return router
}
