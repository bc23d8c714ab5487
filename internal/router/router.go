package router

import (
	"net/http"

	"crushboard/internal/handlers"
	"crushboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limits configures write throttling per identity.
type Limits struct {
	RPS   float64
	Burst int
}

func RegisterRoutes(r *gin.Engine, d *handlers.Deps, limits Limits) {
	// Handlers
	boardHandler := handlers.NewBoardHandler(d)
	replyHandler := handlers.NewReplyHandler(d)
	apiHandler := handlers.NewAPIHandler(d)
	streamHandler := handlers.NewStreamHandler(d)

	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		if !d.Board.Ready() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": d.Board.Ready()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Board (HTML)
	r.GET("/", boardHandler.Index)                        // board, consumes ?confessionId
	r.POST("/view/:view", boardHandler.ChangeView)        // recent / archive / popular
	r.POST("/search", boardHandler.Search)                // apply search
	r.POST("/search/clear", boardHandler.ClearSearch)     // drop search term
	r.POST("/shared/clear", boardHandler.ClearShared)     // leave shared confession
	r.POST("/notice/dismiss", boardHandler.DismissNotice) // hide notice
	r.GET("/confessions/:id/replies", replyHandler.Show)  // reply thread
	r.POST("/replies/close", replyHandler.Close)          // leave reply thread

	writes := r.Group("/")
	writes.Use(middleware.RateLimit(limits.RPS, limits.Burst, boardHandler.RateLimited))
	{
		writes.POST("/confessions", boardHandler.Post)               // post confession
		writes.POST("/confessions/:id/like", boardHandler.Like)      // toggle like
		writes.POST("/confessions/:id/replies", replyHandler.Create) // post reply
	}

	// JSON API
	api := r.Group("/api")
	{
		api.GET("/session", apiHandler.Session)
		api.GET("/confessions", apiHandler.List)
		api.GET("/confessions/stream", streamHandler.Feed)
		api.GET("/confessions/:id", apiHandler.Get)
		api.GET("/confessions/:id/share", apiHandler.Share)
		api.GET("/confessions/:id/replies", replyHandler.ListJSON)
		api.GET("/confessions/:id/replies/stream", streamHandler.Replies)
	}
	apiWrites := api.Group("")
	apiWrites.Use(middleware.RateLimit(limits.RPS, limits.Burst, nil))
	{
		apiWrites.POST("/confessions", apiHandler.Create)
		apiWrites.POST("/confessions/:id/like", apiHandler.Like)
		apiWrites.POST("/confessions/:id/replies", replyHandler.CreateJSON)
	}
}
