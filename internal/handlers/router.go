package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lxrose/internal/auth"
	"lxrose/internal/forms"
	"lxrose/internal/middleware"
	"lxrose/internal/ratelimit"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Store    Store
	Tokens   TokenService
	Verifier auth.IDTokenVerifier

	LoginLimiter  ratelimit.Limiter
	IntakeLimiter ratelimit.Limiter

	CORSOrigins []string
	ServiceName string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter registers every route on a fresh engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Tracing(d.ServiceName),
		middleware.CORS(d.CORSOrigins),
	)

	requireUser := middleware.UserAuth(d.Tokens)
	loginLimit := middleware.RateLimit(d.LoginLimiter, "login")
	intakeLimit := middleware.RateLimit(d.IntakeLimiter, "intake")

	r.GET("/", Home())
	r.GET("/healthz", Health(d.Store))

	r.POST("/register", Register(d.Store))
	r.POST("/login", loginLimit, Login(d.Store, d.Tokens))
	r.POST("/verifyToken", loginLimit, VerifyToken(d.Verifier))
	r.GET("/getUser/:userId", requireUser, GetUser(d.Store))
	r.POST("/sendMessage", requireUser, LegacySendMessage(d.Store))

	api := r.Group("/api")

	formsGroup := api.Group("/forms")
	for _, kind := range forms.All {
		g := formsGroup.Group("/" + kind.Slug)
		g.POST("", intakeLimit, SubmitForm(d.Store, kind))
		g.GET("", requireUser, ListForms(d.Store, kind))
		g.GET("/export", requireUser, ExportForms(d.Store, kind))
		g.POST("/:id/:action", requireUser, TransitionForm(d.Store, kind))
		g.PUT("/:id/:action", requireUser, TransitionForm(d.Store, kind))
	}

	console := api.Group("")
	console.Use(requireUser)
	{
		console.GET("/users/all", ListUsers(d.Store))

		console.GET("/messages/conversations/:userId", ListConversations(d.Store))
		console.GET("/messages/conversation/:userId1/:userId2", ConversationHistory(d.Store))
		console.POST("/messages/send", SendMessage(d.Store, d.Store))
		console.PUT("/messages/:messageId/mark-read", MarkMessageRead(d.Store))
		console.PUT("/messages/conversation/:userId1/:userId2/mark-read", MarkConversationRead(d.Store))

		console.GET("/analytics/dashboard", Dashboard(d.Store, d.Now))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}
