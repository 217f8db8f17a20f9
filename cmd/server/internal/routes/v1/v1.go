package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/ratelimit"
	"github.com/keeper-project/homepage-api/cmd/server/internal/token"
	"github.com/keeper-project/homepage-api/internal/about"
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/ctf"
	"github.com/keeper-project/homepage-api/internal/library"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/member"
	"github.com/keeper-project/homepage-api/internal/posting"
	"github.com/keeper-project/homepage-api/internal/types"
)

const name = "github.com/keeper-project/homepage-api/cmd/server/internal/routes/v1"

var tracer = otel.Tracer(name)

type Handler struct {
	members   *member.Service
	ctf       *ctf.Service
	library   *library.Service
	posting   *posting.Service
	about     *about.Service
	tokens    *token.Issuer
	redis     *redis.Client
	rateLimit *config.RateLimitConfig
}

func NewHandler(
	members *member.Service,
	ctfService *ctf.Service,
	libraryService *library.Service,
	postingService *posting.Service,
	aboutService *about.Service,
	tokens *token.Issuer,
	rdb *redis.Client,
	rateLimit *config.RateLimitConfig,
) Handler {
	return Handler{
		members:   members,
		ctf:       ctfService,
		library:   libraryService,
		posting:   postingService,
		about:     aboutService,
		tokens:    tokens,
		redis:     rdb,
		rateLimit: rateLimit,
	}
}

func memberIdentifier(c echo.Context) (string, error) {
	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		return "", err
	}
	return member.ID.String(), nil
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	v1Group := e.Group("/v1")

	signUpGroup := v1Group.Group("/sign-up")
	signUpGroup.POST("/email-auth/", h.EmailAuth)
	signUpGroup.POST("/", h.SignUp)
	signUpGroup.GET("/check-login-id/", h.CheckLoginID)
	signUpGroup.GET("/check-email/", h.CheckEmail)

	v1Group.POST("/sign-in/", h.SignIn, middleware.BasicAuth(middlewareHandler.BasicAuthValidator))

	v1Group.GET("/about/:type/", h.ListAbout)

	authed := v1Group.Group("", middlewareHandler.RequireToken())

	if h.rateLimit != nil && h.rateLimit.GlobalPerMinute > 0 {
		authed.Use(
			middleware.RateLimiterWithConfig(
				ratelimit.NewRedisLimiter(
					h.redis,
					"global",
					h.rateLimit.GlobalPerMinute,
					h.rateLimit.FailOpen,
					nil,
					memberIdentifier,
				),
			),
		)
	} else {
		l.Warn("not configured to have a global rate limit")
	}

	authed.GET("/member/me/", h.Me)

	ctfGroup := authed.Group("/ctf")
	ctfGroup.GET("/contests/", h.ListContests)
	ctfGroup.GET("/contest/:contest_id/probs/", h.ListProblems)
	ctfGroup.GET("/contest/:contest_id/teams/", h.ListTeams)
	ctfGroup.DELETE("/contest/:contest_id/team/", h.LeaveTeam)
	ctfGroup.GET("/prob/:prob_id/file/", h.ProblemFile)

	submitGroup := ctfGroup.Group("/prob/:prob_id/submit")
	if h.rateLimit != nil && h.rateLimit.SubmitPerMinute > 0 {
		post := http.MethodPost

		submitGroup.Use(
			middleware.RateLimiterWithConfig(
				ratelimit.NewRedisLimiter(
					h.redis,
					"submit",
					h.rateLimit.SubmitPerMinute,
					h.rateLimit.FailOpen,
					&post,
					memberIdentifier,
				),
			),
		)
	} else {
		l.Warn("not configured to have a submit rate limit")
	}
	submitGroup.POST("/", h.SubmitFlag)

	ctfGroup.POST("/team/", h.CreateTeam)
	ctfGroup.GET("/team/:team_id/", h.GetTeam)
	ctfGroup.PATCH("/team/:team_id/", h.ModifyTeam)
	ctfGroup.POST("/team/:team_id/join/", h.JoinTeam)

	authed.GET("/library/books/", h.SearchBooks)

	postGroup := authed.Group("/post")
	postGroup.GET("/categories/", h.ListCategories)
	postGroup.GET("/latest/", h.LatestPosts)
	postGroup.GET("/lists/", h.ListPosts)
	postGroup.GET("/search/", h.SearchPosts)
	postGroup.POST("/new/", h.CreatePost)
	postGroup.GET("/file/:file_id/", h.AttachmentURL)
	postGroup.GET("/:post_id/", h.GetPost)
	postGroup.PATCH("/:post_id/", h.ModifyPost)
	postGroup.DELETE("/:post_id/", h.DeletePost)
	postGroup.GET("/:post_id/attach/", h.ListAttachments)
	postGroup.POST("/:post_id/like/", h.togglePostReaction(types.ReactionLike))
	postGroup.POST("/:post_id/dislike/", h.togglePostReaction(types.ReactionDislike))

	commentGroup := authed.Group("/comment")
	commentGroup.POST("/post/:post_id/", h.CreateComment)
	commentGroup.GET("/post/:post_id/", h.ListComments)
	commentGroup.PUT("/:comment_id/", h.ModifyComment)
	commentGroup.DELETE("/:comment_id/", h.DeleteComment)
	commentGroup.POST("/:comment_id/like/", h.toggleCommentReaction(types.ReactionLike))
	commentGroup.POST("/:comment_id/dislike/", h.toggleCommentReaction(types.ReactionDislike))
}
