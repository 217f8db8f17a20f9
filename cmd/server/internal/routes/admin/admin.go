// Package admin serves the privileged routes: CTF, library, board moderation
// and the about page.
package admin

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/internal/about"
	"github.com/keeper-project/homepage-api/internal/ctf"
	"github.com/keeper-project/homepage-api/internal/library"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/posting"
)

const name = "github.com/keeper-project/homepage-api/cmd/server/internal/routes/admin"

var tracer = otel.Tracer(name)

type Handler struct {
	ctf     *ctf.Service
	library *library.Service
	posting *posting.Service
	about   *about.Service
}

func NewHandler(
	ctfService *ctf.Service,
	libraryService *library.Service,
	postingService *posting.Service,
	aboutService *about.Service,
) *Handler {
	return &Handler{
		ctf:     ctfService,
		library: libraryService,
		posting: postingService,
		about:   aboutService,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	adminGroup := e.Group("/v1/admin", middlewareHandler.RequireToken())

	president := servermiddleware.HasRoles(servermiddleware.AuthKey, &models.Roles{President: true})
	author := servermiddleware.HasRoles(
		servermiddleware.AuthKey,
		&models.Roles{President: true, ProblemSetter: true},
	)
	librarian := servermiddleware.HasRoles(
		servermiddleware.AuthKey,
		&models.Roles{President: true, Librarian: true},
	)

	ctfGroup := adminGroup.Group("/ctf")

	ctfGroup.POST("/contest/", h.CreateContest, president)
	ctfGroup.GET("/contests/", h.ListContests, president)
	ctfGroup.PATCH("/contest/:contest_id/open/", h.setContestOpen(true), president)
	ctfGroup.PATCH("/contest/:contest_id/close/", h.setContestOpen(false), president)
	ctfGroup.PATCH("/contest/:contest_id/join/open/", h.setContestJoinable(true), president)
	ctfGroup.PATCH("/contest/:contest_id/join/close/", h.setContestJoinable(false), president)
	ctfGroup.POST("/prob/maker/", h.DesignateProbMaker, president)

	probGroup := ctfGroup.Group("/prob", author)
	probGroup.POST("/", h.CreateProblem)
	probGroup.GET("/", h.ListProblems)
	probGroup.POST("/:prob_id/file/", h.AttachFile)
	probGroup.PATCH("/:prob_id/open/", h.setProblemSolvable(true))
	probGroup.PATCH("/:prob_id/close/", h.setProblemSolvable(false))
	probGroup.DELETE("/:prob_id/", h.DeleteProblem)

	ctfGroup.GET("/submit-log/", h.ListSubmitLogs, author)

	libraryGroup := adminGroup.Group("/library", librarian)
	libraryGroup.POST("/book/", h.AddBook)
	libraryGroup.DELETE("/book/", h.DeleteBook)
	libraryGroup.POST("/borrow/", h.BorrowBook)
	libraryGroup.POST("/return/", h.ReturnBook)
	libraryGroup.GET("/overdue/", h.OverdueBooks)

	adminGroup.POST("/post/category/", h.CreateCategory, president)
	adminGroup.DELETE("/comment/:comment_id/", h.ModerateComment, president)

	aboutGroup := adminGroup.Group("/about", president)
	aboutGroup.POST("/title/", h.CreateAboutTitle)
	aboutGroup.DELETE("/title/:title_id/", h.DeleteAboutTitle)
	aboutGroup.POST("/subtitle/", h.CreateAboutSubtitle)
	aboutGroup.PUT("/subtitle/:subtitle_id/", h.ModifyAboutSubtitle)
	aboutGroup.DELETE("/subtitle/:subtitle_id/", h.DeleteAboutSubtitle)
	aboutGroup.POST("/content/", h.CreateAboutContent)
	aboutGroup.DELETE("/content/:content_id/", h.DeleteAboutContent)
}
