package admin

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

func (h *Handler) CreateContest(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateContest")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	var rdata types.ContestCreate

	span.AddEvent("parsing request body")
	if err = c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err = c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	contest, err := h.ctf.CreateContest(ctx, member, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create contest")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("contest.id", contest.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created contest")
	return response.Created(c, contest.Response())
}

func (h *Handler) ListContests(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListContests")
	defer span.End()

	contests, err := h.ctf.ListContests(ctx, false)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list contests")
		span.RecordError(err)
		return err
	}

	list := make([]types.ContestResponse, 0, len(contests))
	for _, contest := range contests {
		list = append(list, contest.Response())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed contests")
	return response.List(c, list)
}

func (h *Handler) setContestOpen(open bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "SetContestOpen", trace.WithAttributes(
			attribute.Bool("open", open),
		))
		defer span.End()

		member, err := servermiddleware.AuthMember(c)
		if err != nil {
			span.SetStatus(codes.Error, "no member on context")
			span.RecordError(err)
			return err
		}

		contestID, err := servermiddleware.IDParam(c, "contest_id", apperr.ContestNotFound)
		if err != nil {
			span.SetStatus(codes.Ok, "malformed contest id")
			return err
		}

		contest, err := h.ctf.SetContestOpen(ctx, member, contestID, open)
		if err != nil {
			span.SetStatus(codes.Error, "failed to change contest state")
			span.RecordError(err)
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "changed contest state")
		return response.OK(c, contest.Response())
	}
}

func (h *Handler) setContestJoinable(joinable bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "SetContestJoinable", trace.WithAttributes(
			attribute.Bool("joinable", joinable),
		))
		defer span.End()

		member, err := servermiddleware.AuthMember(c)
		if err != nil {
			span.SetStatus(codes.Error, "no member on context")
			span.RecordError(err)
			return err
		}

		contestID, err := servermiddleware.IDParam(c, "contest_id", apperr.ContestNotFound)
		if err != nil {
			span.SetStatus(codes.Ok, "malformed contest id")
			return err
		}

		contest, err := h.ctf.SetContestJoinable(ctx, member, contestID, joinable)
		if err != nil {
			span.SetStatus(codes.Error, "failed to change contest state")
			span.RecordError(err)
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "changed contest state")
		return response.OK(c, contest.Response())
	}
}

func (h *Handler) DesignateProbMaker(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DesignateProbMaker")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	var rdata types.ProbMakerDesignate

	span.AddEvent("parsing request body")
	if err = c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err = c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	maker, err := h.ctf.DesignateProbMaker(ctx, member, rdata.MemberID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to designate problem setter")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "designated problem setter")
	return response.OK(c, maker.Response())
}

func (h *Handler) CreateProblem(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateProblem")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	var rdata types.ProblemCreate

	span.AddEvent("parsing request body")
	if err = c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err = c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return err
	}

	problem, err := h.ctf.CreateProblem(ctx, member, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create problem")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("problem.id", problem.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created problem")
	return response.Created(c, problem.AdminResponse(0))
}

func (h *Handler) ListProblems(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListProblems")
	defer span.End()

	type requestData struct {
		ContestID string `query:"contest_id" validate:"required,uuid"`
	}
	var rdata requestData

	if err := c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse query")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to validate query")
		span.RecordError(err)
		return err
	}

	// validated above
	contestID := uuid.MustParse(rdata.ContestID)

	problems, err := h.ctf.ListProblems(ctx, contestID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list problems")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed problems")
	return response.List(c, problems)
}

func (h *Handler) AttachFile(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "AttachFile")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	problemID, err := servermiddleware.IDParam(c, "prob_id", apperr.ProblemNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed problem id")
		return err
	}

	span.AddEvent("reading multipart file")
	header, err := c.FormFile("file")
	if err != nil {
		span.SetStatus(codes.Ok, "missing file")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	file, err := header.Open()
	if err != nil {
		span.SetStatus(codes.Error, "failed to open uploaded file")
		span.RecordError(err)
		return response.InternalServerError.Wrap(err)
	}
	defer file.Close()

	problem, err := h.ctf.AttachFile(ctx, member, problemID, header.Filename, file, header.Size)
	if err != nil {
		span.SetStatus(codes.Error, "failed to attach file")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "attached file")
	return response.OK(c, problem.File())
}

func (h *Handler) setProblemSolvable(solvable bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "SetProblemSolvable", trace.WithAttributes(
			attribute.Bool("solvable", solvable),
		))
		defer span.End()

		member, err := servermiddleware.AuthMember(c)
		if err != nil {
			span.SetStatus(codes.Error, "no member on context")
			span.RecordError(err)
			return err
		}

		problemID, err := servermiddleware.IDParam(c, "prob_id", apperr.ProblemNotFound)
		if err != nil {
			span.SetStatus(codes.Ok, "malformed problem id")
			return err
		}

		problem, err := h.ctf.SetProblemSolvable(ctx, member, problemID, solvable)
		if err != nil {
			span.SetStatus(codes.Error, "failed to change problem state")
			span.RecordError(err)
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "changed problem state")
		return response.OK(c, problem.AdminResponse(0))
	}
}

func (h *Handler) DeleteProblem(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteProblem")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	problemID, err := servermiddleware.IDParam(c, "prob_id", apperr.ProblemNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed problem id")
		return err
	}

	if err = h.ctf.DeleteProblem(ctx, member, problemID); err != nil {
		span.SetStatus(codes.Error, "failed to delete problem")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted problem")
	return response.OK(c, nil)
}

func (h *Handler) ListSubmitLogs(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListSubmitLogs")
	defer span.End()

	var query types.SubmitLogQuery
	if err := c.Bind(&query); err != nil {
		span.SetStatus(codes.Ok, "failed to parse query")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	if err := c.Validate(query); err != nil {
		span.SetStatus(codes.Ok, "failed to validate query")
		span.RecordError(err)
		return err
	}

	page, err := h.ctf.ListSubmitLogs(ctx, uuid.MustParse(query.ContestID), query.Page, query.Size)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list submit logs")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submit logs")
	return response.OK(c, page)
}
