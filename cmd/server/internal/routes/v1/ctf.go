package v1

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	servermiddleware "github.com/keeper-project/homepage-api/cmd/server/internal/middleware"
	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/types"
)

func (h *Handler) ListContests(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListContests")
	defer span.End()

	contests, err := h.ctf.ListContests(ctx, true)
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
	span.SetStatus(codes.Ok, "listed open contests")
	return response.List(c, list)
}

func (h *Handler) ListProblems(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListProblems")
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

	span.SetAttributes(attribute.String("contest.id", contestID.String()))

	problems, err := h.ctf.ListOpenProblems(ctx, member, contestID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list problems")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed open problems")
	return response.List(c, problems)
}

func (h *Handler) ProblemFile(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ProblemFile")
	defer span.End()

	problemID, err := servermiddleware.IDParam(c, "prob_id", apperr.ProblemNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed problem id")
		return err
	}

	url, err := h.ctf.FileURL(ctx, problemID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to presign file")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "presigned file")
	return response.OK(c, url)
}

func (h *Handler) SubmitFlag(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "SubmitFlag")
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

	span.SetAttributes(
		attribute.String("member.id", member.ID.String()),
		attribute.String("problem.id", problemID.String()),
	)

	var rdata types.FlagSubmission

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

	result, err := h.ctf.SubmitFlag(ctx, member, problemID, rdata.Flag)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit flag")
		span.RecordError(err)
		return err
	}

	span.AddEvent("evaluated submission", trace.WithAttributes(
		attribute.Bool("correct", result.IsCorrect),
	))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "submitted flag")
	return response.OK(c, result)
}

func (h *Handler) CreateTeam(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateTeam")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	var rdata types.TeamCreate

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

	team, err := h.ctf.CreateTeam(ctx, member, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to create team")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("team.id", team.ID.String()))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created team")
	return response.Created(c, team.Response())
}

func (h *Handler) JoinTeam(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "JoinTeam")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	teamID, err := servermiddleware.IDParam(c, "team_id", apperr.TeamNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed team id")
		return err
	}

	team, err := h.ctf.JoinTeam(ctx, member, teamID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to join team")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "joined team")
	return response.OK(c, team.Response())
}

func (h *Handler) LeaveTeam(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "LeaveTeam")
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

	snapshot, err := h.ctf.LeaveTeam(ctx, member, contestID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to leave team")
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Bool("team.deleted", snapshot.Deleted))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "left team")
	return response.OK(c, snapshot)
}

func (h *Handler) ModifyTeam(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ModifyTeam")
	defer span.End()

	member, err := servermiddleware.AuthMember(c)
	if err != nil {
		span.SetStatus(codes.Error, "no member on context")
		span.RecordError(err)
		return err
	}

	teamID, err := servermiddleware.IDParam(c, "team_id", apperr.TeamNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed team id")
		return err
	}

	var rdata types.TeamModify

	span.AddEvent("parsing request body")
	if err = c.Bind(&rdata); err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		return apperr.InvalidRequest.Wrap(err)
	}

	team, err := h.ctf.ModifyTeam(ctx, member, teamID, rdata)
	if err != nil {
		span.SetStatus(codes.Error, "failed to modify team")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "modified team")
	return response.OK(c, team.Response())
}

func (h *Handler) GetTeam(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetTeam")
	defer span.End()

	teamID, err := servermiddleware.IDParam(c, "team_id", apperr.TeamNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed team id")
		return err
	}

	team, err := h.ctf.GetTeamDetail(ctx, teamID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to get team")
		span.RecordError(err)
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "got team")
	return response.OK(c, team.Response())
}

func (h *Handler) ListTeams(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListTeams")
	defer span.End()

	contestID, err := servermiddleware.IDParam(c, "contest_id", apperr.ContestNotFound)
	if err != nil {
		span.SetStatus(codes.Ok, "malformed contest id")
		return err
	}

	teams, err := h.ctf.GetTeamList(ctx, contestID)
	if err != nil {
		span.SetStatus(codes.Error, "failed to list teams")
		span.RecordError(err)
		return err
	}

	list := make([]types.TeamResponse, 0, len(teams))
	for _, team := range teams {
		list = append(list, team.Response())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed teams")
	return response.List(c, list)
}
