package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/cmd/server/internal/response"
	routesv1 "github.com/keeper-project/homepage-api/cmd/server/internal/routes/v1"
	"github.com/keeper-project/homepage-api/cmd/server/internal/token"
	"github.com/keeper-project/homepage-api/internal/about"
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/ctf"
	"github.com/keeper-project/homepage-api/internal/library"
	"github.com/keeper-project/homepage-api/internal/logger"
	"github.com/keeper-project/homepage-api/internal/mail"
	mockmailer "github.com/keeper-project/homepage-api/internal/mail/mock"
	"github.com/keeper-project/homepage-api/internal/member"
	"github.com/keeper-project/homepage-api/internal/migrations"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/otel"
	"github.com/keeper-project/homepage-api/internal/posting"
	"github.com/keeper-project/homepage-api/internal/types"
	mockuploader "github.com/keeper-project/homepage-api/internal/upload/mock"
)

const password = "i am a very secure password"

type envelope struct {
	Data    json.RawMessage `json:"data"`
	List    json.RawMessage `json:"list"`
	Msg     string          `json:"msg"`
	Code    int             `json:"code"`
	Success bool            `json:"success"`
}

type ServerTestSuite struct {
	suite.Suite

	uploader *mockuploader.MockUploader
	mailer   *mockmailer.MockMailer

	postgres     *postgres.PostgresContainer
	redisC       testcontainers.Container
	redis        *redis.Client
	db           *gorm.DB
	tx           *gorm.DB
	tokens       *token.Issuer
	otelShutdown func(context.Context) error
	server       *httptest.Server

	president *models.Member
	librarian *models.Member
	alice     *models.Member
}

func (s *ServerTestSuite) SetupSuite() {
	logger.InitSlog()

	postgresContainer, err := postgres.Run(
		s.T().Context(),
		"postgres:16.4-alpine",
		postgres.WithDatabase("keeper"),
		postgres.WithUsername("keeper"),
		postgres.WithPassword("keeper"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	s.Require().NoError(err, "failed to start postgres container")
	s.postgres = postgresContainer

	dsn, err := s.postgres.ConnectionString(s.T().Context())
	s.Require().NoError(err, "failed to get connection string to container")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	s.Require().NoError(err, "failed to connect to the database")
	s.db = db

	err = migrations.Up(s.T().Context(), db)
	s.Require().NoError(err, "failed to run up migrations")

	redisContainer, err := testcontainers.GenericContainer(s.T().Context(), testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	s.Require().NoError(err, "failed to start redis container")
	s.redisC = redisContainer

	endpoint, err := redisContainer.PortEndpoint(s.T().Context(), "6379/tcp", "")
	s.Require().NoError(err, "failed to get redis endpoint")
	s.redis = redis.NewClient(&redis.Options{Addr: endpoint})

	s.tokens = token.NewIssuer(strings.Repeat("k", 32), "keeper", time.Hour)

	shutdownOTel, err := otel.SetupOTelSDK(s.T().Context(), "keeper-api-test", false)
	s.Require().NoError(err, "could not setup otel")
	s.otelShutdown = shutdownOTel
}

func (s *ServerTestSuite) seedMember(loginID string, roles models.Roles) *models.Member {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	s.Require().NoError(err)

	m := &models.Member{
		LoginID:  loginID,
		Email:    loginID + "@keeper.or.kr",
		RealName: loginID,
		NickName: loginID,
		Password: hash,
		Rank:     types.MemberRankRegular,
		Type:     types.MemberTypeRegular,
		Roles:    roles,
	}
	s.Require().NoError(s.tx.Create(m).Error)

	return m
}

func (s *ServerTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.uploader = mockuploader.NewMockUploader(ctrl)
	s.mailer = mockmailer.NewMockMailer(ctrl)

	s.tx = s.db.Begin()

	s.president = s.seedMember("president", models.Roles{President: true, Member: true})
	s.librarian = s.seedMember("librarian", models.Roles{Librarian: true, Member: true})
	s.alice = s.seedMember("alice", models.Roles{Member: true})

	cfg := &config.Config{
		RateLimit: &config.RateLimitConfig{SubmitPerMinute: 3, FailOpen: true},
	}

	svc := services{
		ctf:     ctf.New(s.tx, s.uploader, config.ScoringConfig{Decay: 50, MinScorePercent: 20}, time.Minute),
		library: library.New(s.tx, config.LibraryConfig{MaxCopies: 4, LoanDays: 14}),
		posting: posting.New(s.tx, s.uploader, time.Minute),
		about:   about.New(s.tx, s.uploader, time.Minute),
		members: member.New(s.tx, member.NewRedisCodeStore(s.redis, member.CodeTTL), s.mailer),
		tokens:  s.tokens,
	}

	e, err := buildRouter(cfg, s.tx, s.redis, svc, logger.Logger)
	s.Require().NoError(err, "failed to construct router")

	s.server = httptest.NewServer(e)
}

func (s *ServerTestSuite) TearDownTest() {
	s.Require().NoError(s.tx.Rollback().Error)
	s.server.Close()
}

func (s *ServerTestSuite) TearDownSuite() {
	s.Require().NoError(s.redis.Close())
	s.Require().NoError(testcontainers.TerminateContainer(s.redisC))
	s.Require().NoError(testcontainers.TerminateContainer(s.postgres))
	s.Require().NoError(s.otelShutdown(s.T().Context()))
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) bearer(m *models.Member) string {
	signed, _, err := s.tokens.Issue(m.ID)
	s.Require().NoError(err)
	return signed
}

func (s *ServerTestSuite) send(req *http.Request) (int, envelope) {
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	var env envelope
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &env), "body: %s", raw)
	}

	return resp.StatusCode, env
}

func (s *ServerTestSuite) newRequest(method, path, bearer string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(s.T().Context(), method, s.server.URL+path, reader)
	s.Require().NoError(err)

	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(response.HeaderAcceptLanguage, "en")
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	return req
}

func (s *ServerTestSuite) request(method, path, bearer string, body any) (int, envelope) {
	return s.send(s.newRequest(method, path, bearer, body))
}

type formFile struct {
	name    string
	content string
}

// Multipart request with plain fields and repeated `file` parts
func (s *ServerTestSuite) multipartRequest(
	method, path, bearer string,
	fields map[string]string,
	files ...formFile,
) *http.Request {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for k, v := range fields {
		s.Require().NoError(form.WriteField(k, v))
	}
	for _, f := range files {
		part, err := form.CreateFormFile("file", f.name)
		s.Require().NoError(err)
		_, err = part.Write([]byte(f.content))
		s.Require().NoError(err)
	}
	s.Require().NoError(form.Close())

	req, err := http.NewRequestWithContext(s.T().Context(), method, s.server.URL+path, &body)
	s.Require().NoError(err)
	req.Header.Set(echo.HeaderContentType, form.FormDataContentType())
	req.Header.Set(response.HeaderAcceptLanguage, "en")
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)

	return req
}

func (s *ServerTestSuite) expectStored() {
	s.uploader.EXPECT().StoreIdentifier(gomock.Any()).Return("test", nil).AnyTimes()
	s.uploader.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
}

func decode[T any](s *ServerTestSuite, raw json.RawMessage) T {
	var v T
	s.Require().NoError(json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}

func (s *ServerTestSuite) TestHealth() {
	resp, err := http.Get(s.server.URL + "/health/")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *ServerTestSuite) TestSignUpAndSignIn() {
	var code string
	s.mailer.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg mail.Message) error {
			code = regexp.MustCompile(`[0-9]{6}`).FindString(msg.Body)
			return nil
		})

	status, env := s.request(http.MethodPost, "/v1/sign-up/email-auth/", "", types.EmailAuthRequest{
		Email: "newbie@keeper.or.kr",
	})
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.True(env.Success)
	s.Require().Len(code, 6)

	status, env = s.request(http.MethodPost, "/v1/sign-up/", "", types.SignUpRequest{
		LoginID:  "newbie",
		Email:    "newbie@keeper.or.kr",
		Password: password,
		RealName: "New Member",
		NickName: "newbie",
		AuthCode: code,
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	created := decode[types.MemberResponse](s, env.Data)
	s.Equal([]string{"member"}, created.Roles)

	status, env = s.request(http.MethodGet, "/v1/sign-up/check-login-id/?login_id=newbie", "", nil)
	s.Require().Equal(http.StatusOK, status)
	s.True(decode[bool](s, env.Data))

	status, env = s.request(http.MethodGet, "/v1/sign-up/check-email/?email=nobody@keeper.or.kr", "", nil)
	s.Require().Equal(http.StatusOK, status)
	s.False(decode[bool](s, env.Data))

	req, err := http.NewRequestWithContext(s.T().Context(), http.MethodPost, s.server.URL+"/v1/sign-in/", nil)
	s.Require().NoError(err)
	req.SetBasicAuth("newbie", password)

	status, env = s.send(req)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	signIn := decode[types.SignInResponse](s, env.Data)
	s.Equal(created.ID, signIn.Member.ID)

	status, env = s.request(http.MethodGet, "/v1/member/me/", signIn.Token, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("newbie", decode[types.MemberResponse](s, env.Data).LoginID)
}

func (s *ServerTestSuite) TestSignUpValidation() {
	status, env := s.request(http.MethodPost, "/v1/sign-up/", "", types.SignUpRequest{
		LoginID: "x",
		Email:   "not-an-email",
	})
	s.Equal(http.StatusBadRequest, status)
	s.False(env.Success)

	fields := decode[map[string]string](s, env.Data)
	s.Contains(fields, "login_id")
	s.Contains(fields, "email")
}

func (s *ServerTestSuite) TestSignInFailures() {
	signIn := func(loginID, pass, lang string) (int, envelope) {
		req, err := http.NewRequestWithContext(s.T().Context(), http.MethodPost, s.server.URL+"/v1/sign-in/", nil)
		s.Require().NoError(err)
		req.SetBasicAuth(loginID, pass)
		req.Header.Set(response.HeaderAcceptLanguage, lang)
		return s.send(req)
	}

	status, en := signIn("alice", "wrong password", "en")
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(-1101, en.Code)
	s.Equal("Login id or password is wrong.", en.Msg)

	status, ko := signIn("nobody", password, "ko-KR,ko;q=0.9")
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(en.Code, ko.Code)
	s.NotEqual(en.Msg, ko.Msg)

	status, env := s.request(http.MethodGet, "/v1/member/me/", "", nil)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(-1003, env.Code)

	status, _ = s.request(http.MethodGet, "/v1/member/me/", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, status)
}

// Runs the admin side of a contest setup, returns the contest and problem ids
func (s *ServerTestSuite) setupContest(problemType types.ProblemType) (uuid.UUID, uuid.UUID) {
	president := s.bearer(s.president)

	status, env := s.request(http.MethodPost, "/v1/admin/ctf/contest/", president, types.ContestCreate{
		Name: "keeper ctf",
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	contest := decode[types.ContestResponse](s, env.Data)

	for _, path := range []string{"open", "join/open"} {
		status, env = s.request(http.MethodPatch, fmt.Sprintf("/v1/admin/ctf/contest/%s/%s/", contest.ID, path), president, nil)
		s.Require().Equal(http.StatusOK, status, env.Msg)
	}

	status, env = s.request(http.MethodPost, "/v1/admin/ctf/prob/", president, types.ProblemCreate{
		Title:     "warmup",
		Content:   "find the flag",
		Flag:      "KEEPER{flag}",
		Category:  types.ProblemCategoryWeb,
		Type:      problemType,
		ContestID: contest.ID,
		Score:     500,
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	problem := decode[types.ProblemAdminResponse](s, env.Data)
	s.False(problem.IsSolvable)

	status, env = s.request(http.MethodPatch, fmt.Sprintf("/v1/admin/ctf/prob/%s/open/", problem.ID), president, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)

	return contest.ID, problem.ID
}

func (s *ServerTestSuite) TestCTFFlow() {
	contestID, problemID := s.setupContest(types.ProblemTypeDynamic)
	alice := s.bearer(s.alice)

	status, env := s.request(http.MethodPost, "/v1/ctf/team/", alice, types.TeamCreate{
		Name:      "alices",
		ContestID: contestID,
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	team := decode[types.TeamResponse](s, env.Data)

	status, env = s.request(http.MethodGet, fmt.Sprintf("/v1/ctf/contest/%s/probs/", contestID), alice, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.NotContains(string(env.List), "KEEPER{flag}", "members never see flags")
	problems := decode[[]types.ProblemResponse](s, env.List)
	s.Require().Len(problems, 1)
	s.EqualValues(500, problems[0].Score)

	submit := fmt.Sprintf("/v1/ctf/prob/%s/submit/", problemID)

	status, env = s.request(http.MethodPost, submit, alice, types.FlagSubmission{Flag: "KEEPER{nope}"})
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.False(decode[types.SubmissionResult](s, env.Data).IsCorrect)

	status, env = s.request(http.MethodPost, submit, alice, types.FlagSubmission{Flag: "KEEPER{flag}"})
	s.Require().Equal(http.StatusOK, status, env.Msg)
	result := decode[types.SubmissionResult](s, env.Data)
	s.True(result.IsCorrect)
	s.Equal(team.ID, result.TeamID)
	s.EqualValues(500, result.Score)

	status, env = s.request(http.MethodGet, fmt.Sprintf("/v1/ctf/contest/%s/teams/", contestID), alice, nil)
	s.Require().Equal(http.StatusOK, status)
	teams := decode[[]types.TeamResponse](s, env.List)
	s.Require().Len(teams, 1)
	s.EqualValues(500, teams[0].Score)

	status, env = s.request(
		http.MethodGet,
		fmt.Sprintf("/v1/admin/ctf/submit-log/?contest_id=%s", contestID),
		s.bearer(s.president),
		nil,
	)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	logs := decode[types.Page[types.SubmitLogResponse]](s, env.Data)
	s.EqualValues(2, logs.Total)
	s.True(logs.Content[0].IsCorrect, "newest first")

	status, env = s.request(http.MethodDelete, fmt.Sprintf("/v1/ctf/contest/%s/team/", contestID), alice, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	snapshot := decode[types.TeamSnapshot](s, env.Data)
	s.True(snapshot.Deleted)
	s.EqualValues(500, snapshot.Score)
}

func (s *ServerTestSuite) TestCTFRejections() {
	contestID, problemID := s.setupContest(types.ProblemTypeStandard)
	alice := s.bearer(s.alice)

	status, env := s.request(http.MethodPost, "/v1/admin/ctf/contest/", alice, types.ContestCreate{Name: "mine"})
	s.Equal(http.StatusForbidden, status)
	s.Equal(-1002, env.Code)

	status, env = s.request(http.MethodGet, fmt.Sprintf("/v1/ctf/team/%s/", uuid.New()), alice, nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal(-1206, env.Code)

	status, _ = s.request(http.MethodGet, "/v1/ctf/team/not-a-uuid/", alice, nil)
	s.Equal(http.StatusNotFound, status)

	status, env = s.request(http.MethodPost, fmt.Sprintf("/v1/ctf/prob/%s/submit/", problemID), alice, types.FlagSubmission{
		Flag: "KEEPER{flag}",
	})
	s.Equal(http.StatusNotFound, status, "not in a team yet")
	s.Equal(-1206, env.Code)

	status, _ = s.request(http.MethodPatch, fmt.Sprintf("/v1/admin/ctf/contest/%s/close/", contestID), s.bearer(s.president), nil)
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.request(http.MethodGet, fmt.Sprintf("/v1/ctf/contest/%s/probs/", contestID), alice, nil)
	s.Equal(http.StatusBadRequest, status, "closed contests hide their problems")

	status, env = s.request(http.MethodGet, fmt.Sprintf("/v1/ctf/prob/%s/file/", problemID), alice, nil)
	s.Equal(http.StatusBadRequest, status, "closed contests hide their files")
	s.Equal(-1202, env.Code)
}

func (s *ServerTestSuite) TestProblemMinScoreAboveScore() {
	president := s.bearer(s.president)

	status, env := s.request(http.MethodPost, "/v1/admin/ctf/contest/", president, types.ContestCreate{
		Name: "keeper ctf",
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	contest := decode[types.ContestResponse](s, env.Data)

	minScore := int64(600)
	status, env = s.request(http.MethodPost, "/v1/admin/ctf/prob/", president, types.ProblemCreate{
		MinScore:  &minScore,
		Title:     "warmup",
		Content:   "find the flag",
		Flag:      "KEEPER{flag}",
		Category:  types.ProblemCategoryWeb,
		Type:      types.ProblemTypeDynamic,
		ContestID: contest.ID,
		Score:     500,
	})
	s.Equal(http.StatusBadRequest, status)
	s.Equal(-1001, env.Code)
	s.Contains(decode[map[string]string](s, env.Data), "min_score")
}

func (s *ServerTestSuite) TestSubmitRateLimit() {
	contestID, problemID := s.setupContest(types.ProblemTypeStandard)
	alice := s.bearer(s.alice)

	status, _ := s.request(http.MethodPost, "/v1/ctf/team/", alice, types.TeamCreate{Name: "alices", ContestID: contestID})
	s.Require().Equal(http.StatusCreated, status)

	submit := fmt.Sprintf("/v1/ctf/prob/%s/submit/", problemID)
	for range 3 {
		status, _ = s.request(http.MethodPost, submit, alice, types.FlagSubmission{Flag: "KEEPER{nope}"})
		s.Require().Equal(http.StatusOK, status)
	}

	status, env := s.request(http.MethodPost, submit, alice, types.FlagSubmission{Flag: "KEEPER{nope}"})
	s.Equal(http.StatusTooManyRequests, status)
	s.Equal(-1004, env.Code)
}

func (s *ServerTestSuite) TestAttachFile() {
	_, problemID := s.setupContest(types.ProblemTypeStandard)

	s.uploader.EXPECT().StoreIdentifier(gomock.Any()).Return("test", nil).AnyTimes()
	s.uploader.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil).AnyTimes()
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(5), gomock.Any()).Return(nil)
	s.uploader.EXPECT().
		PresignedReadURL(gomock.Any(), gomock.Any(), "warmup.txt", time.Minute).
		Return("https://files.keeper.or.kr/warmup", nil)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "warmup.txt")
	s.Require().NoError(err)
	_, err = part.Write([]byte("hello"))
	s.Require().NoError(err)
	s.Require().NoError(form.Close())

	req, err := http.NewRequestWithContext(
		s.T().Context(),
		http.MethodPost,
		fmt.Sprintf("%s/v1/admin/ctf/prob/%s/file/", s.server.URL, problemID),
		&body,
	)
	s.Require().NoError(err)
	req.Header.Set(echo.HeaderContentType, form.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.bearer(s.president))

	status, env := s.send(req)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	file := decode[types.FileResponse](s, env.Data)
	s.Equal("warmup.txt", file.Name)
	s.EqualValues(5, file.Size)

	status, env = s.request(http.MethodGet, fmt.Sprintf("/v1/ctf/prob/%s/file/", problemID), s.bearer(s.alice), nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.Equal("https://files.keeper.or.kr/warmup", decode[types.FileURLResponse](s, env.Data).URL)
}

func (s *ServerTestSuite) TestLibraryFlow() {
	librarian := s.bearer(s.librarian)
	alice := s.bearer(s.alice)

	status, env := s.request(http.MethodPost, "/v1/admin/library/book/", librarian, types.BookAdd{
		Title:    "The Go Programming Language",
		Author:   "Donovan",
		Quantity: 2,
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	book := decode[types.BookResponse](s, env.Data)

	status, env = s.request(http.MethodPost, "/v1/admin/library/borrow/", librarian, types.BookBorrow{
		BookID:   book.ID,
		MemberID: s.alice.ID,
		Quantity: 1,
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	borrow := decode[types.BorrowResponse](s, env.Data)

	status, env = s.request(http.MethodGet, "/v1/library/books/?keyword=go", alice, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	page := decode[types.Page[types.BookResponse]](s, env.Data)
	s.Require().Len(page.Content, 1)
	s.EqualValues(1, page.Content[0].Enable)
	s.EqualValues(1, page.Content[0].Borrow)

	status, _ = s.request(http.MethodPost, "/v1/admin/library/return/", alice, types.BookReturn{
		BorrowID: borrow.ID,
		Quantity: 1,
	})
	s.Equal(http.StatusForbidden, status)

	status, env = s.request(http.MethodPost, "/v1/admin/library/return/", librarian, types.BookReturn{
		BorrowID: borrow.ID,
		Quantity: 1,
	})
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.True(decode[types.BorrowResponse](s, env.Data).Returned)

	status, env = s.request(http.MethodGet, "/v1/admin/library/overdue/", librarian, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.JSONEq(`[]`, string(env.List))
}

func (s *ServerTestSuite) TestPostFlow() {
	president := s.bearer(s.president)
	alice := s.bearer(s.alice)
	librarian := s.bearer(s.librarian)

	status, _ := s.request(http.MethodPost, "/v1/admin/post/category/", alice, types.CategoryCreate{Name: "free"})
	s.Equal(http.StatusForbidden, status)

	status, env := s.request(http.MethodPost, "/v1/admin/post/category/", president, types.CategoryCreate{Name: "free"})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	category := decode[types.CategoryResponse](s, env.Data)

	status, env = s.request(http.MethodPost, "/v1/admin/post/category/", president, types.CategoryCreate{Name: "free"})
	s.Equal(http.StatusConflict, status, env.Msg)

	s.expectStored()
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(5), gomock.Any()).Return(nil)

	status, env = s.send(s.multipartRequest(http.MethodPost, "/v1/post/new/", alice, map[string]string{
		"category_id":   category.ID.String(),
		"title":         "notes",
		"content":       "meeting notes",
		"allow_comment": "true",
		"is_secret":     "true",
		"password":      "open sesame",
	}, formFile{name: "notes.txt", content: "hello"}))
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	post := decode[types.PostResponse](s, env.Data)
	s.Require().Len(post.Files, 1)
	s.Equal("notes.txt", post.Files[0].Name)
	s.True(post.IsSecret)

	postPath := fmt.Sprintf("/v1/post/%s/", post.ID)

	status, env = s.request(http.MethodGet, postPath, librarian, nil)
	s.Equal(http.StatusForbidden, status, env.Msg)

	req := s.newRequest(http.MethodGet, postPath, librarian, nil)
	req.Header.Set(routesv1.HeaderPostPassword, "open sesame")
	status, env = s.send(req)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	got := decode[types.PostResponse](s, env.Data)
	s.Equal("meeting notes", got.Content)
	s.EqualValues(1, got.VisitCount)

	status, env = s.request(http.MethodPost, postPath+"like/", librarian, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	reaction := decode[types.ReactionResponse](s, env.Data)
	s.True(reaction.Active)
	s.EqualValues(1, reaction.LikeCount)

	status, env = s.request(http.MethodPost, postPath+"like/", librarian, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	reaction = decode[types.ReactionResponse](s, env.Data)
	s.False(reaction.Active)
	s.Zero(reaction.LikeCount)

	commentsPath := fmt.Sprintf("/v1/comment/post/%s/", post.ID)

	status, _ = s.request(http.MethodPost, commentsPath, librarian, types.CommentCreate{Content: "nice"})
	s.Equal(http.StatusForbidden, status)

	req = s.newRequest(http.MethodPost, commentsPath, librarian, types.CommentCreate{Content: "nice"})
	req.Header.Set(routesv1.HeaderPostPassword, "open sesame")
	status, env = s.send(req)
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	comment := decode[types.CommentResponse](s, env.Data)
	s.Equal("librarian", comment.Writer)

	status, env = s.request(http.MethodGet, commentsPath, alice, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	comments := decode[types.Page[types.CommentResponse]](s, env.Data)
	s.Require().Len(comments.Content, 1)
	s.EqualValues(1, comments.Total)

	commentPath := fmt.Sprintf("/v1/comment/%s/", comment.ID)

	status, _ = s.request(http.MethodPut, commentPath, alice, types.CommentModify{Content: "edited"})
	s.Equal(http.StatusForbidden, status)

	status, _ = s.request(http.MethodDelete, "/v1/admin/comment/"+comment.ID.String()+"/", alice, nil)
	s.Equal(http.StatusForbidden, status)

	status, env = s.request(http.MethodDelete, "/v1/admin/comment/"+comment.ID.String()+"/", president, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	deleted := decode[types.CommentResponse](s, env.Data)
	s.True(deleted.Deleted)
	s.Empty(deleted.Content)

	status, _ = s.request(http.MethodDelete, commentPath, librarian, nil)
	s.Equal(http.StatusNotFound, status)

	status, env = s.request(http.MethodGet, "/v1/post/lists/?category="+category.ID.String(), librarian, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	page := decode[types.Page[types.PostSummary]](s, env.Data)
	s.Require().Len(page.Content, 1)
	s.Zero(page.Content[0].CommentCount)

	status, env = s.request(http.MethodGet, "/v1/post/search/?type=C&keyword=meeting", librarian, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	s.Empty(decode[types.Page[types.PostSummary]](s, env.Data).Content)

	status, env = s.request(http.MethodGet, "/v1/post/search/?type=X&keyword=meeting", librarian, nil)
	s.Equal(http.StatusBadRequest, status, env.Msg)

	s.uploader.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

	status, _ = s.request(http.MethodDelete, postPath, librarian, nil)
	s.Equal(http.StatusForbidden, status)

	status, env = s.request(http.MethodDelete, postPath, alice, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)

	status, env = s.request(http.MethodGet, postPath, alice, nil)
	s.Equal(http.StatusNotFound, status, env.Msg)
	s.Equal(-1400, env.Code)
}

func (s *ServerTestSuite) TestCommentOnClosedPost() {
	status, env := s.request(http.MethodPost, "/v1/admin/post/category/", s.bearer(s.president), types.CategoryCreate{
		Name: "notice",
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	category := decode[types.CategoryResponse](s, env.Data)

	alice := s.bearer(s.alice)
	status, env = s.send(s.multipartRequest(http.MethodPost, "/v1/post/new/", alice, map[string]string{
		"category_id": category.ID.String(),
		"title":       "closed",
		"content":     "no comments please",
	}))
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	post := decode[types.PostResponse](s, env.Data)
	s.False(post.AllowComment)

	status, env = s.request(http.MethodPost, fmt.Sprintf("/v1/comment/post/%s/", post.ID), alice, types.CommentCreate{
		Content: "hi",
	})
	s.Equal(http.StatusBadRequest, status)
	s.Equal(-1405, env.Code)
}

func (s *ServerTestSuite) TestAboutFlow() {
	president := s.bearer(s.president)

	status, _ := s.request(http.MethodPost, "/v1/admin/about/title/", s.bearer(s.alice), types.AboutTitleCreate{
		Title: "Keeper",
		Type:  "intro",
	})
	s.Equal(http.StatusForbidden, status)

	status, env := s.request(http.MethodPost, "/v1/admin/about/title/", president, types.AboutTitleCreate{
		Title: "Keeper",
		Type:  "intro",
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	title := decode[types.AboutTitleResponse](s, env.Data)

	s.expectStored()
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(3), gomock.Any()).Return(nil)

	status, env = s.send(s.multipartRequest(http.MethodPost, "/v1/admin/about/subtitle/", president, map[string]string{
		"title_id":      title.ID.String(),
		"subtitle":      "who we are",
		"display_order": "1",
	}, formFile{name: "logo.png", content: "png"}))
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	subtitle := decode[types.AboutSubtitleResponse](s, env.Data)
	s.Require().NotNil(subtitle.Image)
	s.Equal("logo.png", subtitle.Image.Name)

	status, env = s.request(http.MethodPost, "/v1/admin/about/content/", president, types.AboutContentCreate{
		SubtitleID: subtitle.ID,
		Content:    "a security study club",
	})
	s.Require().Equal(http.StatusCreated, status, env.Msg)
	content := decode[types.AboutContentResponse](s, env.Data)

	s.uploader.EXPECT().
		PresignedReadURL(gomock.Any(), gomock.Any(), "logo.png", time.Minute).
		Return("https://files.keeper.or.kr/logo", nil)

	status, env = s.request(http.MethodGet, "/v1/about/intro/", "", nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)
	blocks := decode[[]types.AboutTitleResponse](s, env.List)
	s.Require().Len(blocks, 1)
	s.Require().Len(blocks[0].Subtitles, 1)
	s.Equal("https://files.keeper.or.kr/logo", blocks[0].Subtitles[0].Image.URL)
	s.Equal("a security study club", blocks[0].Subtitles[0].Contents[0].Content)

	s.uploader.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

	status, env = s.request(http.MethodDelete, "/v1/admin/about/subtitle/"+subtitle.ID.String()+"/", president, nil)
	s.Require().Equal(http.StatusOK, status, env.Msg)

	status, env = s.request(http.MethodDelete, "/v1/admin/about/content/"+content.ID.String()+"/", president, nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal(-1502, env.Code)
}
