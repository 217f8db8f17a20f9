package member

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	sloggorm "github.com/imdatngo/slog-gorm/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/mail"
	mockmailer "github.com/keeper-project/homepage-api/internal/mail/mock"
	"github.com/keeper-project/homepage-api/internal/migrations"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

func startRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	t.Cleanup(func() {
		assert.NoError(t, testcontainers.TerminateContainer(container), "failed to terminate container")
	})
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err, "failed to get redis endpoint")

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisCodeStore(t *testing.T) {
	ctx := context.Background()
	store := NewRedisCodeStore(startRedis(ctx, t), CodeTTL)

	t.Run("ConsumeOnce", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a@keeper.or.kr", "123456"))

		ok, err := store.Consume(ctx, "a@keeper.or.kr", "123456")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Consume(ctx, "a@keeper.or.kr", "123456")
		require.NoError(t, err)
		assert.False(t, ok, "codes are single use")
	})

	t.Run("WrongCodeBurnsIt", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "b@keeper.or.kr", "123456"))

		ok, err := store.Consume(ctx, "b@keeper.or.kr", "654321")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.Consume(ctx, "b@keeper.or.kr", "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expires", func(t *testing.T) {
		short := &RedisCodeStore{client: store.client, ttl: 100 * time.Millisecond}
		require.NoError(t, short.Save(ctx, "c@keeper.or.kr", "123456"))

		time.Sleep(300 * time.Millisecond)

		ok, err := short.Consume(ctx, "c@keeper.or.kr", "123456")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "d@keeper.or.kr", "111111"))
		require.NoError(t, store.Save(ctx, "d@keeper.or.kr", "222222"))

		ok, err := store.Consume(ctx, "d@keeper.or.kr", "222222")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestGenerateCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{6}$`)

	for range 100 {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
	}
}

type MemberTestSuite struct {
	suite.Suite
	postgres *postgres.PostgresContainer
	db       *gorm.DB
	tx       *gorm.DB
	redis    *redis.Client
	mailer   *mockmailer.MockMailer
	service  *Service
}

func (s *MemberTestSuite) SetupSuite() {
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

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         sloggorm.New(),
		TranslateError: true,
	})
	s.Require().NoError(err, "failed to connect to the database")
	s.db = db

	s.Require().NoError(migrations.Up(s.T().Context(), db), "failed to run up migrations")

	s.redis = startRedis(s.T().Context(), s.T())
}

func (s *MemberTestSuite) SetupTest() {
	s.tx = s.db.Begin()
	s.mailer = mockmailer.NewMockMailer(gomock.NewController(s.T()))
	s.service = New(s.tx, NewRedisCodeStore(s.redis, CodeTTL), s.mailer)
}

func (s *MemberTestSuite) TearDownTest() {
	s.Require().NoError(s.tx.Rollback().Error)
}

func (s *MemberTestSuite) TearDownSuite() {
	s.Require().NoError(testcontainers.TerminateContainer(s.postgres))
}

func TestMemberTestSuite(t *testing.T) {
	suite.Run(t, new(MemberTestSuite))
}

// Requests a code and returns what was mailed
func (s *MemberTestSuite) requestCode(email string) string {
	var code string
	s.mailer.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg mail.Message) error {
			s.Equal(email, msg.To)
			code = regexp.MustCompile(`[0-9]{6}`).FindString(msg.Body)
			return nil
		})

	s.Require().NoError(s.service.RequestEmailAuth(s.T().Context(), email))
	s.Require().Len(code, CodeLength)

	return code
}

func (s *MemberTestSuite) signUpRequest(loginID, email, code string) types.SignUpRequest {
	return types.SignUpRequest{
		LoginID:  loginID,
		Email:    email,
		Password: "correct horse battery",
		RealName: "New Member",
		NickName: loginID,
		AuthCode: code,
	}
}

func (s *MemberTestSuite) TestSignUp() {
	code := s.requestCode("new@keeper.or.kr")

	member, err := s.service.SignUp(s.T().Context(), s.signUpRequest("newbie", "new@keeper.or.kr", code))
	s.Require().NoError(err)
	s.Equal(models.Roles{Member: true}, member.Roles)
	s.Equal(types.MemberRankRegular, member.Rank)
	s.Equal(types.MemberTypeRegular, member.Type)

	match, err := argon2id.ComparePasswordAndHash("correct horse battery", member.Password)
	s.Require().NoError(err)
	s.True(match)

	taken, err := s.service.CheckLoginID(s.T().Context(), "newbie")
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.service.CheckEmail(s.T().Context(), "new@keeper.or.kr")
	s.Require().NoError(err)
	s.True(taken)

	taken, err = s.service.CheckLoginID(s.T().Context(), "someone-else")
	s.Require().NoError(err)
	s.False(taken)

	found, err := s.service.ByLoginID(s.T().Context(), "newbie")
	s.Require().NoError(err)
	s.Equal(member.ID, found.ID)

	missing, err := s.service.ByLoginID(s.T().Context(), "nobody")
	s.Require().NoError(err)
	s.Nil(missing)

	me, err := s.service.GetMember(s.T().Context(), member.ID)
	s.Require().NoError(err)
	s.Equal("newbie", me.LoginID)
}

func (s *MemberTestSuite) TestSignUpRejections() {
	s.Run("WrongCode", func() {
		code := s.requestCode("wrong@keeper.or.kr")
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}

		_, err := s.service.SignUp(s.T().Context(), s.signUpRequest("wrong", "wrong@keeper.or.kr", wrong))
		s.Require().ErrorIs(err, apperr.InvalidAuthCode)
	})

	s.Run("CodeIsSingleUse", func() {
		code := s.requestCode("once@keeper.or.kr")

		_, err := s.service.SignUp(s.T().Context(), s.signUpRequest("once", "once@keeper.or.kr", code))
		s.Require().NoError(err)

		_, err = s.service.SignUp(s.T().Context(), s.signUpRequest("twice", "once@keeper.or.kr", code))
		s.Require().ErrorIs(err, apperr.InvalidAuthCode)
	})

	s.Run("DuplicateLoginID", func() {
		code := s.requestCode("other@keeper.or.kr")

		_, err := s.service.SignUp(s.T().Context(), s.signUpRequest("once", "other@keeper.or.kr", code))
		s.Require().ErrorIs(err, apperr.DuplicateLoginID)
	})

	s.Run("DuplicateEmail", func() {
		code := s.requestCode("once@keeper.or.kr")

		_, err := s.service.SignUp(s.T().Context(), s.signUpRequest("fresh", "once@keeper.or.kr", code))
		s.Require().ErrorIs(err, apperr.DuplicateEmail)
	})
}

func (s *MemberTestSuite) TestMailFailure() {
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(assert.AnError)

	err := s.service.RequestEmailAuth(s.T().Context(), "down@keeper.or.kr")
	s.Require().ErrorIs(err, assert.AnError)
}
