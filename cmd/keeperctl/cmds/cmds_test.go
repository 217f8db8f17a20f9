package cmds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/database"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
	"github.com/keeper-project/homepage-api/internal/upload"
	mockuploader "github.com/keeper-project/homepage-api/internal/upload/mock"
	workererrors "github.com/keeper-project/homepage-api/internal/worker_errors"
)

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// Runs keeperctl with `args`, returning stdout
func run(ctx context.Context, args ...string) (string, error) {
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var ee workererrors.ExitError
	require.ErrorAs(t, err, &ee)
	return ee.Code
}

func TestRescoreFlags(t *testing.T) {
	loadConfig = func() (*config.Config, error) {
		t.Fatal("config must not be loaded for invalid flags")
		return nil, nil
	}
	t.Cleanup(func() { loadConfig = config.GetConfig })

	for name, args := range map[string][]string{
		"Neither":   {"rescore"},
		"Both":      {"rescore", "--all", "--contest", uuid.NewString()},
		"BadUUID":   {"rescore", "--contest", "not-a-uuid"},
		"ExtraArgs": {"rescore", "--all", "extra"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := run(t.Context(), args...)
			require.Error(t, err)

			if name == "ExtraArgs" {
				return
			}
			assert.Equal(t, workererrors.ExitCodeUsage, exitCode(t, err))
		})
	}
}

func TestConfigError(t *testing.T) {
	loadConfig = func() (*config.Config, error) {
		return nil, errors.New("no postgres section")
	}
	t.Cleanup(func() { loadConfig = config.GetConfig })

	_, err := run(t.Context(), "overdue")
	assert.Equal(t, workererrors.ExitCodeConfig, exitCode(t, err))
}

func TestImportRequiresFlags(t *testing.T) {
	_, err := run(t.Context(), "import", "--file", "contest.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creator")
}

func TestImportInvalidFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "contest.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: bad\nproblems: nope\n"), 0o600))

	_, err := run(t.Context(), "import", "--file", file, "--creator", "president")
	assert.Equal(t, workererrors.ExitCodeUsage, exitCode(t, err))
}

type KeeperctlTestSuite struct {
	suite.Suite
	postgres  *postgres.PostgresContainer
	cfg       *config.Config
	db        *gorm.DB
	uploader  *mockuploader.MockUploader
	president *models.Member
}

func (s *KeeperctlTestSuite) SetupSuite() {
	ctx := s.T().Context()

	postgresContainer, err := postgres.Run(
		ctx,
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

	host, err := s.postgres.Host(ctx)
	s.Require().NoError(err)
	port, err := s.postgres.MappedPort(ctx, "5432/tcp")
	s.Require().NoError(err)

	s.cfg = &config.Config{
		Postgres: &config.PostgresConfig{
			User:               "keeper",
			Password:           "keeper",
			Host:               host,
			Database:           "keeper",
			MaxIdleConnections: 1,
			MaxOpenConnections: 4,
			ConnectionTTL:      time.Minute,
			Port:               int16(port.Int()),
		},
		Logging: &config.LoggingConfig{},
		Storage: &config.StorageConfig{
			Backend:    config.StorageBackendMinio,
			PresignTTL: time.Minute,
		},
		CTF:     config.CTFConfig{Scoring: config.ScoringConfig{Decay: 50, MinScorePercent: 20}},
		Library: config.LibraryConfig{MaxCopies: 4, LoanDays: 14},
	}
	loadConfig = func() (*config.Config, error) { return s.cfg, nil }
	newUploader = func(context.Context, *config.StorageConfig) (upload.Uploader, error) {
		return s.uploader, nil
	}

	_, err = run(ctx, "migrate", "up")
	s.Require().NoError(err, "failed to migrate through keeperctl")

	s.db, err = openDB(ctx, s.cfg)
	s.Require().NoError(err)

	s.president = &models.Member{
		LoginID:  "president",
		Email:    "president@keeper.or.kr",
		RealName: "president",
		NickName: "president",
		Password: "not-a-hash",
		Rank:     types.MemberRankRegular,
		Type:     types.MemberTypeRegular,
		Roles:    models.Roles{President: true, Member: true},
	}
	s.Require().NoError(s.db.Create(s.president).Error)
}

func (s *KeeperctlTestSuite) SetupTest() {
	s.uploader = mockuploader.NewMockUploader(gomock.NewController(s.T()))
}

func (s *KeeperctlTestSuite) TearDownSuite() {
	loadConfig = config.GetConfig
	newUploader = upload.NewFromConfig

	s.Require().NoError(database.Close(s.db))
	s.Require().NoError(testcontainers.TerminateContainer(s.postgres))
}

func TestKeeperctlTestSuite(t *testing.T) {
	suite.Run(t, new(KeeperctlTestSuite))
}

func (s *KeeperctlTestSuite) writeContest(name, content string, files map[string]string) string {
	dir := s.T().TempDir()
	for fileName, body := range files {
		s.Require().NoError(os.WriteFile(filepath.Join(dir, fileName), []byte(body), 0o600))
	}

	file := filepath.Join(dir, name)
	s.Require().NoError(os.WriteFile(file, []byte(content), 0o600))
	return file
}

const importYAML = `
name: imported
description: from a file
open: true
joinable: true
problems:
  - title: warmup
    content: find the flag
    flag: keeper{warmup}
    score: 100
    category: MISC
    type: STANDARD
    open: true
  - title: heap
    content: pwn me
    flag: keeper{heap}
    score: 500
    category: SYSTEM
    type: DYNAMIC
    file: heap.bin
`

func (s *KeeperctlTestSuite) TestImport() {
	s.uploader.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil)
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), int64(4), gomock.Any()).Return(nil)
	s.uploader.EXPECT().StoreIdentifier(gomock.Any()).Return("minio/ctf", nil).AnyTimes()

	file := s.writeContest("contest.yaml", importYAML, map[string]string{"heap.bin": "\x7fELF"})

	out, err := run(s.T().Context(), "import", "--file", file, "--creator", "president")
	s.Require().NoError(err)

	contestID, err := uuid.Parse(strings.TrimSpace(out))
	s.Require().NoError(err, "prints the contest id")

	contest, err := models.ByID[models.Contest](s.T().Context(), s.db, contestID)
	s.Require().NoError(err)
	s.Equal("imported", contest.Name)
	s.Equal(s.president.ID, contest.CreatorID)
	s.True(contest.IsOpen)
	s.True(contest.IsJoinable)

	var problems []models.Problem
	s.Require().NoError(s.db.Where("contest_id = ?", contestID).Order("title DESC").Find(&problems).Error)
	s.Require().Len(problems, 2)

	warmup, heap := problems[0], problems[1]
	s.Equal("warmup", warmup.Title)
	s.True(warmup.IsSolvable)
	s.False(warmup.FileKey.Valid)

	s.Equal("heap", heap.Title)
	s.False(heap.IsSolvable)
	s.Require().True(heap.FileName.Valid)
	s.Equal("heap.bin", heap.FileName.V)
	s.EqualValues(4, heap.FileSize.V)
}

func (s *KeeperctlTestSuite) TestImportUnknownCreator() {
	file := s.writeContest("contest.yaml", importYAML, nil)

	_, err := run(s.T().Context(), "import", "--file", file, "--creator", "nobody")
	s.Equal(workererrors.ExitCodeUsage, exitCode(s.T(), err))
}

func (s *KeeperctlTestSuite) TestImportRollsBack() {
	content := strings.Replace(importYAML, "name: imported", "name: missing-file", 1)
	file := s.writeContest("contest.yaml", content, nil)

	_, err := run(s.T().Context(), "import", "--file", file, "--creator", "president")
	s.Equal(workererrors.ExitCodeUsage, exitCode(s.T(), err))
	s.ErrorIs(err, os.ErrNotExist)

	var count int64
	s.Require().NoError(s.db.Model(&models.Contest{}).Where("name = ?", "missing-file").Count(&count).Error)
	s.Zero(count, "failed import leaves no contest behind")
}

func (s *KeeperctlTestSuite) TestRescore() {
	contest := models.Contest{Name: "rescore", CreatorID: s.president.ID}
	s.Require().NoError(s.db.Create(&contest).Error)

	team := models.Team{Name: "stale", ContestID: contest.ID, CreatorID: s.president.ID, Score: 999}
	s.Require().NoError(s.db.Create(&team).Error)

	out, err := run(s.T().Context(), "rescore", "--contest", contest.ID.String())
	s.Require().NoError(err)

	var line rescoreLine
	s.Require().NoError(json.Unmarshal([]byte(out), &line))
	s.Equal(contest.ID, line.ContestID)
	s.Zero(line.Solves)
	s.Zero(line.Totals[team.ID])

	s.Require().NoError(s.db.First(&team, "id = ?", team.ID).Error)
	s.Zero(team.Score, "team without solves is reset")

	out, err = run(s.T().Context(), "rescore", "--all", "--parallelism", "2")
	s.Require().NoError(err)
	s.Contains(out, contest.ID.String())
}

func (s *KeeperctlTestSuite) TestOverdue() {
	book := models.Book{Title: "SICP", Author: "Abelson", Total: 2, Borrow: 2}
	s.Require().NoError(s.db.Create(&book).Error)

	late := models.BookBorrow{
		ExpireDate: time.Now().Add(-48 * time.Hour),
		BookID:     book.ID,
		MemberID:   s.president.ID,
		Quantity:   1,
	}
	onTime := models.BookBorrow{
		ExpireDate: time.Now().Add(48 * time.Hour),
		BookID:     book.ID,
		MemberID:   s.president.ID,
		Quantity:   1,
	}
	s.Require().NoError(s.db.Create(&late).Error)
	s.Require().NoError(s.db.Create(&onTime).Error)

	out, err := run(s.T().Context(), "overdue")
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	s.Require().Len(lines, 1)

	var borrow types.BorrowResponse
	s.Require().NoError(json.Unmarshal([]byte(lines[0]), &borrow))
	s.Equal(late.ID, borrow.ID)
	s.Equal("SICP", borrow.Title)
}
