package library

import (
	"testing"
	"time"

	"github.com/google/uuid"
	sloggorm "github.com/imdatngo/slog-gorm/v2"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keeper-project/homepage-api/internal/apperr"
	"github.com/keeper-project/homepage-api/internal/config"
	"github.com/keeper-project/homepage-api/internal/migrations"
	"github.com/keeper-project/homepage-api/internal/models"
	"github.com/keeper-project/homepage-api/internal/types"
)

type LibraryTestSuite struct {
	suite.Suite
	postgres *postgres.PostgresContainer
	db       *gorm.DB
	tx       *gorm.DB
	service  *Service
	member   *models.Member
	clock    time.Time
}

func (s *LibraryTestSuite) SetupSuite() {
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
}

func (s *LibraryTestSuite) SetupTest() {
	s.tx = s.db.Begin()
	s.clock = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

	s.service = New(s.tx, config.LibraryConfig{MaxCopies: 4, LoanDays: 14})
	s.service.now = func() time.Time { return s.clock }

	s.member = &models.Member{
		LoginID:  "reader",
		Email:    "reader@keeper.or.kr",
		RealName: "Reader",
		NickName: "reader",
		Password: "not-a-hash",
		Rank:     types.MemberRankRegular,
		Type:     types.MemberTypeRegular,
		Roles:    models.Roles{Member: true},
	}
	s.Require().NoError(s.tx.Create(s.member).Error)
}

func (s *LibraryTestSuite) TearDownTest() {
	s.Require().NoError(s.tx.Rollback().Error)
}

func (s *LibraryTestSuite) TearDownSuite() {
	s.Require().NoError(testcontainers.TerminateContainer(s.postgres))
}

func TestLibraryTestSuite(t *testing.T) {
	suite.Run(t, new(LibraryTestSuite))
}

func (s *LibraryTestSuite) book(quantity int64) *models.Book {
	book, err := s.service.AddBook(s.T().Context(), s.member.ID, types.BookAdd{
		Title:    "The Go Programming Language",
		Author:   "Donovan",
		Quantity: quantity,
	})
	s.Require().NoError(err)

	return book
}

func (s *LibraryTestSuite) assertCounts(id uuid.UUID, total, enable, borrow int64) {
	var book models.Book
	s.Require().NoError(s.tx.First(&book, "id = ?", id).Error)

	s.Equal(total, book.Total, "total")
	s.Equal(enable, book.Enable, "enable")
	s.Equal(borrow, book.Borrow, "borrow")
	s.Equal(book.Total, book.Enable+book.Borrow)
}

func (s *LibraryTestSuite) TestAddBook() {
	book := s.book(3)
	s.assertCounts(book.ID, 3, 3, 0)

	again := s.book(1)
	s.Equal(book.ID, again.ID)
	s.assertCounts(book.ID, 4, 4, 0)

	_, err := s.service.AddBook(s.T().Context(), s.member.ID, types.BookAdd{
		Title:    "The Go Programming Language",
		Author:   "Donovan",
		Quantity: 1,
	})
	s.Require().ErrorIs(err, apperr.BookOverTheMax)
	s.assertCounts(book.ID, 4, 4, 0)

	_, err = s.service.AddBook(s.T().Context(), s.member.ID, types.BookAdd{
		Title:    "Another",
		Author:   "Someone",
		Quantity: 5,
	})
	s.Require().ErrorIs(err, apperr.BookOverTheMax)
}

func (s *LibraryTestSuite) TestBorrowAndReturn() {
	book := s.book(3)

	_, err := s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   book.ID,
		MemberID: s.member.ID,
		Quantity: 4,
	})
	s.Require().ErrorIs(err, apperr.BookNotEnough)

	borrow, err := s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   book.ID,
		MemberID: s.member.ID,
		Quantity: 2,
	})
	s.Require().NoError(err)
	s.Equal(s.clock.AddDate(0, 0, 14), borrow.ExpireDate)
	s.assertCounts(book.ID, 3, 1, 2)

	_, err = s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   book.ID,
		MemberID: s.member.ID,
		Quantity: 2,
	})
	s.Require().ErrorIs(err, apperr.BookNotEnough)

	s.Run("DeleteOnlyShelfCopies", func() {
		_, err := s.service.DeleteBook(s.T().Context(), s.member.ID, types.BookDelete{
			Title:    book.Title,
			Author:   book.Author,
			Quantity: 2,
		})
		s.Require().ErrorIs(err, apperr.BookNotEnough)
	})

	s.Run("PartialReturn", func() {
		resp, err := s.service.ReturnBook(s.T().Context(), s.member.ID, types.BookReturn{
			BorrowID: borrow.ID,
			Quantity: 1,
		})
		s.Require().NoError(err)
		s.False(resp.Returned)
		s.EqualValues(1, resp.Quantity)
		s.assertCounts(book.ID, 3, 2, 1)
	})

	s.Run("ReturnTooMany", func() {
		_, err := s.service.ReturnBook(s.T().Context(), s.member.ID, types.BookReturn{
			BorrowID: borrow.ID,
			Quantity: 2,
		})
		s.Require().ErrorIs(err, apperr.InvalidRequest)
	})

	s.Run("FullReturn", func() {
		resp, err := s.service.ReturnBook(s.T().Context(), s.member.ID, types.BookReturn{
			BorrowID: borrow.ID,
			Quantity: 1,
		})
		s.Require().NoError(err)
		s.True(resp.Returned)
		s.assertCounts(book.ID, 3, 3, 0)

		_, err = s.service.ReturnBook(s.T().Context(), s.member.ID, types.BookReturn{
			BorrowID: borrow.ID,
			Quantity: 1,
		})
		s.Require().ErrorIs(err, apperr.BorrowNotFound)
	})
}

func (s *LibraryTestSuite) TestBorrowUnknown() {
	book := s.book(1)

	_, err := s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   uuid.New(),
		MemberID: s.member.ID,
		Quantity: 1,
	})
	s.Require().ErrorIs(err, apperr.BookNotFound)

	_, err = s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   book.ID,
		MemberID: uuid.New(),
		Quantity: 1,
	})
	s.Require().ErrorIs(err, apperr.MemberNotFound)
}

func (s *LibraryTestSuite) TestDeleteBook() {
	book := s.book(3)

	remaining, err := s.service.DeleteBook(s.T().Context(), s.member.ID, types.BookDelete{
		Title:    book.Title,
		Author:   book.Author,
		Quantity: 2,
	})
	s.Require().NoError(err)
	s.Require().NotNil(remaining)
	s.assertCounts(book.ID, 1, 1, 0)

	remaining, err = s.service.DeleteBook(s.T().Context(), s.member.ID, types.BookDelete{
		Title:    book.Title,
		Author:   book.Author,
		Quantity: 1,
	})
	s.Require().NoError(err)
	s.Nil(remaining)

	_, err = s.service.DeleteBook(s.T().Context(), s.member.ID, types.BookDelete{
		Title:    book.Title,
		Author:   book.Author,
		Quantity: 1,
	})
	s.Require().ErrorIs(err, apperr.BookNotFound)
}

func (s *LibraryTestSuite) TestOverdueBooks() {
	book := s.book(2)

	late, err := s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   book.ID,
		MemberID: s.member.ID,
		Quantity: 1,
	})
	s.Require().NoError(err)

	s.clock = s.clock.AddDate(0, 0, 10)
	_, err = s.service.BorrowBook(s.T().Context(), s.member.ID, types.BookBorrow{
		BookID:   book.ID,
		MemberID: s.member.ID,
		Quantity: 1,
	})
	s.Require().NoError(err)

	// only the first loan is past its 14 days
	s.clock = s.clock.AddDate(0, 0, 5)
	overdue, err := s.service.OverdueBooks(s.T().Context(), 0, 10)
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(late.ID, overdue[0].ID)
	s.Require().NotNil(overdue[0].Book)
	s.Equal(book.Title, overdue[0].Response().Title)
	s.True(overdue[0].Overdue(s.clock))
}

func (s *LibraryTestSuite) TestSearchBooks() {
	s.book(1)
	_, err := s.service.AddBook(s.T().Context(), s.member.ID, types.BookAdd{
		Title:    "100% Pure",
		Author:   "Percent",
		Quantity: 1,
	})
	s.Require().NoError(err)

	page, err := s.service.SearchBooks(s.T().Context(), types.BookQuery{Keyword: "go"})
	s.Require().NoError(err)
	s.EqualValues(1, page.Total)
	s.Equal("The Go Programming Language", page.Content[0].Title)

	page, err = s.service.SearchBooks(s.T().Context(), types.BookQuery{Keyword: "%"})
	s.Require().NoError(err)
	s.EqualValues(1, page.Total)
	s.Equal("100% Pure", page.Content[0].Title)

	page, err = s.service.SearchBooks(s.T().Context(), types.BookQuery{})
	s.Require().NoError(err)
	s.EqualValues(2, page.Total)
	s.Equal(defaultPageSize, page.Size)
}
