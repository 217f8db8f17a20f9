package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0008, Down0008)
}

func Up0008(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE books (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    information TEXT NOT NULL DEFAULT '',
    total BIGINT NOT NULL,
    borrow BIGINT NOT NULL DEFAULT 0,
    enable BIGINT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT books_title_author_key UNIQUE (title, author),
    CONSTRAINT books_counts_check CHECK (
        borrow >= 0 AND enable >= 0 AND total = enable + borrow
    )
);`},
		statement{query: `
CREATE TABLE book_borrows (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    book_id UUID NOT NULL REFERENCES books (id) ON DELETE RESTRICT,
    member_id UUID NOT NULL REFERENCES members (id) ON DELETE RESTRICT,
    quantity BIGINT NOT NULL,
    expire_date TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT book_borrows_quantity_check CHECK (quantity > 0)
);`},
		statement{query: `CREATE INDEX book_borrows_expire_date_idx ON book_borrows (expire_date);`},
	)
}

func Down0008(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE book_borrows;`},
		statement{query: `DROP TABLE books;`},
	)
}
