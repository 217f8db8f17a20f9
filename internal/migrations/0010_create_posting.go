package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0010, Down0010)
}

// posts and comments set updated_at on edits only, counter bumps must not move it
var touchedPostingTables = []string{"categories", "post_files"}

var postingTables = []string{
	"categories",
	"posts",
	"post_files",
	"comments",
	"post_reactions",
	"comment_reactions",
}

func touchUpdatedAt(table string) statement {
	return statement{query: fmt.Sprintf(`
CREATE TRIGGER touch_updated_at_trigger
BEFORE UPDATE ON %s
FOR EACH ROW EXECUTE PROCEDURE touch_updated_at();`, table)}
}

func Up0010(ctx context.Context, tx *sql.Tx) error {
	statements := []statement{
		{query: `
CREATE TABLE categories (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    name TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT categories_name_key UNIQUE (name)
);`},
		{query: `
CREATE TABLE posts (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    category_id UUID NOT NULL REFERENCES categories (id) ON DELETE RESTRICT,
    writer_id UUID REFERENCES members (id) ON DELETE SET NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    password TEXT,
    allow_comment BOOLEAN NOT NULL DEFAULT TRUE,
    is_notice BOOLEAN NOT NULL DEFAULT FALSE,
    is_secret BOOLEAN NOT NULL DEFAULT FALSE,
    is_temp BOOLEAN NOT NULL DEFAULT FALSE,
    visit_count BIGINT NOT NULL DEFAULT 0,
    like_count BIGINT NOT NULL DEFAULT 0,
    dislike_count BIGINT NOT NULL DEFAULT 0,
    comment_count BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT posts_counts_check CHECK (
        visit_count >= 0 AND like_count >= 0 AND dislike_count >= 0 AND comment_count >= 0
    ),
    CONSTRAINT posts_secret_password_check CHECK (NOT is_secret OR password IS NOT NULL)
);`},
		{query: `CREATE INDEX posts_category_created_at_idx ON posts (category_id, created_at DESC);`},
		{query: `
CREATE TABLE post_files (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    post_id UUID NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
    file_key TEXT NOT NULL,
    file_name TEXT NOT NULL,
    file_size BIGINT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT post_files_size_check CHECK (file_size > 0)
);`},
		{query: `CREATE INDEX post_files_post_id_idx ON post_files (post_id);`},
		{query: `
CREATE TABLE comments (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    post_id UUID NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
    parent_id UUID REFERENCES comments (id) ON DELETE CASCADE,
    writer_id UUID REFERENCES members (id) ON DELETE SET NULL,
    content TEXT NOT NULL,
    ip_address TEXT NOT NULL DEFAULT '',
    like_count BIGINT NOT NULL DEFAULT 0,
    dislike_count BIGINT NOT NULL DEFAULT 0,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT comments_counts_check CHECK (like_count >= 0 AND dislike_count >= 0)
);`},
		{query: `CREATE INDEX comments_post_id_created_at_idx ON comments (post_id, created_at);`},
		{query: `
CREATE TABLE post_reactions (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    post_id UUID NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
    member_id UUID NOT NULL REFERENCES members (id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT post_reactions_kind_check CHECK (kind IN ('LIKE', 'DISLIKE')),
    CONSTRAINT post_reactions_post_member_kind_key UNIQUE (post_id, member_id, kind)
);`},
		{query: `
CREATE TABLE comment_reactions (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    comment_id UUID NOT NULL REFERENCES comments (id) ON DELETE CASCADE,
    member_id UUID NOT NULL REFERENCES members (id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT comment_reactions_kind_check CHECK (kind IN ('LIKE', 'DISLIKE')),
    CONSTRAINT comment_reactions_comment_member_kind_key UNIQUE (comment_id, member_id, kind)
);`},
	}

	for _, table := range touchedPostingTables {
		statements = append(statements, touchUpdatedAt(table))
	}

	return execStatements(ctx, tx, statements...)
}

func Down0010(ctx context.Context, tx *sql.Tx) error {
	statements := make([]statement, 0, len(postingTables))
	for _, table := range reverse(postingTables) {
		statements = append(statements, statement{query: fmt.Sprintf(`DROP TABLE %s;`, table)})
	}

	return execStatements(ctx, tx, statements...)
}
