package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0011, Down0011)
}

func Up0011(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE about_titles (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    title TEXT NOT NULL,
    type TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `CREATE INDEX about_titles_type_idx ON about_titles (type);`},
		statement{query: `
CREATE TABLE about_subtitles (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    title_id UUID NOT NULL REFERENCES about_titles (id) ON DELETE CASCADE,
    subtitle TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    image_key TEXT,
    image_name TEXT,
    image_size BIGINT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    CONSTRAINT about_subtitles_image_check CHECK (
        (image_key IS NULL) = (image_name IS NULL) AND (image_key IS NULL) = (image_size IS NULL)
    )
);`},
		statement{query: `
CREATE TABLE about_contents (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    subtitle_id UUID NOT NULL REFERENCES about_subtitles (id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    display_order INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		touchUpdatedAt("about_titles"),
		touchUpdatedAt("about_subtitles"),
		touchUpdatedAt("about_contents"),
	)
}

func Down0011(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `DROP TABLE about_contents;`},
		statement{query: `DROP TABLE about_subtitles;`},
		statement{query: `DROP TABLE about_titles;`},
	)
}
