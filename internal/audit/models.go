package audit

var schemaVersion = "1.0.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type FileStoredEntity string

const (
	EntityProblemFile FileStoredEntity = "problem_file"
	EntityPostFile    FileStoredEntity = "post_file"
	EntityAboutImage  FileStoredEntity = "about_image"
)

type EventType string

const (
	EvtContestCreated       EventType = "contest_created"
	EvtContestStateChanged  EventType = "contest_state_changed"
	EvtProblemCreated       EventType = "problem_created"
	EvtProblemStateChanged  EventType = "problem_state_changed"
	EvtProblemDeleted       EventType = "problem_deleted"
	EvtProbMakerDesignated  EventType = "prob_maker_designated"
	EvtTeamCreated          EventType = "team_created"
	EvtTeamJoined           EventType = "team_joined"
	EvtTeamLeft             EventType = "team_left"
	EvtFlagSubmission       EventType = "flag_submission"
	EvtScoreRecomputed      EventType = "score_recomputed"
	EvtFileStored           EventType = "file_stored"
	EvtFileDeleted          EventType = "file_deleted"
	EvtBookBorrowed         EventType = "book_borrowed"
	EvtBookReturned         EventType = "book_returned"
	EvtBookInventoryChanged EventType = "book_inventory_changed"
	EvtPostCreated          EventType = "post_created"
	EvtPostDeleted          EventType = "post_deleted"
	EvtCommentDeleted       EventType = "comment_deleted"
)

type Message struct {
	ContestID     *string     `json:"contest_id"`
	TeamID        *string     `json:"team_id"`
	MemberID      *string     `json:"member_id"`
	LogContext    string      `json:"log_context" validate:"required"`
	SchemaVersion string      `json:"version"     validate:"required"`
	Disposition   Disposition `json:"disposition" validate:"required"`
	Type          EventType   `json:"event_type"  validate:"required"`

	Timestamp int64 `json:"timestamp" validate:"required"`
}

type ContestCreatedEvent struct {
	Name string `json:"name" validate:"required"`
}

type ContestCreated struct {
	Message
	Event ContestCreatedEvent `json:"event" validate:"required"`
}

type StateChangedEvent struct {
	Field string `json:"field" validate:"required"`
	Value bool   `json:"value"`
}

type ContestStateChanged struct {
	Message
	Event StateChangedEvent `json:"event" validate:"required"`
}

type ProblemEvent struct {
	ProblemID string `json:"problem_id" validate:"required"`
	Title     string `json:"title"`
	Type      string `json:"type"`
}

type ProblemCreated struct {
	Message
	Event ProblemEvent `json:"event" validate:"required"`
}

type ProblemDeleted struct {
	Message
	Event ProblemEvent `json:"event" validate:"required"`
}

type ProblemStateChangedEvent struct {
	ProblemID string `json:"problem_id" validate:"required"`
	Solvable  bool   `json:"solvable"`
}

type ProblemStateChanged struct {
	Message
	Event ProblemStateChangedEvent `json:"event" validate:"required"`
}

type ProbMakerDesignatedEvent struct {
	DesignatedMemberID string `json:"designated_member_id" validate:"required"`
}

type ProbMakerDesignated struct {
	Message
	Event ProbMakerDesignatedEvent `json:"event" validate:"required"`
}

type TeamEvent struct {
	Name string `json:"name"`
}

type TeamCreated struct {
	Message
	Event TeamEvent `json:"event" validate:"required"`
}

type TeamJoined struct {
	Message
	Event TeamEvent `json:"event" validate:"required"`
}

type TeamLeftEvent struct {
	Name        string `json:"name"`
	TeamDeleted bool   `json:"team_deleted"`
}

type TeamLeft struct {
	Message
	Event TeamLeftEvent `json:"event" validate:"required"`
}

type FlagSubmissionEvent struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	ProblemID    string `json:"problem_id"    validate:"required"`
	Correct      bool   `json:"correct"`
	Scored       bool   `json:"scored"`
	TeamScore    int64  `json:"team_score"`
}

type FlagSubmission struct {
	Message
	Event FlagSubmissionEvent `json:"event" validate:"required"`
}

type ScoreRecomputedEvent struct {
	Teams  int `json:"teams"`
	Solves int `json:"solves"`
}

type ScoreRecomputed struct {
	Message
	Event ScoreRecomputedEvent `json:"event" validate:"required"`
}

type FileEvent struct {
	StoreName  string           `json:"store_name"  validate:"required"`
	ObjectName string           `json:"object_name" validate:"required"`
	Entity     FileStoredEntity `json:"entity"      validate:"required"`
	EntityID   string           `json:"entity_id"   validate:"required"`
}

type FileStored struct {
	Message
	Event FileEvent `json:"event" validate:"required"`
}

type FileDeleted struct {
	Message
	Event FileEvent `json:"event" validate:"required"`
}

type BookLoanEvent struct {
	BorrowID string `json:"borrow_id" validate:"required"`
	BookID   string `json:"book_id"   validate:"required"`
	Quantity int64  `json:"quantity"`
}

type BookBorrowed struct {
	Message
	Event BookLoanEvent `json:"event" validate:"required"`
}

type BookReturned struct {
	Message
	Event BookLoanEvent `json:"event" validate:"required"`
}

type BookInventoryChangedEvent struct {
	BookID string `json:"book_id" validate:"required"`
	Delta  int64  `json:"delta"`
	Total  int64  `json:"total"`
}

type BookInventoryChanged struct {
	Message
	Event BookInventoryChangedEvent `json:"event" validate:"required"`
}

type PostEvent struct {
	PostID     string `json:"post_id"     validate:"required"`
	CategoryID string `json:"category_id" validate:"required"`
	Title      string `json:"title"`
	Files      int    `json:"files"`
}

type PostCreated struct {
	Message
	Event PostEvent `json:"event" validate:"required"`
}

type PostDeleted struct {
	Message
	Event PostEvent `json:"event" validate:"required"`
}

type CommentDeletedEvent struct {
	CommentID string `json:"comment_id" validate:"required"`
	PostID    string `json:"post_id"    validate:"required"`
	// Deleted by someone other than the writer
	Moderated bool `json:"moderated"`
}

type CommentDeleted struct {
	Message
	Event CommentDeletedEvent `json:"event" validate:"required"`
}
