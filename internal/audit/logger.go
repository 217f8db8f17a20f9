package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keeper-project/homepage-api/internal/logger"
)

// Who and where an audited action happened. Unknown parts stay nil.
type Context struct {
	ContestID *string
	TeamID    *string
	MemberID  *string
}

func newMessage(c Context, typ EventType, disposition Disposition) Message {
	return Message{
		ContestID:     c.ContestID,
		TeamID:        c.TeamID,
		MemberID:      c.MemberID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		Disposition:   disposition,
		Type:          typ,
		Timestamp:     time.Now().UTC().UnixMilli(),
	}
}

func emit(typ EventType, event any) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error("could not serialize audit event", "type", typ, "error", err)
		return
	}

	fmt.Println(string(evtStr))
}

func LogContestCreated(c Context, name string) {
	event := ContestCreated{Message: newMessage(c, EvtContestCreated, DispositionNeutral)}
	event.Event.Name = name

	emit(event.Type, event)
}

func LogContestStateChanged(c Context, field string, value bool) {
	event := ContestStateChanged{
		Message: newMessage(c, EvtContestStateChanged, DispositionNeutral),
	}
	event.Event.Field = field
	event.Event.Value = value

	emit(event.Type, event)
}

func LogProblemCreated(c Context, problemID, title, problemType string) {
	event := ProblemCreated{Message: newMessage(c, EvtProblemCreated, DispositionNeutral)}
	event.Event = ProblemEvent{ProblemID: problemID, Title: title, Type: problemType}

	emit(event.Type, event)
}

func LogProblemDeleted(c Context, problemID, title, problemType string) {
	event := ProblemDeleted{Message: newMessage(c, EvtProblemDeleted, DispositionNeutral)}
	event.Event = ProblemEvent{ProblemID: problemID, Title: title, Type: problemType}

	emit(event.Type, event)
}

func LogProblemStateChanged(c Context, problemID string, solvable bool) {
	event := ProblemStateChanged{
		Message: newMessage(c, EvtProblemStateChanged, DispositionNeutral),
	}
	event.Event.ProblemID = problemID
	event.Event.Solvable = solvable

	emit(event.Type, event)
}

func LogProbMakerDesignated(c Context, designatedMemberID string) {
	event := ProbMakerDesignated{
		Message: newMessage(c, EvtProbMakerDesignated, DispositionNeutral),
	}
	event.Event.DesignatedMemberID = designatedMemberID

	emit(event.Type, event)
}

func LogTeamCreated(c Context, name string) {
	event := TeamCreated{Message: newMessage(c, EvtTeamCreated, DispositionNeutral)}
	event.Event.Name = name

	emit(event.Type, event)
}

func LogTeamJoined(c Context, name string) {
	event := TeamJoined{Message: newMessage(c, EvtTeamJoined, DispositionNeutral)}
	event.Event.Name = name

	emit(event.Type, event)
}

func LogTeamLeft(c Context, name string, teamDeleted bool) {
	event := TeamLeft{Message: newMessage(c, EvtTeamLeft, DispositionNeutral)}
	event.Event.Name = name
	event.Event.TeamDeleted = teamDeleted

	emit(event.Type, event)
}

func LogFlagSubmission(
	c Context,
	submissionID string,
	problemID string,
	correct bool,
	scored bool,
	teamScore int64,
) {
	disposition := DispositionBad
	if correct {
		disposition = DispositionGood
	}

	event := FlagSubmission{Message: newMessage(c, EvtFlagSubmission, disposition)}
	event.Event = FlagSubmissionEvent{
		SubmissionID: submissionID,
		ProblemID:    problemID,
		Correct:      correct,
		Scored:       scored,
		TeamScore:    teamScore,
	}

	emit(event.Type, event)
}

func LogScoreRecomputed(c Context, teams int, solves int) {
	event := ScoreRecomputed{Message: newMessage(c, EvtScoreRecomputed, DispositionNeutral)}
	event.Event.Teams = teams
	event.Event.Solves = solves

	emit(event.Type, event)
}

func LogFileStored(
	c Context,
	storeName string,
	objectName string,
	entity FileStoredEntity,
	entityID string,
) {
	event := FileStored{Message: newMessage(c, EvtFileStored, DispositionNeutral)}
	event.Event = FileEvent{
		StoreName:  storeName,
		ObjectName: objectName,
		Entity:     entity,
		EntityID:   entityID,
	}

	emit(event.Type, event)
}

func LogFileDeleted(
	c Context,
	storeName string,
	objectName string,
	entity FileStoredEntity,
	entityID string,
) {
	event := FileDeleted{Message: newMessage(c, EvtFileDeleted, DispositionNeutral)}
	event.Event = FileEvent{
		StoreName:  storeName,
		ObjectName: objectName,
		Entity:     entity,
		EntityID:   entityID,
	}

	emit(event.Type, event)
}

func LogBookBorrowed(c Context, borrowID, bookID string, quantity int64) {
	event := BookBorrowed{Message: newMessage(c, EvtBookBorrowed, DispositionNeutral)}
	event.Event = BookLoanEvent{BorrowID: borrowID, BookID: bookID, Quantity: quantity}

	emit(event.Type, event)
}

func LogBookReturned(c Context, borrowID, bookID string, quantity int64, overdue bool) {
	disposition := DispositionGood
	if overdue {
		disposition = DispositionBad
	}

	event := BookReturned{Message: newMessage(c, EvtBookReturned, disposition)}
	event.Event = BookLoanEvent{BorrowID: borrowID, BookID: bookID, Quantity: quantity}

	emit(event.Type, event)
}

func LogBookInventoryChanged(c Context, bookID string, delta int64, total int64) {
	event := BookInventoryChanged{
		Message: newMessage(c, EvtBookInventoryChanged, DispositionNeutral),
	}
	event.Event = BookInventoryChangedEvent{BookID: bookID, Delta: delta, Total: total}

	emit(event.Type, event)
}

func LogPostCreated(c Context, postID, categoryID, title string, files int) {
	event := PostCreated{Message: newMessage(c, EvtPostCreated, DispositionNeutral)}
	event.Event = PostEvent{PostID: postID, CategoryID: categoryID, Title: title, Files: files}

	emit(event.Type, event)
}

func LogPostDeleted(c Context, postID, categoryID, title string, files int) {
	event := PostDeleted{Message: newMessage(c, EvtPostDeleted, DispositionNeutral)}
	event.Event = PostEvent{PostID: postID, CategoryID: categoryID, Title: title, Files: files}

	emit(event.Type, event)
}

func LogCommentDeleted(c Context, commentID, postID string, moderated bool) {
	disposition := DispositionNeutral
	if moderated {
		disposition = DispositionBad
	}

	event := CommentDeleted{Message: newMessage(c, EvtCommentDeleted, disposition)}
	event.Event = CommentDeletedEvent{CommentID: commentID, PostID: postID, Moderated: moderated}

	emit(event.Type, event)
}

// Converts an id into the optional form used by Context
func ID(s fmt.Stringer) *string {
	v := s.String()
	return &v
}
