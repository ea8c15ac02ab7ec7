package store

import (
	"context"

	"github.com/starford/ansuz/internal/models"
)

// NoteStore persists published notes. Hashcode uniqueness is enforced here
// by a UNIQUE constraint as the backstop to the application-level retry
// loop, and view counting is a single atomic increment.
type NoteStore interface {
	CreateNote(ctx context.Context, n *models.Note) error
	GetNoteByHashcode(ctx context.Context, hashcode string) (*models.Note, error)
	UpdateNote(ctx context.Context, n *models.Note) error
	HashcodeExists(ctx context.Context, hashcode string) (bool, error)
	IncrementViews(ctx context.Context, hashcode string) error
	ListNotesByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.Note, int, error)
	AllNotes(ctx context.Context) ([]models.Note, error)
}

// AccountStore persists Telegraph accounts and their bearer credentials.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByToken(ctx context.Context, token string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	UpdateAccessToken(ctx context.Context, id int64, token string) error
	PageCount(ctx context.Context, accountID int64) (int, error)
}

// CommentStore persists paragraph comments and like records. Duplicate
// likes from the same identity fail with apperr.ErrAlreadyExists via the
// storage-level uniqueness constraint.
type CommentStore interface {
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	ListComments(ctx context.Context, siteID, workID, chapterID string, paraIndex int) ([]models.Comment, error)
	AddLike(ctx context.Context, commentID int64, userID, ip string) error
	IsBanned(ctx context.Context, userID, ip string) (bool, error)
}

// Verify *DB satisfies the store interfaces at compile time.
var (
	_ NoteStore    = (*DB)(nil)
	_ AccountStore = (*DB)(nil)
	_ CommentStore = (*DB)(nil)
)
