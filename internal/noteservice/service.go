// Package noteservice coordinates identifier generation, token checks, and
// persistence for notes and Telegraph accounts.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/ident"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/telegraph"
)

// hashcodeAttempts is how many short-code candidates are tried before
// falling back to the 32-hex format, which needs no uniqueness check.
const hashcodeAttempts = 10

// Service implements the note and account operations.
type Service struct {
	notes    store.NoteStore
	accounts store.AccountStore
}

// NewService creates a new note service.
func NewService(notes store.NoteStore, accounts store.AccountStore) *Service {
	return &Service{notes: notes, accounts: accounts}
}

// assignHashcode returns a free short code, or the guaranteed-unique
// fallback when every candidate collides. The storage UNIQUE constraint
// still backstops the narrow check-then-insert race.
func (s *Service) assignHashcode(ctx context.Context) (string, error) {
	for i := 0; i < hashcodeAttempts; i++ {
		code := ident.NewHashcode()
		exists, err := s.notes.HashcodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("noteservice: check hashcode: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return ident.NewFallbackHashcode(), nil
}

// Publish creates an anonymous note from raw markdown and returns it with
// its hashcode and edit token assigned.
func (s *Service) Publish(ctx context.Context, content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.ErrInvalid
	}

	code, err := s.assignHashcode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n := &models.Note{
		Hashcode:   code,
		Content:    content,
		LinkTarget: models.LinkTargetBlank,
		EditToken:  ident.NewEditToken(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.notes.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Get returns a note by hashcode without touching the view counter.
func (s *Service) Get(ctx context.Context, hashcode string) (*models.Note, error) {
	return s.notes.GetNoteByHashcode(ctx, hashcode)
}

// View returns a note and records one view atomically at the storage
// layer.
func (s *Service) View(ctx context.Context, hashcode string) (*models.Note, error) {
	n, err := s.notes.GetNoteByHashcode(ctx, hashcode)
	if err != nil {
		return nil, err
	}
	if err := s.notes.IncrementViews(ctx, hashcode); err != nil {
		return nil, err
	}
	return n, nil
}

// CanEdit reports whether either provided token (cookie or URL parameter)
// matches the note's edit token.
func (s *Service) CanEdit(n *models.Note, cookieToken, urlToken string) bool {
	return ident.Verify(cookieToken, n.EditToken) || ident.Verify(urlToken, n.EditToken)
}

// Edit replaces a note's content after verifying possession. Returns
// apperr.ErrPermission when neither token matches.
func (s *Service) Edit(ctx context.Context, hashcode, cookieToken, urlToken, content string) (*models.Note, error) {
	n, err := s.notes.GetNoteByHashcode(ctx, hashcode)
	if err != nil {
		return nil, err
	}
	if !s.CanEdit(n, cookieToken, urlToken) {
		return nil, apperr.ErrPermission
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.ErrInvalid
	}
	n.Content = content
	n.UpdatedAt = time.Now().UTC()
	if err := s.notes.UpdateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// CreateAccount registers a Telegraph account with a fresh access token.
func (s *Service) CreateAccount(ctx context.Context, shortName, authorName, authorURL string) (*models.Account, error) {
	if strings.TrimSpace(shortName) == "" {
		return nil, apperr.ErrInvalid
	}
	a := &models.Account{
		ShortName:   shortName,
		AuthorName:  authorName,
		AuthorURL:   authorURL,
		AccessToken: ident.NewAccessToken(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.accounts.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Account resolves an access token. An unknown token is a not-found, never
// a partial result.
func (s *Service) Account(ctx context.Context, accessToken string) (*models.Account, error) {
	if accessToken == "" {
		return nil, apperr.ErrNotFound
	}
	return s.accounts.GetAccountByToken(ctx, accessToken)
}

// PageCount returns the number of pages owned by the account.
func (s *Service) PageCount(ctx context.Context, accountID int64) (int, error) {
	return s.accounts.PageCount(ctx, accountID)
}

// RevokeAccessToken rotates the account's credential. The old token stops
// working the moment the new one is stored.
func (s *Service) RevokeAccessToken(ctx context.Context, accessToken string) (*models.Account, error) {
	a, err := s.Account(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	a.AccessToken = ident.NewAccessToken()
	if err := s.accounts.UpdateAccessToken(ctx, a.ID, a.AccessToken); err != nil {
		return nil, err
	}
	return a, nil
}

// CreatePage creates a note from a Telegraph node tree. With an access
// token the page is owned by that account and inherits its author name
// when none is given; without one the page is anonymous.
func (s *Service) CreatePage(ctx context.Context, accessToken, title, authorName string, nodes []telegraph.Node) (*models.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.ErrInvalid
	}

	var accountID *int64
	if accessToken != "" {
		a, err := s.Account(ctx, accessToken)
		if err != nil {
			return nil, err
		}
		accountID = &a.ID
		if authorName == "" {
			authorName = a.AuthorName
		}
	}

	code, err := s.assignHashcode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	n := &models.Note{
		Hashcode:   code,
		Title:      title,
		Author:     authorName,
		Content:    telegraph.NodesToMarkdown(nodes),
		LinkTarget: models.LinkTargetBlank,
		EditToken:  ident.NewEditToken(),
		AccountID:  accountID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.notes.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// EditPage updates a page owned by the token's account. Anonymous pages
// and pages owned by a different account are rejected with no partial
// mutation.
func (s *Service) EditPage(ctx context.Context, path, accessToken, title, authorName string, nodes []telegraph.Node) (*models.Note, error) {
	n, err := s.notes.GetNoteByHashcode(ctx, path)
	if err != nil {
		return nil, err
	}

	a, err := s.Account(ctx, accessToken)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrPermission
		}
		return nil, err
	}
	if n.AccountID == nil || *n.AccountID != a.ID {
		return nil, apperr.ErrPermission
	}

	if title != "" {
		n.Title = title
	}
	if authorName != "" {
		n.Author = authorName
	}
	n.Content = telegraph.NodesToMarkdown(nodes)
	n.UpdatedAt = time.Now().UTC()
	if err := s.notes.UpdateNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// PageList returns the account's pages, latest first, with the total count.
func (s *Service) PageList(ctx context.Context, accessToken string, limit, offset int) ([]models.Note, int, error) {
	a, err := s.Account(ctx, accessToken)
	if err != nil {
		return nil, 0, err
	}
	return s.notes.ListNotesByAccount(ctx, a.ID, limit, offset)
}

// Views returns the current view counter for a page.
func (s *Service) Views(ctx context.Context, path string) (int64, error) {
	n, err := s.notes.GetNoteByHashcode(ctx, path)
	if err != nil {
		return 0, err
	}
	return n.Views, nil
}

// Export returns every stored note for the admin dump.
func (s *Service) Export(ctx context.Context) ([]models.Note, error) {
	return s.notes.AllNotes(ctx)
}

// Import inserts notes from an admin dump. Notes without a hashcode or
// edit token get fresh ones; hashcode collisions with existing notes are
// skipped and counted.
func (s *Service) Import(ctx context.Context, notes []models.Note) (imported, skipped int, err error) {
	for i := range notes {
		n := notes[i]
		if n.Hashcode == "" {
			code, err := s.assignHashcode(ctx)
			if err != nil {
				return imported, skipped, err
			}
			n.Hashcode = code
		}
		if n.EditToken == "" {
			n.EditToken = ident.NewEditToken()
		}
		if n.LinkTarget == "" {
			n.LinkTarget = models.LinkTargetBlank
		}
		now := time.Now().UTC()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = now
		}

		switch createErr := s.notes.CreateNote(ctx, &n); {
		case createErr == nil:
			imported++
		case errors.Is(createErr, apperr.ErrAlreadyExists):
			skipped++
		default:
			return imported, skipped, createErr
		}
	}
	return imported, skipped, nil
}
