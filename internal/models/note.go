// Package models defines the domain types for Ansuz.
package models

import "time"

// Link target modes for rendered anchors.
const (
	LinkTargetBlank = "_blank"
	LinkTargetSelf  = "_self"
)

// Note is a published markdown document addressed by its hashcode.
//
// Hashcode and EditToken are assigned once at creation and never change.
// Possession of EditToken (via cookie or URL parameter) grants write access.
type Note struct {
	ID         int64     `json:"-"`
	Hashcode   string    `json:"hashcode"`
	Title      string    `json:"title,omitempty"`
	Author     string    `json:"author,omitempty"`
	Content    string    `json:"content"`
	LinkTarget string    `json:"link_target"`
	EditToken  string    `json:"-"`
	Views      int64     `json:"views"`
	AccountID  *int64    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Account is a Telegraph-compatible publishing account. AccessToken is a
// rotatable bearer credential; rotation invalidates the old value.
type Account struct {
	ID          int64     `json:"-"`
	ShortName   string    `json:"short_name"`
	AuthorName  string    `json:"author_name,omitempty"`
	AuthorURL   string    `json:"author_url,omitempty"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
