package models

import "time"

// AnonymousName is used when a commenter gives no display name.
const AnonymousName = "匿名"

// Comment is an inline paragraph comment keyed by (site, work, chapter, paragraph).
type Comment struct {
	ID          int64     `json:"id"`
	SiteID      string    `json:"site_id"`
	WorkID      string    `json:"work_id"`
	ChapterID   string    `json:"chapter_id"`
	ParaIndex   int       `json:"para_index"`
	Content     string    `json:"content"`
	UserName    string    `json:"user_name"`
	UserID      string    `json:"user_id,omitempty"`
	UserAvatar  string    `json:"user_avatar,omitempty"`
	ContextText string    `json:"context_text,omitempty"`
	IP          string    `json:"-"`
	Likes       int64     `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
}

// LikeRecord pins one like per identity per comment. Either UserID or IP
// identifies the liker; uniqueness is enforced at the storage layer.
type LikeRecord struct {
	ID        int64
	CommentID int64
	UserID    string
	IP        string
	CreatedAt time.Time
}

// BannedUser blocks a commenter identity (user id or IP) from posting.
type BannedUser struct {
	ID        int64
	UserID    string
	IP        string
	Reason    string
	CreatedAt time.Time
}
