package models

import "time"

// PostSort orders a course's Q&A board listing.
type PostSort string

// Supported board orderings.
const (
	PostSortLatest   PostSort = "latest"
	PostSortPopular  PostSort = "popular"
	PostSortComments PostSort = "comments"
)

// Post is a question or discussion thread on a course's Q&A board.
// Deleted posts stay in the table with the deleted flag set so comment
// counters and moderation history survive.
type Post struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	ViewCount    int       `db:"view_count" json:"view_count"`
	CommentCount int       `db:"comment_count" json:"comment_count"`
	Deleted      bool      `db:"deleted" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PostDetail is a post joined with its author's display name.
type PostDetail struct {
	Post
	AuthorName string `db:"author_name" json:"author_name"`
}

// PostPage is one page of a board listing.
type PostPage struct {
	Posts      []PostDetail `json:"posts"`
	Pagination *Pagination  `json:"-"`
}

// PostQuery narrows and orders a board listing.
type PostQuery struct {
	Keyword  string
	Sort     PostSort
	Page     int
	PageSize int
}

// Comment is an answer or reply on a board post. A nil ParentID means a
// top-level comment; otherwise it replies to another comment on the
// same post.
type Comment struct {
	ID         string    `db:"id" json:"id"`
	PostID     string    `db:"post_id" json:"post_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ParentID   *string   `db:"parent_id" json:"parent_id,omitempty"`
	Content    string    `db:"content" json:"content"`
	ReplyCount int       `db:"reply_count" json:"reply_count"`
	Deleted    bool      `db:"deleted" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CommentDetail is a comment joined with its author's display name.
type CommentDetail struct {
	Comment
	AuthorName string `db:"author_name" json:"author_name"`
}

// CreatePostRequest opens a new thread on a course board.
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// UpdatePostRequest edits a thread; nil fields are left untouched.
type UpdatePostRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content *string `json:"content" validate:"omitempty,min=1"`
}

// CreateCommentRequest answers a post, optionally as a reply to
// another comment.
type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required"`
	ParentID *string `json:"parent_id"`
}

// UpdateCommentRequest rewrites a comment's body.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}
