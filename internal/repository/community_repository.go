package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

// CommunityRepository handles persistence of Q&A board posts and
// comments. Posts and comments are soft-deleted so counters and
// moderation history stay intact.
type CommunityRepository struct {
	db *sqlx.DB
}

// NewCommunityRepository constructs the repository.
func NewCommunityRepository(db *sqlx.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

var postOrderings = map[models.PostSort]string{
	models.PostSortLatest:   "p.created_at DESC",
	models.PostSortPopular:  "p.view_count DESC, p.created_at DESC",
	models.PostSortComments: "p.comment_count DESC, p.created_at DESC",
}

const postColumns = `p.id, p.course_id, p.user_id, p.title, p.content, p.view_count,
        p.comment_count, p.deleted, p.created_at, p.updated_at, u.full_name AS author_name`

// ListPosts returns one page of a course's board plus the total number
// of live posts matching the query.
func (r *CommunityRepository) ListPosts(ctx context.Context, courseID string, q models.PostQuery) ([]models.PostDetail, int, error) {
	conditions := []string{"p.course_id = $1", "p.deleted = FALSE"}
	args := []interface{}{courseID}
	if q.Keyword != "" {
		args = append(args, "%"+q.Keyword+"%")
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", len(args), len(args)))
	}
	where := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM posts p WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	ordering, ok := postOrderings[q.Sort]
	if !ok {
		ordering = postOrderings[models.PostSortLatest]
	}
	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM posts p
        LEFT JOIN users u ON u.id = p.user_id
        WHERE %s
        ORDER BY %s
        LIMIT $%d OFFSET $%d`, postColumns, where, ordering, len(args)-1, len(args))

	var posts []models.PostDetail
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

// FindPost returns a live post by id.
func (r *CommunityRepository) FindPost(ctx context.Context, id string) (*models.PostDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts p
        LEFT JOIN users u ON u.id = p.user_id
        WHERE p.id = $1 AND p.deleted = FALSE`, postColumns)
	var post models.PostDetail
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost persists a new thread.
func (r *CommunityRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	const query = `INSERT INTO posts (id, course_id, user_id, title, content, view_count,
        comment_count, deleted, created_at, updated_at)
        VALUES (:id, :course_id, :user_id, :title, :content, :view_count,
        :comment_count, :deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// UpdatePost rewrites a thread's title and body.
func (r *CommunityRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE posts SET title = :title, content = :content, updated_at = :updated_at
        WHERE id = :id AND deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// SoftDeletePost marks a post deleted, keeping the row.
func (r *CommunityRepository) SoftDeletePost(ctx context.Context, id string) error {
	const query = `UPDATE posts SET deleted = TRUE, updated_at = NOW() WHERE id = $1 AND deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementViewCount bumps a post's view counter.
func (r *CommunityRepository) IncrementViewCount(ctx context.Context, id string) error {
	const query = `UPDATE posts SET view_count = view_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment post views: %w", err)
	}
	return nil
}

// IncrementCommentCount moves a post's comment counter by delta,
// never below zero.
func (r *CommunityRepository) IncrementCommentCount(ctx context.Context, postID string, delta int) error {
	const query = `UPDATE posts SET comment_count = GREATEST(comment_count + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, postID, delta); err != nil {
		return fmt.Errorf("increment comment count: %w", err)
	}
	return nil
}

const commentColumns = `c.id, c.post_id, c.user_id, c.parent_id, c.content, c.reply_count,
        c.deleted, c.created_at, c.updated_at, u.full_name AS author_name`

// ListComments returns a post's live comments oldest first, so
// threads read top to bottom.
func (r *CommunityRepository) ListComments(ctx context.Context, postID string) ([]models.CommentDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM comments c
        LEFT JOIN users u ON u.id = c.user_id
        WHERE c.post_id = $1 AND c.deleted = FALSE
        ORDER BY c.created_at`, commentColumns)
	var comments []models.CommentDetail
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// FindComment returns a live comment by id.
func (r *CommunityRepository) FindComment(ctx context.Context, id string) (*models.Comment, error) {
	const query = `SELECT id, post_id, user_id, parent_id, content, reply_count, deleted, created_at, updated_at
        FROM comments WHERE id = $1 AND deleted = FALSE`
	var comment models.Comment
	if err := r.db.GetContext(ctx, &comment, query, id); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CreateComment persists a new comment.
func (r *CommunityRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	const query = `INSERT INTO comments (id, post_id, user_id, parent_id, content, reply_count,
        deleted, created_at, updated_at)
        VALUES (:id, :post_id, :user_id, :parent_id, :content, :reply_count,
        :deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// UpdateComment rewrites a comment's body.
func (r *CommunityRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE comments SET content = :content, updated_at = :updated_at
        WHERE id = :id AND deleted = FALSE`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// SoftDeleteComment marks a comment deleted, keeping the row.
func (r *CommunityRepository) SoftDeleteComment(ctx context.Context, id string) error {
	const query = `UPDATE comments SET deleted = TRUE, updated_at = NOW() WHERE id = $1 AND deleted = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementReplyCount moves a comment's reply counter by delta, never
// below zero.
func (r *CommunityRepository) IncrementReplyCount(ctx context.Context, commentID string, delta int) error {
	const query = `UPDATE comments SET reply_count = GREATEST(reply_count + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, commentID, delta); err != nil {
		return fmt.Errorf("increment reply count: %w", err)
	}
	return nil
}
