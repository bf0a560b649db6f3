package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jeromwolf/LearnFlow/internal/models"
	appErrors "github.com/jeromwolf/LearnFlow/pkg/errors"
)

type communityRepository interface {
	ListPosts(ctx context.Context, courseID string, q models.PostQuery) ([]models.PostDetail, int, error)
	FindPost(ctx context.Context, id string) (*models.PostDetail, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	SoftDeletePost(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
	IncrementCommentCount(ctx context.Context, postID string, delta int) error
	ListComments(ctx context.Context, postID string) ([]models.CommentDetail, error)
	FindComment(ctx context.Context, id string) (*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	UpdateComment(ctx context.Context, comment *models.Comment) error
	SoftDeleteComment(ctx context.Context, id string) error
	IncrementReplyCount(ctx context.Context, commentID string, delta int) error
}

type communityCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

const defaultPostPageSize = 10

// CommunityService runs each course's Q&A board: threads from
// students and instructors, with nested comments. Authors and admins
// moderate their own content.
type CommunityService struct {
	repo       communityRepository
	courseRepo communityCourseRepository
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCommunityService constructs a CommunityService.
func NewCommunityService(repo communityRepository, courseRepo communityCourseRepository, validate *validator.Validate, logger *zap.Logger) *CommunityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommunityService{repo: repo, courseRepo: courseRepo, validator: validate, logger: logger}
}

// ListPosts returns one page of a course's board. Unknown sort values
// fall back to latest-first rather than erroring, so stale links keep
// working.
func (s *CommunityService) ListPosts(ctx context.Context, courseID string, q models.PostQuery) (*models.PostPage, error) {
	if _, err := s.findVisibleCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = defaultPostPageSize
	}
	if q.Sort == "" {
		q.Sort = models.PostSortLatest
	}

	posts, total, err := s.repo.ListPosts(ctx, courseID, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list posts")
	}
	return &models.PostPage{
		Posts:      posts,
		Pagination: &models.Pagination{Page: q.Page, PageSize: q.PageSize, TotalCount: total},
	}, nil
}

// GetPost returns one thread and bumps its view counter.
func (s *CommunityService) GetPost(ctx context.Context, id string) (*models.PostDetail, error) {
	post, err := s.repo.FindPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("failed to bump post views", zap.String("post_id", id), zap.Error(err))
	} else {
		post.ViewCount++
	}
	return post, nil
}

// CreatePost opens a thread on a published course's board.
func (s *CommunityService) CreatePost(ctx context.Context, userID, courseID string, req models.CreatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}
	if _, err := s.findVisibleCourse(ctx, courseID); err != nil {
		return nil, err
	}

	post := &models.Post{
		CourseID: courseID,
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create post")
	}
	return post, nil
}

// UpdatePost edits a thread. Only the author or an admin may edit.
func (s *CommunityService) UpdatePost(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid post payload")
	}

	post, err := s.repo.FindPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if !canModerate(actor, post.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the post author")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if err := s.repo.UpdatePost(ctx, &post.Post); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update post")
	}
	return &post.Post, nil
}

// DeletePost soft-deletes a thread. Only the author or an admin.
func (s *CommunityService) DeletePost(ctx context.Context, actor *models.JWTClaims, id string) error {
	post, err := s.repo.FindPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}
	if !canModerate(actor, post.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "not the post author")
	}

	if err := s.repo.SoftDeletePost(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete post")
	}
	return nil
}

// ListComments returns a post's comment thread, oldest first.
func (s *CommunityService) ListComments(ctx context.Context, postID string) ([]models.CommentDetail, error) {
	if _, err := s.repo.FindPost(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return comments, nil
}

// CreateComment answers a post, optionally replying to another
// comment on the same post. Bumps the post's comment counter and the
// parent's reply counter.
func (s *CommunityService) CreateComment(ctx context.Context, userID, postID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	if _, err := s.repo.FindPost(ctx, postID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load post")
	}

	if req.ParentID != nil {
		parent, err := s.repo.FindComment(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "parent comment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent comment")
		}
		if parent.PostID != postID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent comment belongs to another post")
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	if err := s.repo.IncrementCommentCount(ctx, postID, 1); err != nil {
		s.logger.Warn("failed to bump comment count", zap.String("post_id", postID), zap.Error(err))
	}
	if req.ParentID != nil {
		if err := s.repo.IncrementReplyCount(ctx, *req.ParentID, 1); err != nil {
			s.logger.Warn("failed to bump reply count", zap.String("comment_id", *req.ParentID), zap.Error(err))
		}
	}
	return comment, nil
}

// UpdateComment rewrites a comment's body. Author or admin only.
func (s *CommunityService) UpdateComment(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}

	comment, err := s.repo.FindComment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if !canModerate(actor, comment.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not the comment author")
	}

	comment.Content = req.Content
	if err := s.repo.UpdateComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	return comment, nil
}

// DeleteComment soft-deletes a comment and rolls the post's comment
// counter back. Author or admin only.
func (s *CommunityService) DeleteComment(ctx context.Context, actor *models.JWTClaims, id string) error {
	comment, err := s.repo.FindComment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if !canModerate(actor, comment.UserID) {
		return appErrors.Clone(appErrors.ErrForbidden, "not the comment author")
	}

	if err := s.repo.SoftDeleteComment(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}

	if err := s.repo.IncrementCommentCount(ctx, comment.PostID, -1); err != nil {
		s.logger.Warn("failed to roll back comment count", zap.String("post_id", comment.PostID), zap.Error(err))
	}
	if comment.ParentID != nil {
		if err := s.repo.IncrementReplyCount(ctx, *comment.ParentID, -1); err != nil {
			s.logger.Warn("failed to roll back reply count", zap.String("comment_id", *comment.ParentID), zap.Error(err))
		}
	}
	return nil
}

// findVisibleCourse resolves a course for board use; drafts have no
// public board, so unpublished courses read as not found.
func (s *CommunityService) findVisibleCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Published {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

// canModerate reports whether the actor owns the content or is an
// admin.
func canModerate(actor *models.JWTClaims, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.Role == models.RoleAdmin || actor.UserID == ownerID
}
