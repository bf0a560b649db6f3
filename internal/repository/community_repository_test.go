package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeromwolf/LearnFlow/internal/models"
)

func postRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "course_id", "user_id", "title", "content", "view_count",
		"comment_count", "deleted", "created_at", "updated_at", "author_name",
	})
}

func TestListPostsWithKeyword(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommunityRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM posts p").
		WithArgs("c1", "%환불%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM posts p").
		WithArgs("c1", "%환불%", 10, 0).
		WillReturnRows(postRows(now).
			AddRow("p1", "c1", "u1", "환불 문의", "수강 취소하고 싶어요", 12, 3, false, now, now, "김학생"))

	posts, total, err := repo.ListPosts(context.Background(), "c1", models.PostQuery{
		Keyword:  "환불",
		Sort:     models.PostSortLatest,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "김학생", posts[0].AuthorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsOrdersByComments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommunityRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM posts p").
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("ORDER BY p.comment_count DESC").
		WithArgs("c1", 10, 0).
		WillReturnRows(postRows(time.Now()))

	_, _, err := repo.ListPosts(context.Background(), "c1", models.PostQuery{
		Sort:     models.PostSortComments,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeletePostMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommunityRepository(db)

	mock.ExpectExec("UPDATE posts SET deleted = TRUE").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDeletePost(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommentAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCommunityRepository(db)

	mock.ExpectExec("INSERT INTO comments").WillReturnResult(sqlmock.NewResult(1, 1))

	comment := &models.Comment{PostID: "p1", UserID: "u1", Content: "여기에 답이 있어요"}
	err := repo.CreateComment(context.Background(), comment)
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.False(t, comment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
