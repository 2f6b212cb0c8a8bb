package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresEngagementRepository provides PostgreSQL-backed persistence for
// likes and comments.
type PostgresEngagementRepository struct {
	pool db.Pool
}

// NewPostgresEngagementRepository constructs an engagement repository backed by PostgreSQL.
func NewPostgresEngagementRepository(pool db.Pool) *PostgresEngagementRepository {
	return &PostgresEngagementRepository{pool: pool}
}

// ToggleLike flips the caller's like state for a video and returns the new
// state with the post-mutation like count. The (video_id, user_id) unique
// constraint backs the toggle: a duplicate insert lost to a concurrent
// request is treated as already liked rather than surfaced as an error.
func (r *PostgresEngagementRepository) ToggleLike(ctx context.Context, userID, videoID string) (bool, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := r.videoExists(ctx, conn, videoID); err != nil {
		return false, 0, err
	}

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE video_id = $1 AND user_id = $2
    `, videoID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("delete like: %w", err)
	}

	liked := false
	if tag.RowsAffected() == 0 {
		tag, err = conn.Exec(ctx, `
            INSERT INTO likes (id, video_id, user_id, created_at)
            VALUES (gen_random_uuid()::TEXT, $1, $2, NOW())
            ON CONFLICT (video_id, user_id) DO NOTHING
        `, videoID, userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return false, 0, ErrNotFound
			}
			return false, 0, fmt.Errorf("insert like: %w", err)
		}
		// Zero rows means a concurrent toggle won the insert; either way the
		// pair is now liked.
		liked = true
	}

	count, err := r.countLikes(ctx, conn, videoID)
	if err != nil {
		return false, 0, err
	}

	return liked, count, nil
}

// HasLiked reports whether the user currently likes the video.
func (r *PostgresEngagementRepository) HasLiked(ctx context.Context, userID, videoID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM likes WHERE video_id = $1 AND user_id = $2
        )
    `, videoID, userID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("select like: %w", err)
	}

	return exists, nil
}

// CountLikes returns the number of likes on a video.
func (r *PostgresEngagementRepository) CountLikes(ctx context.Context, videoID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return r.countLikes(ctx, conn, videoID)
}

func (r *PostgresEngagementRepository) countLikes(ctx context.Context, conn *pgxpool.Conn, videoID string) (int64, error) {
	var count int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes WHERE video_id = $1
    `, videoID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// Likes and comments deliberately carry no foreign key on videos, so a
// deleted video leaves its engagement rows behind. New engagement is still
// rejected for videos that no longer exist.
func (r *PostgresEngagementRepository) videoExists(ctx context.Context, conn *pgxpool.Conn, videoID string) error {
	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM videos WHERE id = $1
        )
    `, videoID)
	if err := row.Scan(&exists); err != nil {
		return fmt.Errorf("check video exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// ListLikers returns the users who liked a video, most recent first.
func (r *PostgresEngagementRepository) ListLikers(ctx context.Context, videoID string) ([]Liker, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT l.user_id, u.username, l.created_at
        FROM likes l
        JOIN users u ON u.id = l.user_id
        WHERE l.video_id = $1
        ORDER BY l.created_at DESC, l.id DESC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query likers: %w", err)
	}
	defer rows.Close()

	var likers []Liker
	for rows.Next() {
		var liker Liker
		if err := rows.Scan(&liker.UserID, &liker.Username, &liker.LikedAt); err != nil {
			return nil, fmt.Errorf("scan liker: %w", err)
		}
		likers = append(likers, liker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likers: %w", err)
	}

	return likers, nil
}

// CreateComment appends a comment to a video.
func (r *PostgresEngagementRepository) CreateComment(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := r.videoExists(ctx, conn, comment.VideoID); err != nil {
		return err
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, author_id, body, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.VideoID, comment.AuthorID, comment.Text, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListComments returns a video's comments newest first with author identity.
func (r *PostgresEngagementRepository) ListComments(ctx context.Context, videoID string) ([]CommentWithAuthor, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT c.id, c.video_id, c.author_id, c.body, c.created_at, u.username
        FROM comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.video_id = $1
        ORDER BY c.created_at DESC, c.id DESC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []CommentWithAuthor
	for rows.Next() {
		var comment CommentWithAuthor
		if err := rows.Scan(&comment.ID, &comment.VideoID, &comment.AuthorID, &comment.Text, &comment.CreatedAt, &comment.AuthorName); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

var _ EngagementRepository = (*PostgresEngagementRepository)(nil)
