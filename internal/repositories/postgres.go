package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, password_hash, wallet_balance, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, user.ID, user.Username, user.Password, user.WalletBalance, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByUsername fetches a user by their unique username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, password_hash, wallet_balance, created_at, updated_at
        FROM users
        WHERE username = $1
    `, username)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.WalletBalance, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by username: %w", err)
	}

	return user, nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, username, password_hash, wallet_balance, created_at, updated_at
        FROM users
        WHERE id = $1
    `, id)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.WalletBalance, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for the catalog.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new catalog entry.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, creator_id, title, description, kind, file_path, external_url, thumbnail, duration, price, uploaded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.CreatorID, video.Title, video.Description, string(video.Kind),
		video.Source.FilePath, video.Source.ExternalURL, video.Thumbnail, video.Duration, video.Price, video.UploadedAt)
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
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

const videoColumns = `v.id, v.creator_id, v.title, v.description, v.kind, v.file_path, v.external_url, v.thumbnail, v.duration, v.price, v.uploaded_at`

func scanVideo(row pgx.Row, video *models.Video, creatorName *string) error {
	var kind string
	dest := []any{&video.ID, &video.CreatorID, &video.Title, &video.Description, &kind,
		&video.Source.FilePath, &video.Source.ExternalURL, &video.Thumbnail, &video.Duration, &video.Price, &video.UploadedAt}
	if creatorName != nil {
		dest = append(dest, creatorName)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	video.Kind = models.VideoKind(kind)
	return nil
}

// FindByID fetches a single video along with its creator's username.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (VideoWithCreator, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return VideoWithCreator{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+videoColumns+`, u.username
        FROM videos v
        JOIN users u ON u.id = v.creator_id
        WHERE v.id = $1
    `, id)

	var entry VideoWithCreator
	if err := scanVideo(row, &entry.Video, &entry.CreatorName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VideoWithCreator{}, ErrNotFound
		}
		return VideoWithCreator{}, fmt.Errorf("select video by id: %w", err)
	}

	return entry, nil
}

// ListAll returns every catalog entry newest first.
func (r *PostgresVideoRepository) ListAll(ctx context.Context) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos v
        ORDER BY v.uploaded_at DESC, v.id DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := scanVideo(rows, &video, nil); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// ListFeed returns one page of the reverse-chronological feed. The secondary
// sort on id keeps pagination stable when uploaded_at values collide.
func (r *PostgresVideoRepository) ListFeed(ctx context.Context, page FeedPage) ([]VideoWithCreator, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`, u.username
        FROM videos v
        JOIN users u ON u.id = v.creator_id
        ORDER BY v.uploaded_at DESC, v.id DESC
        OFFSET $1
        LIMIT $2
    `, page.Offset(), page.Limit)
	if err != nil {
		return nil, fmt.Errorf("query video feed: %w", err)
	}
	defer rows.Close()

	var entries []VideoWithCreator
	for rows.Next() {
		var entry VideoWithCreator
		if err := scanVideo(rows, &entry.Video, &entry.CreatorName); err != nil {
			return nil, fmt.Errorf("scan feed entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video feed: %w", err)
	}

	return entries, nil
}

// ListReels returns reel videos newest first with their like counts attached.
func (r *PostgresVideoRepository) ListReels(ctx context.Context) ([]ReelEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`, u.username,
               (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id) AS likes_count
        FROM videos v
        JOIN users u ON u.id = v.creator_id
        WHERE v.kind = $1
        ORDER BY v.uploaded_at DESC, v.id DESC
    `, string(models.KindReel))
	if err != nil {
		return nil, fmt.Errorf("query reels: %w", err)
	}
	defer rows.Close()

	var reels []ReelEntry
	for rows.Next() {
		var (
			entry ReelEntry
			kind  string
		)
		if err := rows.Scan(&entry.ID, &entry.CreatorID, &entry.Title, &entry.Description, &kind,
			&entry.Source.FilePath, &entry.Source.ExternalURL, &entry.Thumbnail, &entry.Duration,
			&entry.Price, &entry.UploadedAt, &entry.CreatorName, &entry.LikesCount); err != nil {
			return nil, fmt.Errorf("scan reel: %w", err)
		}
		entry.Kind = models.VideoKind(kind)
		reels = append(reels, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reels: %w", err)
	}

	return reels, nil
}

// Delete removes a catalog entry. Likes, comments, and purchases referencing
// the video are intentionally left in place.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM videos
        WHERE id = $1
    `, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetLinkMetadata records resolved thumbnail and duration details for a
// link-backed video.
func (r *PostgresVideoRepository) SetLinkMetadata(ctx context.Context, id, thumbnail string, duration int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET thumbnail = $2,
            duration = $3
        WHERE id = $1
    `, id, thumbnail, duration)
	if err != nil {
		return fmt.Errorf("update video link metadata: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
var _ media.LinkMetadataUpdater = (*PostgresVideoRepository)(nil)
