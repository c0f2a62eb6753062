package database

import (
	"context"
	"errors"
	"fmt"

	"roomchat/internal/models"
	"roomchat/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresStore{pool: pool}, nil
}

func (db *PostgresStore) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation
func (db *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, username, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresStore) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, req.Username, req.Email, string(hash)).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Room Repository Implementation
func (db *PostgresStore) CreateRoom(ctx context.Context, name, slug string, isPrivate bool, ownerID int) (*models.Room, error) {
	query := `
		INSERT INTO rooms (name, slug, is_private, owner_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, name, slug, is_private, owner_id, created_at`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, name, slug, isPrivate, ownerID).Scan(
		&room.ID, &room.Name, &room.Slug, &room.IsPrivate, &room.OwnerID, &room.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	// The owner is always a member of their own room
	if err := db.AddMembership(ctx, ownerID, room.Slug); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	return room, nil
}

func (db *PostgresStore) GetRoomBySlug(ctx context.Context, slug string) (*models.Room, error) {
	query := `SELECT id, name, slug, is_private, owner_id, created_at FROM rooms WHERE slug = $1`

	room := &models.Room{}
	err := db.pool.QueryRow(ctx, query, slug).Scan(
		&room.ID, &room.Name, &room.Slug, &room.IsPrivate, &room.OwnerID, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return room, nil
}

func (db *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM rooms WHERE slug = $1)`

	var exists bool
	if err := db.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (db *PostgresStore) ListUserRooms(ctx context.Context, userID int) ([]*models.Room, error) {
	query := `
		SELECT r.id, r.name, r.slug, r.is_private, r.owner_id, r.created_at
		FROM rooms r
		JOIN room_members m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.created_at DESC`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Name, &room.Slug, &room.IsPrivate, &room.OwnerID, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (db *PostgresStore) DeleteRoom(ctx context.Context, slug string, ownerID int) error {
	query := `DELETE FROM rooms WHERE slug = $1 AND owner_id = $2`

	tag, err := db.pool.Exec(ctx, query, slug, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("room not found or not owned by user")
	}
	return nil
}

// Membership Repository Implementation
func (db *PostgresStore) AddMembership(ctx context.Context, userID int, roomSlug string) error {
	query := `
		INSERT INTO room_members (user_id, room_id, joined_at)
		SELECT $1, id, NOW() FROM rooms WHERE slug = $2
		ON CONFLICT (user_id, room_id) DO NOTHING`

	tag, err := db.pool.Exec(ctx, query, userID, roomSlug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the room does not exist or the membership already did;
		// distinguish so callers can report a missing room.
		exists, err := db.SlugExists(ctx, roomSlug)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (db *PostgresStore) RemoveMembership(ctx context.Context, userID int, roomSlug string) error {
	query := `
		DELETE FROM room_members
		WHERE user_id = $1 AND room_id = (SELECT id FROM rooms WHERE slug = $2)`

	_, err := db.pool.Exec(ctx, query, userID, roomSlug)
	return err
}

func (db *PostgresStore) IsMember(ctx context.Context, userID int, roomSlug string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM room_members m
			JOIN rooms r ON r.id = m.room_id
			WHERE m.user_id = $1 AND r.slug = $2)`

	var isMember bool
	if err := db.pool.QueryRow(ctx, query, userID, roomSlug).Scan(&isMember); err != nil {
		return false, err
	}
	return isMember, nil
}

func (db *PostgresStore) GetRoomMembers(ctx context.Context, roomSlug string) ([]*models.Member, error) {
	query := `
		SELECT u.id, u.username, u.email
		FROM users u
		JOIN room_members m ON m.user_id = u.id
		JOIN rooms r ON r.id = m.room_id
		WHERE r.slug = $1
		ORDER BY u.username`

	rows, err := db.pool.Query(ctx, query, roomSlug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.ID, &member.Username, &member.Email); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// Message Repository Implementation
func (db *PostgresStore) CreateMessage(ctx context.Context, roomSlug string, userID int, content string) (*models.Message, error) {
	query := `
		INSERT INTO messages (room_id, user_id, content, created_at)
		SELECT id, $2, $3, NOW() FROM rooms WHERE slug = $1
		RETURNING id, created_at`

	msg := &models.Message{RoomSlug: roomSlug, UserID: userID, Content: content}
	err := db.pool.QueryRow(ctx, query, roomSlug, userID, content).Scan(&msg.ID, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return msg, nil
}

func (db *PostgresStore) LoadRecentMessages(ctx context.Context, roomSlug string, limit int) ([]*models.Message, error) {
	query := `
		SELECT msg.id, u.id, u.username, msg.content, msg.created_at
		FROM messages msg
		JOIN users u ON u.id = msg.user_id
		JOIN rooms r ON r.id = msg.room_id
		WHERE r.slug = $1
		ORDER BY msg.id DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, roomSlug, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{RoomSlug: roomSlug}
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Username, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest-first; callers want chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Invitation Repository Implementation
func (db *PostgresStore) CreateInvitation(ctx context.Context, roomSlug string, invitedBy int, invitedUser *int) (*models.Invitation, error) {
	code := uuid.NewString()
	query := `
		INSERT INTO invitations (room_id, invited_by, invited_user, invite_code, accepted, created_at)
		SELECT id, $2, $3, $4, FALSE, NOW() FROM rooms WHERE slug = $1
		RETURNING id, created_at`

	inv := &models.Invitation{
		RoomSlug:    roomSlug,
		InvitedBy:   invitedBy,
		InvitedUser: invitedUser,
		InviteCode:  code,
	}
	err := db.pool.QueryRow(ctx, query, roomSlug, invitedBy, invitedUser, code).Scan(&inv.ID, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return inv, nil
}

func (db *PostgresStore) GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error) {
	query := `
		SELECT i.id, r.slug, r.name, i.invited_by, i.invited_user, i.invite_code, i.accepted, i.created_at
		FROM invitations i
		JOIN rooms r ON r.id = i.room_id
		WHERE i.invite_code = $1`

	inv := &models.Invitation{}
	err := db.pool.QueryRow(ctx, query, code).Scan(
		&inv.ID, &inv.RoomSlug, &inv.RoomName, &inv.InvitedBy, &inv.InvitedUser,
		&inv.InviteCode, &inv.Accepted, &inv.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return inv, nil
}

func (db *PostgresStore) AcceptInvitation(ctx context.Context, invitationID, userID int) error {
	query := `
		UPDATE invitations SET accepted = TRUE, invited_user = $2
		WHERE id = $1 AND accepted = FALSE
		AND (invited_user IS NULL OR invited_user = $2)`

	tag, err := db.pool.Exec(ctx, query, invitationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invitation already used or not addressed to this user")
	}
	return nil
}

func (db *PostgresStore) DeclineInvitation(ctx context.Context, invitationID, userID int) error {
	query := `DELETE FROM invitations WHERE id = $1 AND invited_user = $2 AND accepted = FALSE`

	tag, err := db.pool.Exec(ctx, query, invitationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invitation not found")
	}
	return nil
}

func (db *PostgresStore) ListPendingInvitations(ctx context.Context, userID int) ([]*models.Invitation, error) {
	query := `
		SELECT i.id, r.slug, r.name, i.invited_by, i.invited_user, i.invite_code, i.accepted, i.created_at
		FROM invitations i
		JOIN rooms r ON r.id = i.room_id
		WHERE i.invited_user = $1 AND i.accepted = FALSE
		ORDER BY i.created_at DESC`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv := &models.Invitation{}
		if err := rows.Scan(&inv.ID, &inv.RoomSlug, &inv.RoomName, &inv.InvitedBy, &inv.InvitedUser,
			&inv.InviteCode, &inv.Accepted, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}
