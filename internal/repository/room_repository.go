package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/horario-api/internal/models"
)

// RoomRepository reads rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByName loads a room by its unique name.
func (r *RoomRepository) FindByName(ctx context.Context, name string) (*models.Room, error) {
	var room models.Room
	if err := r.db.GetContext(ctx, &room, `SELECT id, name, capacity, site FROM rooms WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListBySite returns rooms of a site ordered by name. An empty site lists every room.
func (r *RoomRepository) ListBySite(ctx context.Context, site string) ([]models.Room, error) {
	query := `SELECT id, name, capacity, site FROM rooms`
	var args []interface{}
	if site != "" {
		query += ` WHERE site = $1`
		args = append(args, site)
	}
	query += ` ORDER BY name ASC`

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
