package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

const petColumns = `user_id, display_name, login_name, energy, mood, cleanliness, points, color, stage, last_updated, cooldowns`

// PostgresPetRepo stores pets in PostgreSQL
type PostgresPetRepo struct {
	db *sql.DB
}

// NewPostgresPetRepo creates a new PostgresPetRepo
func NewPostgresPetRepo(db *sql.DB) *PostgresPetRepo {
	return &PostgresPetRepo{db: db}
}

// Get returns ErrNotFound when no row exists
func (r *PostgresPetRepo) Get(ctx context.Context, userID string) (domain.PetState, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE user_id = $1`,
		userID,
	)

	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PetState{}, ErrNotFound
	}
	if err != nil {
		return domain.PetState{}, fmt.Errorf("failed to find pet: %w", err)
	}
	return p, nil
}

// Upsert writes the full state, replacing any existing row
func (r *PostgresPetRepo) Upsert(ctx context.Context, p domain.PetState) error {
	cooldowns, err := json.Marshal(cooldownsOrEmpty(p.Cooldowns))
	if err != nil {
		return fmt.Errorf("failed to encode cooldowns: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO pets (`+petColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   login_name = EXCLUDED.login_name,
		   energy = EXCLUDED.energy,
		   mood = EXCLUDED.mood,
		   cleanliness = EXCLUDED.cleanliness,
		   points = EXCLUDED.points,
		   color = EXCLUDED.color,
		   stage = EXCLUDED.stage,
		   last_updated = EXCLUDED.last_updated,
		   cooldowns = EXCLUDED.cooldowns`,
		p.UserID, p.DisplayName, p.LoginName,
		p.Energy, p.Mood, p.Cleanliness, p.Points,
		string(p.Color), string(p.Stage), p.LastUpdated.UTC(), cooldowns,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pet: %w", err)
	}
	return nil
}

// List returns every stored pet
func (r *PostgresPetRepo) List(ctx context.Context) ([]domain.PetState, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+petColumns+` FROM pets`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	var pets []domain.PetState
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pets: %w", err)
	}
	return pets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (domain.PetState, error) {
	var (
		p         domain.PetState
		color     string
		stage     string
		updated   time.Time
		cooldowns []byte
	)
	err := row.Scan(
		&p.UserID, &p.DisplayName, &p.LoginName,
		&p.Energy, &p.Mood, &p.Cleanliness, &p.Points,
		&color, &stage, &updated, &cooldowns,
	)
	if err != nil {
		return domain.PetState{}, err
	}

	p.Color = domain.Color(color)
	if p.Stage, err = domain.ParseStage(stage); err != nil {
		return domain.PetState{}, err
	}
	p.LastUpdated = updated
	p.Cooldowns = make(map[domain.ActionKind]time.Time)
	if len(cooldowns) > 0 {
		if err := json.Unmarshal(cooldowns, &p.Cooldowns); err != nil {
			return domain.PetState{}, fmt.Errorf("decode cooldowns: %w", err)
		}
	}
	return p, nil
}

func cooldownsOrEmpty(m map[domain.ActionKind]time.Time) map[domain.ActionKind]time.Time {
	if m == nil {
		return map[domain.ActionKind]time.Time{}
	}
	return m
}

var _ PetRepository = (*PostgresPetRepo)(nil)
