package repository

import (
	"slices"

	"github.com/jmoiron/sqlx"

	"github.com/execcoach/coach/internal/model"
)

type ConversationRepository interface {
	Append(turn *model.ConversationTurn) error
	// Recent returns up to limit of the newest turns, oldest first.
	Recent(userID string, limit int) ([]model.ConversationTurn, error)
	All(userID string) ([]model.ConversationTurn, error)
}

type conversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Append(turn *model.ConversationTurn) error {
	query := `INSERT INTO conversation_turns (id, user_id, role, variant, text, source, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		turn.ID,
		turn.UserID,
		turn.Role,
		turn.Variant,
		turn.Text,
		turn.Source,
		turn.CreatedAt.UTC(),
	)

	return err
}

func (r *conversationRepository) Recent(userID string, limit int) ([]model.ConversationTurn, error) {
	turns := []model.ConversationTurn{}
	if limit <= 0 {
		return turns, nil
	}

	query := `SELECT * FROM conversation_turns WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	err := r.db.Select(&turns, query, userID, limit)
	if err != nil {
		return nil, err
	}

	slices.Reverse(turns)
	return turns, nil
}

func (r *conversationRepository) All(userID string) ([]model.ConversationTurn, error) {
	turns := []model.ConversationTurn{}
	query := `SELECT * FROM conversation_turns WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.Select(&turns, query, userID)
	if err != nil {
		return nil, err
	}

	return turns, nil
}
