package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

// CreateQuote inserts a quote request and fills in generated fields.
func (s *Store) CreateQuote(ctx context.Context, q *models.Quote) error {
	query := `
		INSERT INTO quotes (name, email, phone, project_type, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := s.db.GetContext(ctx, q, query,
		q.Name, q.Email, q.Phone, q.ProjectType, q.Message, q.Status)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetQuoteByID retrieves a quote by ID
func (s *Store) GetQuoteByID(ctx context.Context, id int64) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.GetContext(ctx, &quote, "SELECT * FROM quotes WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("quote not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetQuotes lists quotes most-recent-first, optionally filtered by status.
func (s *Store) GetQuotes(ctx context.Context, status string) ([]models.Quote, error) {
	var quotes []models.Quote
	if status == "" {
		err := s.db.SelectContext(ctx, &quotes, "SELECT * FROM quotes ORDER BY created_at DESC")
		return quotes, err
	}
	err := s.db.SelectContext(ctx, &quotes,
		"SELECT * FROM quotes WHERE status = $1 ORDER BY created_at DESC", status)
	return quotes, err
}

// UpdateQuoteStatus updates a quote's tracking label.
func (s *Store) UpdateQuoteStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE quotes SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundf("quote not found: %d", id)
	}
	return nil
}
