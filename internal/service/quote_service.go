package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
)

// QuoteStore is the persistence surface for quote/lead intake.
type QuoteStore interface {
	CreateQuote(ctx context.Context, q *models.Quote) error
	GetQuotes(ctx context.Context, status string) ([]models.Quote, error)
}

// QuoteService files inbound quote/lead requests and lists them for
// administrators. Status changes go through the status workflow.
type QuoteService struct {
	store     QuoteStore
	publisher EventPublisher
	logger    *zap.Logger
}

// NewQuoteService creates a new quote service
func NewQuoteService(store QuoteStore, publisher EventPublisher) *QuoteService {
	return &QuoteService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// QuoteInput is the schema-validated public intake payload.
type QuoteInput struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	ProjectType string `json:"project_type"`
	Message     string `json:"message" binding:"required"`
}

// CreateQuote files a new quote request in status new.
func (s *QuoteService) CreateQuote(ctx context.Context, in QuoteInput) (*models.Quote, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)
	if in.Name == "" || in.Email == "" || in.Message == "" {
		return nil, models.Validationf("name, email and message are required")
	}

	quote := &models.Quote{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       strings.TrimSpace(in.Phone),
		ProjectType: strings.TrimSpace(in.ProjectType),
		Message:     in.Message,
		Status:      models.QuoteStatusNew,
	}

	if err := s.store.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}

	util.QuotesReceivedTotal.Inc()
	s.logger.Info("Quote received", zap.Int64("quote_id", quote.ID))

	if s.publisher != nil {
		event := &models.QuoteReceivedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeQuoteReceived,
				Timestamp: time.Now(),
			},
			QuoteID: quote.ID,
			Email:   quote.Email,
		}
		if err := s.publisher.PublishQuoteReceived(ctx, event); err != nil {
			s.logger.Error("Failed to publish QuoteReceived event", zap.Error(err))
		}
	}

	return quote, nil
}

// ListQuotes lists quotes most-recent-first, optionally filtered by status.
func (s *QuoteService) ListQuotes(ctx context.Context, status string) ([]models.Quote, error) {
	if status != "" && !models.ValidQuoteStatus(status) {
		return nil, models.Validationf("unknown quote status: %s", status)
	}
	return s.store.GetQuotes(ctx, status)
}
