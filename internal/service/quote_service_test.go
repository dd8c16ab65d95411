package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/models"
)

func TestCreateQuoteFilesAsNew(t *testing.T) {
	store := newFakeStore()
	svc := NewQuoteService(store, nil)

	quote, err := svc.CreateQuote(context.Background(), QuoteInput{
		Name:        "  Dana Reyes ",
		Email:       "dana@example.com",
		ProjectType: "residential",
		Message:     "Looking for a rooftop install quote.",
	})
	require.NoError(t, err)

	assert.NotZero(t, quote.ID)
	assert.Equal(t, models.QuoteStatusNew, quote.Status)
	assert.Equal(t, "Dana Reyes", quote.Name)
}

func TestCreateQuoteRequiresFields(t *testing.T) {
	svc := NewQuoteService(newFakeStore(), nil)

	_, err := svc.CreateQuote(context.Background(), QuoteInput{
		Name:  "Dana Reyes",
		Email: "dana@example.com",
		// Message missing.
	})
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}

func TestListQuotesRejectsUnknownStatusFilter(t *testing.T) {
	store := newFakeStore()
	store.addQuote(models.QuoteStatusNew)
	store.addQuote(models.QuoteStatusClosed)

	svc := NewQuoteService(store, nil)
	ctx := context.Background()

	quotes, err := svc.ListQuotes(ctx, models.QuoteStatusNew)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)

	_, err = svc.ListQuotes(ctx, "spam")
	require.Error(t, err)
	assert.Equal(t, models.KindValidation, models.KindOf(err))
}
