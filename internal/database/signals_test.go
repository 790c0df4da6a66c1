package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorgenfeld/Intellivest/internal/models"
)

// ---------------------------------------------------------------------------
// SaveSignals
// ---------------------------------------------------------------------------

func TestSaveSignals_InsertsInKeyOrder(t *testing.T) {
	db, mock := newMockDB(t)

	now := time.Now()
	signals := map[models.SignalKey]models.SymbolSignal{
		{Symbol: "TSLA", Source: models.SourceReddit}: {
			Symbol: "TSLA", Source: models.SourceReddit,
			MeanCompound: 0.3, MentionCount: 4, TotalWeight: 20,
		},
		{Symbol: "AAPL", Source: models.SourceTwitter}: {
			Symbol: "AAPL", Source: models.SourceTwitter,
			MeanCompound: 0.5, MentionCount: 6, TotalWeight: 48,
		},
		{Symbol: "AAPL", Source: models.SourceReddit}: {
			Symbol: "AAPL", Source: models.SourceReddit,
			MeanCompound: 0.6, MentionCount: 8, TotalWeight: 64,
		},
	}

	// Keys sort by symbol then source, so AAPL/reddit comes first.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO symbol_sentiment_history").
		WithArgs("AAPL", models.SourceReddit, 0.0, 0.0, 0.6, 8, 64.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO symbol_sentiment_history").
		WithArgs("AAPL", models.SourceTwitter, 0.0, 0.0, 0.5, 6, 48.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO symbol_sentiment_history").
		WithArgs("TSLA", models.SourceReddit, 0.0, 0.0, 0.3, 4, 20.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.SaveSignals(signals, now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSignals_Empty(t *testing.T) {
	db, mock := newMockDB(t)

	err := db.SaveSignals(nil, time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetSignalHistory
// ---------------------------------------------------------------------------

func TestGetSignalHistory(t *testing.T) {
	db, mock := newMockDB(t)

	createdAt := time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"symbol", "source", "mean_positive", "mean_negative", "mean_compound",
		"mentions", "engagement_weight", "created_at",
	}).
		AddRow("AAPL", models.SourceReddit, 0.6, 0.1, 0.5, 8, 64.0, createdAt).
		AddRow("AAPL", models.SourceTwitter, 0.4, 0.2, 0.2, 5, 30.0, createdAt.Add(-24*time.Hour))

	mock.ExpectQuery("FROM symbol_sentiment_history").
		WithArgs("AAPL", 50).
		WillReturnRows(rows)

	signals, err := db.GetSignalHistory("AAPL", 50)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, models.SourceReddit, signals[0].Source)
	assert.Equal(t, 0.5, signals[0].MeanCompound)
	assert.Equal(t, 8, signals[0].MentionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetDailySignalSummaries
// ---------------------------------------------------------------------------

func TestGetDailySignalSummaries(t *testing.T) {
	db, mock := newMockDB(t)

	since := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"day", "symbol", "mean_compound", "total_mentions", "record_count",
	}).
		AddRow(day, "AAPL", 0.35, 14, 2).
		AddRow(day, "TSLA", -0.1, 3, 1)

	mock.ExpectQuery("FROM symbol_sentiment_history").
		WithArgs(since).
		WillReturnRows(rows)

	summaries, err := db.GetDailySignalSummaries(since)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "AAPL", summaries[0].Symbol)
	assert.Equal(t, 0.35, summaries[0].MeanCompound)
	assert.Equal(t, 14, summaries[0].TotalMentions)
	assert.Equal(t, 2, summaries[0].RecordCount)
	assert.Equal(t, "TSLA", summaries[1].Symbol)
	assert.NoError(t, mock.ExpectationsWereMet())
}
