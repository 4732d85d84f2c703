package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vealko/tradescope/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleTrade() models.Trade {
	return models.Trade{
		Type:            models.TradeForex,
		Symbol:          "EURUSD",
		Price:           1.0850,
		StopLoss:        1.0800,
		Volume:          0.5,
		Result:          models.ResultTake,
		Direction:       models.DirectionLong,
		Date:            time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC),
		RiskPercent:     1.5,
		RiskRewardRatio: 2.0,
		Comment:         "clean break of structure",
		Tags:            []models.Tag{{Name: "breakout"}, {Name: "london"}},
	}
}

func TestCreateAndGetTrade(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	trade := sampleTrade()
	require.NoError(t, s.CreateTrade(ctx, &trade))
	assert.NotEmpty(t, trade.ID)
	assert.False(t, trade.CreatedAt.IsZero())

	got, err := s.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.Symbol, got.Symbol)
	assert.Equal(t, trade.Result, got.Result)
	assert.InDelta(t, trade.Price, got.Price, 1e-9)
	assert.True(t, got.Date.Equal(trade.Date))

	require.Len(t, got.Tags, 2)
	assert.Equal(t, "breakout", got.Tags[0].Name)
	assert.Equal(t, "london", got.Tags[1].Name)
	assert.NotZero(t, got.Tags[0].ID)
}

func TestCreateTradeValidation(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	bad := sampleTrade()
	bad.Type = "options"
	assert.ErrorIs(t, s.CreateTrade(ctx, &bad), ErrInvalid)

	bad = sampleTrade()
	bad.Result = "breakeven"
	assert.ErrorIs(t, s.CreateTrade(ctx, &bad), ErrInvalid)

	bad = sampleTrade()
	bad.Direction = "sideways"
	assert.ErrorIs(t, s.CreateTrade(ctx, &bad), ErrInvalid)

	bad = sampleTrade()
	bad.Symbol = "  "
	assert.ErrorIs(t, s.CreateTrade(ctx, &bad), ErrInvalid)
}

func TestUpdateTrade(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	trade := sampleTrade()
	require.NoError(t, s.CreateTrade(ctx, &trade))

	trade.Result = models.ResultLoss
	trade.Comment = "stopped out on news"
	trade.Tags = []models.Tag{{Name: "news"}}
	require.NoError(t, s.UpdateTrade(ctx, &trade))

	got, err := s.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResultLoss, got.Result)
	assert.Equal(t, "stopped out on news", got.Comment)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "news", got.Tags[0].Name)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestUpdateMissingTrade(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	trade := sampleTrade()
	trade.ID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	assert.ErrorIs(t, s.UpdateTrade(context.Background(), &trade), ErrNotFound)
}

func TestDeleteTrade(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	trade := sampleTrade()
	require.NoError(t, s.CreateTrade(ctx, &trade))
	require.NoError(t, s.DeleteTrade(ctx, trade.ID))

	_, err := s.GetTrade(ctx, trade.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTrade(ctx, trade.ID), ErrNotFound)
}

func TestBulkDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		trade := sampleTrade()
		require.NoError(t, s.CreateTrade(ctx, &trade))
		ids = append(ids, trade.ID)
	}

	n, err := s.BulkDelete(ctx, []string{ids[0], ids[1], "missing-id"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := s.ListTrades(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, left, 1)

	n, err = s.BulkDelete(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListTradesFilterAndOrder(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	older := sampleTrade()
	older.Symbol = "GBPUSD"
	older.Date = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	older.Result = models.ResultLoss
	older.Direction = models.DirectionShort
	require.NoError(t, s.CreateTrade(ctx, &older))

	newer := sampleTrade()
	newer.Type = models.TradeCrypto
	newer.Symbol = "BTCUSDT"
	newer.Date = time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	newer.Tags = []models.Tag{{Name: "breakout"}}
	require.NoError(t, s.CreateTrade(ctx, &newer))

	all, err := s.ListTrades(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BTCUSDT", all[0].Symbol, "newest date first")

	crypto, err := s.ListTrades(ctx, Filter{Types: []string{models.TradeCrypto}})
	require.NoError(t, err)
	require.Len(t, crypto, 1)
	assert.Equal(t, "BTCUSDT", crypto[0].Symbol)

	losses, err := s.ListTrades(ctx, Filter{Results: []string{models.ResultLoss}})
	require.NoError(t, err)
	require.Len(t, losses, 1)
	assert.Equal(t, "GBPUSD", losses[0].Symbol)

	shorts, err := s.ListTrades(ctx, Filter{Directions: []string{models.DirectionShort}})
	require.NoError(t, err)
	assert.Len(t, shorts, 1)

	bySymbol, err := s.ListTrades(ctx, Filter{Symbol: "GBPUSD"})
	require.NoError(t, err)
	assert.Len(t, bySymbol, 1)

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	var breakoutID int64
	for _, tg := range tags {
		if tg.Name == "breakout" {
			breakoutID = tg.ID
		}
	}
	require.NotZero(t, breakoutID)

	tagged, err := s.ListTrades(ctx, Filter{TagIDs: []int64{breakoutID}})
	require.NoError(t, err)
	assert.Len(t, tagged, 2, "both trades carry the breakout tag")
}

func TestTagsDeduplicateByName(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	a := sampleTrade()
	a.Tags = []models.Tag{{Name: "breakout"}}
	require.NoError(t, s.CreateTrade(ctx, &a))

	b := sampleTrade()
	b.Tags = []models.Tag{{Name: "breakout"}}
	require.NoError(t, s.CreateTrade(ctx, &b))

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	count := 0
	for _, tg := range tags {
		if tg.Name == "breakout" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestTradeImages(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	trade := sampleTrade()
	require.NoError(t, s.CreateTrade(ctx, &trade))

	img := models.TradeImage{
		Kind:        models.ImageLTF,
		ContentType: "image/png",
		Name:        "daily.png",
		Data:        []byte{0x89, 0x50, 0x4e, 0x47},
	}
	require.NoError(t, s.SaveImage(ctx, trade.ID, img))

	got, err := s.Image(ctx, trade.ID, models.ImageLTF)
	require.NoError(t, err)
	assert.Equal(t, img.ContentType, got.ContentType)
	assert.Equal(t, img.Name, got.Name)
	assert.Equal(t, img.Data, got.Data)

	// Saving the same slot again replaces it.
	img.Name = "daily-v2.png"
	img.Data = []byte{0x01}
	require.NoError(t, s.SaveImage(ctx, trade.ID, img))
	got, err = s.Image(ctx, trade.ID, models.ImageLTF)
	require.NoError(t, err)
	assert.Equal(t, "daily-v2.png", got.Name)

	_, err = s.Image(ctx, trade.ID, models.ImageSTF)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Image(ctx, trade.ID, "weekly")
	assert.ErrorIs(t, err, ErrInvalid)

	err = s.SaveImage(ctx, "missing-trade", img)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveImage(ctx, trade.ID, models.TradeImage{Kind: models.ImageMTF})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStrategies(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	st := models.Strategy{Name: "London breakout", Description: "first hour range break"}
	require.NoError(t, s.CreateStrategy(ctx, &st))
	assert.NotEmpty(t, st.ID)

	got, err := s.GetStrategy(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Name, got.Name)

	trade := sampleTrade()
	trade.StrategyID = st.ID
	require.NoError(t, s.CreateTrade(ctx, &trade))

	// Deleting the strategy clears the reference, not the trade.
	require.NoError(t, s.DeleteStrategy(ctx, st.ID))
	left, err := s.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.Empty(t, left.StrategyID)

	_, err = s.GetStrategy(ctx, st.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.CreateStrategy(ctx, &models.Strategy{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalid)
}
