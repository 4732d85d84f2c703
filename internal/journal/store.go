// Package journal is the sqlite-backed trade journal: trades with tags,
// strategies, chart screenshots, and aggregate statistics.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vealko/tradescope/pkg/id"
	"github.com/vealko/tradescope/pkg/models"
)

var (
	// ErrNotFound is returned when a trade, strategy, or image does not exist.
	ErrNotFound = errors.New("journal: not found")
	// ErrInvalid is returned when a record fails validation.
	ErrInvalid = errors.New("journal: invalid")
)

// Filter narrows a trade listing. Zero-value fields are ignored.
type Filter struct {
	Types      []string
	Results    []string
	Directions []string
	TagIDs     []int64
	Symbol     string
}

// Store is the sqlite journal.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func validateTrade(t *models.Trade) error {
	if !models.ValidTradeType(t.Type) {
		return fmt.Errorf("%w: trade type %q", ErrInvalid, t.Type)
	}
	if !models.ValidResult(t.Result) {
		return fmt.Errorf("%w: result %q", ErrInvalid, t.Result)
	}
	if !models.ValidDirection(t.Direction) {
		return fmt.Errorf("%w: direction %q", ErrInvalid, t.Direction)
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalid)
	}
	return nil
}

// CreateTrade inserts a trade, minting an ID and timestamps. Tag names
// are upserted; tag IDs on the trade are filled in.
func (s *Store) CreateTrade(ctx context.Context, t *models.Trade) error {
	if err := validateTrade(t); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = id.New()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Date.IsZero() {
		t.Date = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(id, type, symbol, price, stop_loss, volume, result, direction, date,
		 risk_percent, risk_reward_ratio, strategy_id, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Type, t.Symbol, t.Price, t.StopLoss, t.Volume, t.Result,
		t.Direction, t.Date.UTC(), t.RiskPercent, t.RiskRewardRatio,
		nullString(t.StrategyID), t.Comment, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	if err := setTags(ctx, tx, t.ID, t.Tags); err != nil {
		return err
	}
	for i := range t.Tags {
		name := strings.TrimSpace(t.Tags[i].Name)
		if name == "" {
			continue
		}
		t.Tags[i].ID, err = tagID(ctx, tx, name)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateTrade rewrites a trade in place and replaces its tag set.
func (s *Store) UpdateTrade(ctx context.Context, t *models.Trade) error {
	if err := validateTrade(t); err != nil {
		return err
	}
	t.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE trades SET
			type = ?, symbol = ?, price = ?, stop_loss = ?, volume = ?,
			result = ?, direction = ?, date = ?, risk_percent = ?,
			risk_reward_ratio = ?, strategy_id = ?, comment = ?, updated_at = ?
		WHERE id = ?`,
		t.Type, t.Symbol, t.Price, t.StopLoss, t.Volume, t.Result,
		t.Direction, t.Date.UTC(), t.RiskPercent, t.RiskRewardRatio,
		nullString(t.StrategyID), t.Comment, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_tags WHERE trade_id = ?`, t.ID); err != nil {
		return err
	}
	if err := setTags(ctx, tx, t.ID, t.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

const tradeColumns = `id, type, symbol, price, stop_loss, volume, result, direction,
	date, risk_percent, risk_reward_ratio, strategy_id, comment, created_at, updated_at`

// GetTrade loads one trade with its tags.
func (s *Store) GetTrade(ctx context.Context, tradeID string) (models.Trade, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, tradeID)
	t, err := scanTrade(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trade{}, ErrNotFound
	}
	if err != nil {
		return models.Trade{}, err
	}
	t.Tags, err = s.tradeTags(ctx, t.ID)
	return t, err
}

// DeleteTrade removes a trade; tags links and images go with it.
func (s *Store) DeleteTrade(ctx context.Context, tradeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, tradeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkDelete removes the given trades and reports how many existed.
func (s *Store) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `DELETE FROM trades WHERE id IN (` + placeholders(len(ids)) + `)`
	res, err := s.db.ExecContext(ctx, q, stringArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListTrades returns trades matching the filter, newest date first.
func (s *Store) ListTrades(ctx context.Context, f Filter) ([]models.Trade, error) {
	q := `SELECT DISTINCT t.` + strings.ReplaceAll(tradeColumns, ", ", ", t.") + ` FROM trades t`
	var args []any
	var where []string

	if len(f.TagIDs) > 0 {
		q += ` JOIN trade_tags tt ON tt.trade_id = t.id`
		where = append(where, `tt.tag_id IN (`+placeholders(len(f.TagIDs))+`)`)
		for _, tid := range f.TagIDs {
			args = append(args, tid)
		}
	}
	if len(f.Types) > 0 {
		where = append(where, `t.type IN (`+placeholders(len(f.Types))+`)`)
		args = append(args, stringArgs(f.Types)...)
	}
	if len(f.Results) > 0 {
		where = append(where, `t.result IN (`+placeholders(len(f.Results))+`)`)
		args = append(args, stringArgs(f.Results)...)
	}
	if len(f.Directions) > 0 {
		where = append(where, `t.direction IN (`+placeholders(len(f.Directions))+`)`)
		args = append(args, stringArgs(f.Directions)...)
	}
	if f.Symbol != "" {
		where = append(where, `t.symbol = ?`)
		args = append(args, f.Symbol)
	}

	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY t.date DESC, t.id DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range trades {
		trades[i].Tags, err = s.tradeTags(ctx, trades[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return trades, nil
}

// SaveImage stores or replaces the screenshot for one timeframe slot.
func (s *Store) SaveImage(ctx context.Context, tradeID string, img models.TradeImage) error {
	if !models.ValidImageKind(img.Kind) {
		return fmt.Errorf("%w: image kind %q", ErrInvalid, img.Kind)
	}
	if len(img.Data) == 0 {
		return fmt.Errorf("%w: empty image", ErrInvalid)
	}
	if _, err := s.GetTrade(ctx, tradeID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trade_images (trade_id, kind, content_type, name, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(trade_id, kind) DO UPDATE SET
			content_type = excluded.content_type,
			name = excluded.name,
			data = excluded.data`,
		tradeID, img.Kind, img.ContentType, img.Name, img.Data,
	)
	return err
}

// Image loads the screenshot for one timeframe slot.
func (s *Store) Image(ctx context.Context, tradeID, kind string) (models.TradeImage, error) {
	if !models.ValidImageKind(kind) {
		return models.TradeImage{}, fmt.Errorf("%w: image kind %q", ErrInvalid, kind)
	}

	img := models.TradeImage{Kind: kind}
	err := s.db.QueryRowContext(ctx, `
		SELECT content_type, name, data FROM trade_images
		WHERE trade_id = ? AND kind = ?`, tradeID, kind,
	).Scan(&img.ContentType, &img.Name, &img.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TradeImage{}, ErrNotFound
	}
	return img, err
}

// Tags lists every tag, alphabetically.
func (s *Store) Tags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateStrategy inserts a named strategy.
func (s *Store) CreateStrategy(ctx context.Context, st *models.Strategy) error {
	if strings.TrimSpace(st.Name) == "" {
		return fmt.Errorf("%w: empty strategy name", ErrInvalid)
	}
	if st.ID == "" {
		st.ID = id.New()
	}
	st.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO strategies (id, name, description, created_at)
		VALUES (?, ?, ?, ?)`,
		st.ID, st.Name, st.Description, st.CreatedAt,
	)
	return err
}

// GetStrategy loads one strategy.
func (s *Store) GetStrategy(ctx context.Context, strategyID string) (models.Strategy, error) {
	var st models.Strategy
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, created_at FROM strategies WHERE id = ?`, strategyID,
	).Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Strategy{}, ErrNotFound
	}
	return st, err
}

// Strategies lists every strategy, newest first.
func (s *Store) Strategies(ctx context.Context) ([]models.Strategy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, created_at FROM strategies ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Strategy
	for rows.Next() {
		var st models.Strategy
		if err := rows.Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// DeleteStrategy removes a strategy; trades referencing it keep running
// with a cleared strategy_id.
func (s *Store) DeleteStrategy(ctx context.Context, strategyID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM strategies WHERE id = ?`, strategyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (models.Trade, error) {
	var t models.Trade
	var strategyID sql.NullString
	err := row.Scan(
		&t.ID, &t.Type, &t.Symbol, &t.Price, &t.StopLoss, &t.Volume,
		&t.Result, &t.Direction, &t.Date, &t.RiskPercent, &t.RiskRewardRatio,
		&strategyID, &t.Comment, &t.CreatedAt, &t.UpdatedAt,
	)
	t.StrategyID = strategyID.String
	return t, err
}

func (s *Store) tradeTags(ctx context.Context, tradeID string) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tg.id, tg.name FROM tags tg
		JOIN trade_tags tt ON tt.tag_id = tg.id
		WHERE tt.trade_id = ? ORDER BY tg.name`, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// setTags upserts tag names and links them to the trade.
func setTags(ctx context.Context, tx *sql.Tx, tradeID string, tags []models.Tag) error {
	for _, tag := range tags {
		name := strings.TrimSpace(tag.Name)
		if name == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, name); err != nil {
			return err
		}
		tid, err := tagID(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO trade_tags (trade_id, tag_id) VALUES (?, ?)`, tradeID, tid); err != nil {
			return err
		}
	}
	return nil
}

func tagID(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	var tid int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tid)
	return tid, err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(vals []string) []any {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args
}
