package journal

import (
	"context"
	"math"

	"github.com/vealko/tradescope/pkg/models"
)

// Stats aggregates win/loss performance over all journaled trades.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	trades, err := s.ListTrades(ctx, Filter{})
	if err != nil {
		return models.Stats{}, err
	}
	return ComputeStats(trades), nil
}

// ComputeStats derives journal statistics from a trade list. Percentages
// and averages are rounded to two decimals.
func ComputeStats(trades []models.Trade) models.Stats {
	stats := models.Stats{Total: len(trades)}

	var rrSum, riskSum float64
	byType := newBuckets()
	byDirection := newBuckets()

	for _, t := range trades {
		win := t.Result == models.ResultTake
		if win {
			stats.Wins++
		} else {
			stats.Losses++
		}
		rrSum += t.RiskRewardRatio
		riskSum += t.RiskPercent

		byType.add(t.Type, win, t.RiskRewardRatio)
		byDirection.add(t.Direction, win, t.RiskRewardRatio)
	}

	if stats.Total > 0 {
		stats.WinRate = round2(float64(stats.Wins) / float64(stats.Total) * 100)
		stats.AvgRR = round2(rrSum / float64(stats.Total))
		stats.AvgRiskPct = round2(riskSum / float64(stats.Total))
	}
	stats.ByType = byType.finish()
	stats.ByDirection = byDirection.finish()
	return stats
}

// buckets accumulates per-key win/loss counts in first-seen order.
type buckets struct {
	order []string
	data  map[string]*bucket
}

type bucket struct {
	total int
	wins  int
	rrSum float64
}

func newBuckets() *buckets {
	return &buckets{data: make(map[string]*bucket)}
}

func (b *buckets) add(key string, win bool, rr float64) {
	bk, ok := b.data[key]
	if !ok {
		bk = &bucket{}
		b.data[key] = bk
		b.order = append(b.order, key)
	}
	bk.total++
	if win {
		bk.wins++
	}
	bk.rrSum += rr
}

func (b *buckets) finish() []models.BucketStats {
	out := make([]models.BucketStats, 0, len(b.order))
	for _, key := range b.order {
		bk := b.data[key]
		out = append(out, models.BucketStats{
			Key:     key,
			Total:   bk.total,
			Wins:    bk.wins,
			Losses:  bk.total - bk.wins,
			WinRate: round2(float64(bk.wins) / float64(bk.total) * 100),
			AvgRR:   round2(bk.rrSum / float64(bk.total)),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
