package datagen

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func twoDayFraudConfig(dir string) FraudConfig {
	cfg := DefaultFraudConfig(dir)
	cfg.StartDate = "2025-03-01"
	cfg.EndDate = "2025-03-02"
	cfg.PerHour = 5
	return cfg
}

func TestGenerateFraud_Window(t *testing.T) {
	dir := t.TempDir()
	stats, err := GenerateFraud(context.Background(), twoDayFraudConfig(dir), zap.NewNop())
	require.NoError(t, err)

	// 24 hours on the first day plus only hour 00 on the end day.
	assert.Equal(t, 25, stats.FilesCreated)
	assert.Equal(t, 25*5, stats.TotalTransactions)
	assert.Equal(t, "2025-03-01 to 2025-03-02", stats.DateRange)
	assert.LessOrEqual(t, stats.FraudRate, 0.35)

	endDay, err := os.ReadDir(filepath.Join(dir, "year=2025", "month=03", "day=02"))
	require.NoError(t, err)
	require.Len(t, endDay, 1)
	assert.Equal(t, "inferences_hour=00.json", endDay[0].Name())

	// Hour partitions land under year=/month=/day= directories.
	path := filepath.Join(dir, "year=2025", "month=03", "day=01", "inferences_hour=00.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []FraudRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 5)

	for _, rec := range records {
		assert.Equal(t, "2025-03-01T00:00:00Z", rec.Timestamp)
		assert.NotEmpty(t, rec.TxnID)
		assert.Contains(t, []int{0, 1}, rec.IsFraud)
		assert.GreaterOrEqual(t, rec.FraudScore, 0.0)
		assert.LessOrEqual(t, rec.FraudScore, 1.0)
		if rec.FraudScore >= 0.5 {
			assert.Equal(t, 1, rec.FraudPred)
		} else {
			assert.Equal(t, 0, rec.FraudPred)
		}
		assert.GreaterOrEqual(t, rec.RiskRank, 1)
		assert.LessOrEqual(t, rec.RiskRank, 5)
		assert.GreaterOrEqual(t, rec.TxnAmount, 1.0)
		assert.LessOrEqual(t, rec.TxnAmount, 10000.0)
		assert.LessOrEqual(t, rec.DistanceFromHomeKm, 1000.0)
		assert.Contains(t, fraudSegments, rec.CustomerSegment)
		assert.Contains(t, fraudChannels, rec.Channel)
		assert.Contains(t, fraudRegions, rec.Region)
	}
}

func TestGenerateFraud_SingleDayEmitsMidnightOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := twoDayFraudConfig(dir)
	cfg.EndDate = cfg.StartDate

	stats, err := GenerateFraud(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesCreated)
	assert.Equal(t, 5, stats.TotalTransactions)

	_, err = os.Stat(filepath.Join(dir, "year=2025", "month=03", "day=01", "inferences_hour=01.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateFraud_Deterministic(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	_, err := GenerateFraud(context.Background(), twoDayFraudConfig(dirA), zap.NewNop())
	require.NoError(t, err)
	_, err = GenerateFraud(context.Background(), twoDayFraudConfig(dirB), zap.NewNop())
	require.NoError(t, err)

	rel := filepath.Join("year=2025", "month=03", "day=01", "inferences_hour=12.json")
	a, err := os.ReadFile(filepath.Join(dirA, rel))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, rel))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed and window must reproduce identical partitions")
}

func TestGenerateFraud_SeedChangesOutput(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	cfgA := twoDayFraudConfig(dirA)
	cfgB := twoDayFraudConfig(dirB)
	cfgB.Seed = 7

	_, err := GenerateFraud(context.Background(), cfgA, zap.NewNop())
	require.NoError(t, err)
	_, err = GenerateFraud(context.Background(), cfgB, zap.NewNop())
	require.NoError(t, err)

	rel := filepath.Join("year=2025", "month=03", "day=01", "inferences_hour=00.json")
	a, err := os.ReadFile(filepath.Join(dirA, rel))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(dirB, rel))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateFraudReference_LeadingSlice(t *testing.T) {
	dir := t.TempDir()
	cfg := twoDayFraudConfig(dir)
	cfg.EndDate = "2025-03-05"

	stats, err := GenerateFraudReference(context.Background(), cfg, 2, zap.NewNop())
	require.NoError(t, err)

	// Only the first two days of the window are written: all of day one
	// plus hour 00 of day two.
	assert.Equal(t, 25, stats.FilesCreated)
	assert.Equal(t, "2025-03-01 to 2025-03-02", stats.DateRange)

	_, err = os.Stat(filepath.Join(dir, "year=2025", "month=03", "day=02"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "year=2025", "month=03", "day=03"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateFraud_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateFraud(ctx, twoDayFraudConfig(t.TempDir()), zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)
}
