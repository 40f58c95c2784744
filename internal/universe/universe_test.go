package universe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFlags_Tradable(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  bool
	}{
		{"clean", Flags{}, true},
		{"st", Flags{ST: true}, false},
		{"suspended", Flags{Suspended: true}, false},
		{"limit up at open", Flags{LimitUpAtOpen: true}, false},
		{"newly listed", Flags{NewlyListed: true}, false},
		{"multiple", Flags{ST: true, Suspended: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.Tradable())
		})
	}
}

func writeMasks(t *testing.T, st, suspended, limitUp, newListing string) string {
	t.Helper()
	dir := t.TempDir()
	header := "datetime,order_book_id\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, STFile), []byte(header+st), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SuspendedFile), []byte(header+suspended), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, LimitUpFile), []byte(header+limitUp), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, NewListingFile), []byte(header+newListing), 0o644))
	return dir
}

func TestCSVSource_CombinedMask(t *testing.T) {
	dir := writeMasks(t,
		"2023-01-03,600519.XSHG\n",
		"2023-01-03,000001.XSHE\n",
		"2023-01-04,300750.XSHE\n",
		"")

	src, err := OpenCSVSource(dir, logger.NewNop())
	require.NoError(t, err)

	b := NewBuilder(src)
	ctx := context.Background()

	tradable, err := b.Tradable(ctx, day(2023, 1, 3))
	require.NoError(t, err)
	assert.False(t, tradable["600519.XSHG"]) // ST
	assert.False(t, tradable["000001.XSHE"]) // suspended
	_, flagged := tradable["300750.XSHE"]
	assert.False(t, flagged) // no flag that day → absent → tradable

	tradable, err = b.Tradable(ctx, day(2023, 1, 4))
	require.NoError(t, err)
	assert.False(t, tradable["300750.XSHE"]) // limit up at open
}

func TestCSVSource_MissingFileFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenCSVSource(dir, logger.NewNop())
	require.Error(t, err)
}

func TestCSVSource_SameCodeMultipleFlags(t *testing.T) {
	dir := writeMasks(t,
		"2023-01-03,600519.XSHG\n",
		"2023-01-03,600519.XSHG\n",
		"", "")

	src, err := OpenCSVSource(dir, logger.NewNop())
	require.NoError(t, err)

	flags, err := src.Flags(context.Background(), day(2023, 1, 3))
	require.NoError(t, err)
	f := flags["600519.XSHG"]
	assert.True(t, f.ST)
	assert.True(t, f.Suspended)
	assert.False(t, f.LimitUpAtOpen)
}
