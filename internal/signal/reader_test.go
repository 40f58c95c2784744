package signal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/feval/internal/contracts"
	"github.com/wonny/feval/pkg/logger"
)

func writeSignalFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "signals.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		line    string
		want    Format
		wantErr bool
	}{
		{"20230103_600519", FormatCompact, false},
		{"2023-01-03 600519 1", FormatTabular, false},
		{"20230103 600519 1", FormatTabular, false},
		{"600519", "", true},
		{"2023-01-03 600519", "", true},
	}

	for _, tt := range tests {
		got, err := DetectFormat(tt.line)
		if tt.wantErr {
			assert.Error(t, err, tt.line)
			continue
		}
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		matched bool
	}{
		{"600519", "600519.XSHG", true},
		{"688981", "688981.XSHG", true},
		{"000001", "000001.XSHE", true},
		{"300750", "300750.XSHE", true},
		{"430047", "430047.BJSE", true},
		{"830799", "830799.BJSE", true},
		{"870204", "870204.BJSE", true},
		{"920099", "920099.BJSE", true},
		{"600519.XSHG", "600519.XSHG", true}, // already suffixed
		{"990001", "990001", false},          // no exchange rule: kept as-is
	}

	for _, tt := range tests {
		got, matched := NormalizeCode(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.matched, matched, tt.in)
	}
}

func TestRead_Compact(t *testing.T) {
	path := writeSignalFile(t, `
20230103_600519
20230103_000001
20230103_300750
20230104_688981
`)

	r := NewReader(logger.NewNop())
	set, err := r.Read(path)
	require.NoError(t, err)
	require.Len(t, set.Records, 4)

	d1 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)

	// 같은 날짜 안에서 등장 순서가 곧 순위
	assert.Equal(t, contracts.SignalRecord{Date: d1, Code: "600519.XSHG", Rank: 0}, set.Records[0])
	assert.Equal(t, contracts.SignalRecord{Date: d1, Code: "000001.XSHE", Rank: 1}, set.Records[1])
	assert.Equal(t, contracts.SignalRecord{Date: d1, Code: "300750.XSHE", Rank: 2}, set.Records[2])
	assert.Equal(t, 0, set.Records[3].Rank) // 새 날짜에서 순위 리셋
}

func TestRead_Tabular(t *testing.T) {
	path := writeSignalFile(t, `
2023-01-03 600519 1
2023-01-03 000001 2
2023-01-04 300750 1
`)

	r := NewReader(logger.NewNop())
	set, err := r.Read(path)
	require.NoError(t, err)
	require.Len(t, set.Records, 3)

	assert.Equal(t, "600519.XSHG", set.Records[0].Code)
	assert.Equal(t, 1, set.Records[0].Rank)
	assert.Equal(t, 2, set.Records[1].Rank)
}

func TestRead_SkipsCommentsAndBlanks(t *testing.T) {
	path := writeSignalFile(t, `
# top picks
20230103_600519

20230103_000001
`)

	r := NewReader(logger.NewNop())
	set, err := r.Read(path)
	require.NoError(t, err)
	assert.Len(t, set.Records, 2)
}

func TestRead_EmptyFile(t *testing.T) {
	path := writeSignalFile(t, "\n\n")
	r := NewReader(logger.NewNop())
	_, err := r.Read(path)
	require.Error(t, err)
}

func TestRead_UnknownPrefixKeptAsIs(t *testing.T) {
	path := writeSignalFile(t, "20230103_990001\n")
	r := NewReader(logger.NewNop())
	set, err := r.Read(path)
	require.NoError(t, err)
	require.Len(t, set.Records, 1)
	assert.Equal(t, "990001", set.Records[0].Code)
}

func TestRanksByDate_DuplicateKeepsFirst(t *testing.T) {
	d := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	set := &contracts.SignalSet{Records: []contracts.SignalRecord{
		{Date: d, Code: "600519.XSHG", Rank: 0},
		{Date: d, Code: "600519.XSHG", Rank: 5},
	}}

	pivot := set.RanksByDate()
	assert.Equal(t, 0, pivot[d]["600519.XSHG"])
}
