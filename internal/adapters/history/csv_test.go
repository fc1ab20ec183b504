package history_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alejandrodnm/digitbot/internal/adapters/history"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts history.Options
		want []domain.Digit
	}{
		{
			name: "digit column",
			in:   "epoch,digit\n1,3\n2,1\n3,4\n",
			opts: history.DefaultOptions(),
			want: []domain.Digit{3, 1, 4},
		},
		{
			name: "price column shortest form",
			in:   "time,price\n1,100.12\n2,100.5\n3,100\n",
			opts: history.DefaultOptions(),
			want: []domain.Digit{2, 5, 0},
		},
		{
			name: "price column with pip size",
			in:   "quote\n100.5\n100.57\n",
			opts: history.Options{PipDecimals: 2},
			want: []domain.Digit{0, 7},
		},
		{
			name: "headerless prices with comments and blanks",
			in:   "# exported ticks\n1234.56\n\n1234.61\n",
			opts: history.DefaultOptions(),
			want: []domain.Digit{6, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := history.Load(strings.NewReader(tt.in), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"digit out of range", "digit\n3\n12\n", "line 3"},
		{"bad price", "price\n1.5\nabc\n", "line 3"},
		{"unknown header", "time,value\n1,2\n", "no digit or price column"},
		{"short row", "a,price\n1,2\n3\n", "missing column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := history.Load(strings.NewReader(tt.in), history.DefaultOptions())
			require.ErrorIs(t, err, domain.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.csv")
	require.NoError(t, os.WriteFile(path, []byte("digit\n9\n0\n"), 0o600))

	got, err := history.LoadFile(path, history.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []domain.Digit{9, 0}, got)

	_, err = history.LoadFile(filepath.Join(t.TempDir(), "missing.csv"), history.DefaultOptions())
	require.Error(t, err)
}

func TestParseDigits(t *testing.T) {
	assert.Equal(t, []domain.Digit{0, 5, 2, 7, 9}, history.ParseDigits("05 27,9x"))
	assert.Empty(t, history.ParseDigits(""))
}
