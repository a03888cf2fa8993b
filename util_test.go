package logshard

import (
	"testing"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_genFilename(t *testing.T) {
	pattern, err := strftime.New("%Y-%m-%d.log")
	if err != nil {
		t.Fatalf("strftime.New failed: %v", err)
	}
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{
			name: "utc",
			t:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			want: "2024-01-15.log",
		},
		{
			name: "end of day",
			t:    time.Date(2024, 1, 15, 23, 59, 59, 999, time.UTC),
			want: "2024-01-15.log",
		},
		{
			name: "own offset is kept",
			t:    time.Date(2024, 1, 15, 23, 0, 0, 0, time.FixedZone("", -5*3600)),
			want: "2024-01-15.log",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := genFilename(pattern, tt.t); got != tt.want {
				t.Errorf("genFilename() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_compileFilePattern(t *testing.T) {
	tests := []struct {
		pattern    string
		wantSuffix string
		wantErr    bool
	}{
		{pattern: "%Y-%m-%d.log", wantSuffix: ".log"},
		{pattern: "%Y-%m-%d.json.log", wantSuffix: ".json.log"},
		{pattern: "%Y%m%d.log", wantErr: true},
		{pattern: "app-%Y-%m-%d.log", wantErr: true},
		{pattern: "%Y-%m-%d", wantErr: true},
		{pattern: "%Y-%m-%d.log/x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, suffix, err := compileFilePattern(tt.pattern)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuffix, suffix)
		})
	}
}

func Test_parseTimestamp(t *testing.T) {
	tests := []struct {
		in       string
		wantDate string
		wantErr  bool
	}{
		{in: "2024-01-15T10:30:00Z", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30:00.123456Z", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30:00+00:00", wantDate: "2024-01-15"},
		{in: "2024-01-15T23:30:00-05:00", wantDate: "2024-01-15"},
		{in: "2024-01-16T01:30:00+09:00", wantDate: "2024-01-16"},
		{in: "2024-01-15T10:30:00", wantDate: "2024-01-15"},
		{in: "2024-01-15 10:30:00", wantDate: "2024-01-15"},
		{in: "2024-01-15 10:30:00.5+02:00", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30", wantDate: "2024-01-15"},
		{in: "2024-01-15", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30:00+0000", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30:00.25-0500", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30:00+09", wantDate: "2024-01-15"},
		{in: "2024-01-15 10:30:00+0100", wantDate: "2024-01-15"},
		{in: "2024-01-15T10:30+0000", wantDate: "2024-01-15"},
		{in: "2024-01-15T10", wantDate: "2024-01-15"},
		{in: "2024-01-15T10Z", wantDate: "2024-01-15"},
		{in: "20240115T103000Z", wantDate: "2024-01-15"},
		{in: "20240115T103000.5+0100", wantDate: "2024-01-15"},
		{in: "20240115T103000", wantDate: "2024-01-15"},
		{in: "20240115T1030", wantDate: "2024-01-15"},
		{in: "20240115", wantDate: "2024-01-15"},
		{in: "yesterday", wantErr: true},
		{in: "2024-01-15T25", wantErr: true},
		{in: "15/01/2024", wantErr: true},
		{in: "2024-13-01T00:00:00Z", wantErr: true},
		{in: "2024-01-15T10:30:00ZZ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, got.Format(dateLayout))
		})
	}
}

func Test_parseFileDate(t *testing.T) {
	got, err := parseFileDate("2020-01-01.log")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseFileDate("2020-01-01.log.gz")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseFileDate("2020-1-1.log")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)

	for _, name := range []string{"not-a-date.log", "2020-02-30.log", ".log", "20200101.log"} {
		_, err := parseFileDate(name)
		assert.Error(t, err, name)
	}
}

func Test_validServiceName(t *testing.T) {
	for _, name := range []string{"api", "unknown", "my-svc_1", "svc.v2"} {
		assert.True(t, validServiceName(name), name)
	}
	for _, name := range []string{"", ".", "..", "a/b", `a\b`, "../etc", "a\x00b"} {
		assert.False(t, validServiceName(name), name)
	}
}
