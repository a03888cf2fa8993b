package logshard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseRecord(t *testing.T) {
	testCases := []struct {
		Name        string
		Line        string
		WantService string
		WantDate    string // empty when StartUTC is not used
		WantKind    error
	}{
		{
			Name:        "service and start",
			Line:        `{"ServiceName":"api","StartUTC":"2024-01-15T10:30:00Z","Status":200}`,
			WantService: "api",
			WantDate:    "2024-01-15",
		},
		{
			Name: "no fields",
			Line: `{"Status":200}`,
		},
		{
			Name: "null fields",
			Line: `{"ServiceName":null,"StartUTC":null}`,
		},
		{
			Name:        "empty start",
			Line:        `{"ServiceName":"api","StartUTC":""}`,
			WantService: "api",
		},
		{
			Name:        "nested values are opaque",
			Line:        `{"ServiceName":"web","Request":{"ServiceName":"inner"},"tags":[1,2]}`,
			WantService: "web",
		},
		{
			Name:        "repeated keys take the last value",
			Line:        `{"ServiceName":"first","StartUTC":"2020-01-01","ServiceName":"last","StartUTC":"2024-01-15T10:30:00Z"}`,
			WantService: "last",
			WantDate:    "2024-01-15",
		},
		{
			Name:        "repeated start reset to null",
			Line:        `{"ServiceName":"api","StartUTC":"2024-01-15T10:30:00Z","StartUTC":null}`,
			WantService: "api",
		},
		{
			Name:        "zero start",
			Line:        `{"ServiceName":"api","StartUTC":0}`,
			WantService: "api",
		},
		{
			Name:        "false start",
			Line:        `{"ServiceName":"api","StartUTC":false}`,
			WantService: "api",
		},
		{
			Name:        "empty array start",
			Line:        `{"ServiceName":"api","StartUTC":[]}`,
			WantService: "api",
		},
		{
			Name:        "basic format start",
			Line:        `{"ServiceName":"api","StartUTC":"20240115T103000Z"}`,
			WantService: "api",
			WantDate:    "2024-01-15",
		},
		{
			Name:     "not json",
			Line:     `this is not json`,
			WantKind: ErrInvalidJSON,
		},
		{
			Name:     "truncated object",
			Line:     `{"ServiceName":"api"`,
			WantKind: ErrInvalidJSON,
		},
		{
			Name:     "trailing garbage",
			Line:     `{"ServiceName":"api"} {}`,
			WantKind: ErrInvalidJSON,
		},
		{
			Name:     "array",
			Line:     `[{"ServiceName":"api"}]`,
			WantKind: ErrInvalidRecord,
		},
		{
			Name:     "numeric service",
			Line:     `{"ServiceName":42}`,
			WantKind: ErrInvalidRecord,
		},
		{
			Name:     "service escapes root",
			Line:     `{"ServiceName":"../etc"}`,
			WantKind: ErrInvalidRecord,
		},
		{
			Name:     "empty service",
			Line:     `{"ServiceName":""}`,
			WantKind: ErrInvalidRecord,
		},
		{
			Name:     "bad start",
			Line:     `{"ServiceName":"api","StartUTC":"not-a-time"}`,
			WantKind: ErrInvalidTimestamp,
		},
		{
			Name:     "repeated keys with a bad last start",
			Line:     `{"ServiceName":"api","StartUTC":"2024-01-15T10:30:00Z","StartUTC":"soon"}`,
			WantKind: ErrInvalidTimestamp,
		},
		{
			Name:     "true start",
			Line:     `{"ServiceName":"api","StartUTC":true}`,
			WantKind: ErrInvalidTimestamp,
		},
		{
			Name:     "numeric start",
			Line:     `{"ServiceName":"api","StartUTC":1705314600}`,
			WantKind: ErrInvalidTimestamp,
		},
	}

	for _, tc := range testCases {
		tc := tc // avoid lint errors
		t.Run(tc.Name, func(t *testing.T) {
			rec, err := parseRecord([]byte(tc.Line))
			if tc.WantKind != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.WantKind), "error %v should be of kind %v", err, tc.WantKind)

				var rerr *RecordError
				require.True(t, errors.As(err, &rerr), "error should be a *RecordError")
				assert.Equal(t, tc.Line, string(rerr.Line))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.WantService, rec.service)
			if tc.WantDate == "" {
				assert.True(t, rec.start.IsZero(), "start should be unset")
			} else {
				assert.Equal(t, tc.WantDate, rec.start.Format(dateLayout))
			}
		})
	}
}

func Test_RecordErrorKinds(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&RecordError{Kind: ErrFilesystem, Line: []byte("{}"), Err: cause})

	assert.True(t, errors.Is(err, ErrFilesystem))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrInvalidJSON))
	assert.Contains(t, err.Error(), "disk full")

	ferr := error(&FileError{Kind: ErrInvalidFilename, Path: "/logs/api/x.log", Err: cause})
	assert.True(t, errors.Is(ferr, ErrInvalidFilename))
	assert.Contains(t, ferr.Error(), "/logs/api/x.log")
}
