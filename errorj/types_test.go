package errorj

import (
	"errors"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func TestClass(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"parse", ParseError.New("file not found"), "parse"},
		{"normalization", NormalizationError.New("collision"), "normalization"},
		{"config", ConfigError.New("unknown type"), "config"},
		{"verification", VerificationError.New("count mismatch"), "verification"},
		{"upload", UploadError.New("failed"), "upload"},
		{"sql subtype", CreateTableError.New("failed"), "upload"},
		{"decorated sql", Decorate(ExecuteInsertError.New("failed"), "batch 1"), "upload"},
		{"plain", errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Class(tt.err))
		})
	}
}

func TestGroup(t *testing.T) {
	require.Nil(t, Group())

	single := errors.New("single")
	require.Equal(t, single, Group(single))

	grouped := Group(ParseError.New("main"), errors.New("suppressed"))
	require.True(t, errorx.IsOfType(grouped, ParseError))

	plain := Group(errors.New("commit failed"), errors.New("rollback failed"))
	require.Error(t, plain)
	require.Contains(t, plain.Error(), "commit failed")
}

func TestProperties(t *testing.T) {
	err := CreateTableError.New("failed").WithProperty(DBObjects, "guests")
	value, ok := err.Property(DBObjects)
	require.True(t, ok)
	require.Equal(t, "guests", value)
	require.True(t, IsSQLError(err))
	require.False(t, IsSQLError(ParseError.New("x")))
	require.False(t, IsSQLError(errors.New("x")))
	require.False(t, IsSQLError(nil))
}

func TestIsSQLErrorCause(t *testing.T) {
	cause := ConnectionError.New("connection refused")
	wrapped := UploadError.Wrap(Decorate(cause, "failed to connect"), "failed to initialize destination")

	require.False(t, errorx.IsOfType(wrapped, ConnectionError))
	require.True(t, IsSQLError(wrapped))
	require.False(t, IsSQLError(UploadError.Wrap(errors.New("x"), "upload failed")))
}
