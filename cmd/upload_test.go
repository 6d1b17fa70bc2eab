package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestUploadCommand(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "guestlist.csv")
	require.NoError(t, os.WriteFile(filePath, []byte("Guest Name,VIP-Status, Email \nAnn,yes,ann@example.com\nBob,no,\nEve,yes,eve@example.com\n"), 0644))

	t.Setenv("DESTINATION_TYPE", "duckdb")
	t.Setenv("DESTINATION_DUCKDB_PATH", filepath.Join(dir, "sandbox.db"))

	rootCmd.SetArgs([]string{"upload", "--file", filePath, "--table", "guestlist", "--disable-progress-bars"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	//second run in create mode fails because the table exists
	viper.Reset()
	rootCmd.SetArgs([]string{"upload", "--file", filePath, "--table", "guestlist", "--disable-progress-bars"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	viper.Reset()
	rootCmd.SetArgs([]string{"upload", "--file", filePath, "--table", "guestlist", "--write-mode", "append", "--disable-progress-bars"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
}

func TestPreviewCommandMissingFile(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	rootCmd.SetArgs([]string{"preview", "--file", filepath.Join(t.TempDir(), "absent.xlsx")})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "file not found")
}
