package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsDirValidates(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestActiveAssignmentIndexPresent(t *testing.T) {
	b, err := os.ReadFile(filepath.Join("migrations", "20250301120100_assignments.sql"))
	require.NoError(t, err)

	sql := string(b)
	require.Contains(t, sql, "CREATE UNIQUE INDEX uniq_assigned_orders_active")
	for _, status := range []string{"ASSIGNED", "PENDING", "ACCEPTED", "STARTED", "RETURN_ASSIGNED", "RETURN_PENDING", "RETURN_ACCEPTED", "RETURN_STARTED"} {
		require.Contains(t, sql, "'"+status+"'", "active status %s must be covered by the partial index", status)
	}
}

func TestEveryTableHasDown(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		require.NoError(t, err)

		up := strings.Count(string(b), "CREATE TABLE ")
		down := strings.Count(string(b), "DROP TABLE ")
		require.Equal(t, up, down, "%s: CREATE TABLE and DROP TABLE counts must match", e.Name())
	}
}
