package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"

	"github.com/lherron/fitmigrate/internal/cli/appctx"
	"github.com/lherron/fitmigrate/internal/config"
	"github.com/lherron/fitmigrate/internal/testutil"
)

const (
	sessionsHeader  = "id,user_id,title,date,exercises,created_at"
	nutritionHeader = "id,user_id,date,meal_name,calories,protein,carbs,fats,foods,created_at"
	planHeader      = "user_id,plan,updated_at"
)

// newTestApp returns an App over a fresh source directory and a command
// whose stdout and stderr are captured
func newTestApp(t *testing.T) (*appctx.App, *cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := testutil.Config(t, t.TempDir())

	cmd := &cobra.Command{}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return &appctx.App{Config: cfg, Logger: testutil.NewTestLogger(t)}, cmd, stdout, stderr
}

// writeFixtures writes one owned and one foreign row for every table
func writeFixtures(t *testing.T, cfg *config.Config) {
	t.Helper()
	uid, other := testutil.SourceUserID, testutil.OtherUserID
	testutil.WriteFile(t, cfg.SourceDir, "weekly_plan_rows.csv", testutil.CSV(planHeader,
		uid+",{},2024-01-01T00:00:00Z",
		other+",{},2024-01-01T00:00:00Z",
	))
	testutil.WriteFile(t, cfg.SourceDir, "sessions_rows.csv", testutil.CSV(sessionsHeader,
		"abc-123,"+uid+",Leg Day,2024-01-01,[],2024-01-01T00:00:00Z",
		"zzz-999,"+other+",Not Mine,2024-01-02,[],2024-01-02T00:00:00Z",
	))
	testutil.WriteFile(t, cfg.SourceDir, "daily_nutrition_rows.csv", testutil.CSV(nutritionHeader,
		"n1,"+uid+",2024-01-01,Breakfast,,185.5,,,[],2024-01-01T08:00:00Z",
		"n2,"+other+",2024-01-01,Breakfast,1,1,1,1,[],2024-01-01T08:00:00Z",
	))
}

// resetFlag restores a package-level flag variable after the test
func resetFlag[T any](t *testing.T, target *T, value T) {
	t.Helper()
	old := *target
	*target = value
	t.Cleanup(func() { *target = old })
}

func isolateEnv(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"FITMIGRATE_SOURCE_DIR", "FITMIGRATE_OUTPUT", "FITMIGRATE_SOURCE_USER_ID",
		"FITMIGRATE_SOURCE_USER_ID_FILE", "FITMIGRATE_PLACEHOLDER_ID", "FITMIGRATE_SCHEMA",
		"FITMIGRATE_STRICT", "FITMIGRATE_LOG_LEVEL", "FITMIGRATE_FORMAT",
		"FITMIGRATE_PORCELAIN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(home)
}
