package db_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherron/fitmigrate/internal/db"
	"github.com/lherron/fitmigrate/internal/export"
	"github.com/lherron/fitmigrate/internal/testutil"
)

var tableNames = []string{"weekly_plan", "sessions", "daily_nutrition"}

func openScratch(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(db.MemoryPath, "public")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	applied, err := database.Migrate()
	require.NoError(t, err)
	require.NotEmpty(t, applied)
	return database
}

func TestMigrate_Idempotent(t *testing.T) {
	database := openScratch(t)

	applied, err := database.Migrate()
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestOpen_RejectsBadSchema(t *testing.T) {
	_, err := db.Open(db.MemoryPath, "public; DROP TABLE x")
	assert.ErrorContains(t, err, "invalid schema")
}

func TestLoadScript_RoundTripsGeneratedScript(t *testing.T) {
	dir := t.TempDir()
	uid := testutil.SourceUserID
	testutil.WriteFile(t, dir, export.WeeklyPlanFile, testutil.CSV("user_id,plan,updated_at",
		uid+`,"{""Mon"":""O'Brien's split""}",2024-01-01T00:00:00Z`,
	))
	testutil.WriteFile(t, dir, export.SessionsFile, testutil.CSV("id,user_id,title,date,exercises,created_at",
		"s1,"+uid+",O'Brien,2024-01-01,[],2024-01-01T00:00:00Z",
		"s2,"+uid+",Pull,2024-01-02,[],2024-01-02T00:00:00Z",
		"s3,"+testutil.OtherUserID+",Hidden,2024-01-03,[],2024-01-03T00:00:00Z",
	))
	testutil.WriteFile(t, dir, export.DailyNutritionFile, testutil.CSV("id,user_id,date,meal_name,calories,protein,carbs,fats,foods,created_at",
		"n1,"+uid+",2024-01-01,Dinner,,185.5,40,,[],2024-01-01T19:00:00Z",
		"n2,"+uid+",2024-01-01,Snack",
	))

	cfg := testutil.Config(t, dir)
	var script bytes.Buffer
	_, err := export.New(cfg, testutil.NewTestLogger(t)).Run(&script)
	require.NoError(t, err)

	database := openScratch(t)
	require.NoError(t, database.LoadScript(script.String()))

	summaries, err := database.Summarize(tableNames)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, db.TableSummary{Table: "weekly_plan", Rows: 1, Owners: []string{cfg.PlaceholderID}}, summaries[0])
	assert.Equal(t, db.TableSummary{Table: "sessions", Rows: 2, Owners: []string{cfg.PlaceholderID}}, summaries[1])
	assert.Equal(t, db.TableSummary{Table: "daily_nutrition", Rows: 2, Owners: []string{cfg.PlaceholderID}}, summaries[2])

	var title string
	require.NoError(t, database.QueryRow("SELECT title FROM public.sessions WHERE id = 's1'").Scan(&title))
	assert.Equal(t, "O'Brien", title)

	var plan string
	require.NoError(t, database.QueryRow("SELECT plan FROM public.weekly_plan").Scan(&plan))
	assert.Equal(t, `{"Mon":"O'Brien's split"}`, plan)

	var calories, protein float64
	require.NoError(t, database.QueryRow("SELECT calories, protein FROM public.daily_nutrition WHERE id = 'n1'").Scan(&calories, &protein))
	assert.Equal(t, 0.0, calories)
	assert.Equal(t, 185.5, protein)

	var foods *string
	require.NoError(t, database.QueryRow("SELECT foods FROM public.daily_nutrition WHERE id = 'n2'").Scan(&foods))
	assert.Nil(t, foods, "absent field loads as NULL")
}

func TestLoadScript_FailureKeepsNothing(t *testing.T) {
	database := openScratch(t)

	script := "INSERT INTO public.sessions (id, user_id) VALUES ('s1', 'u');\n" +
		"INSERT INTO public.sessions (id, user_id) VALUES ('s1', 'u');\n"
	err := database.LoadScript(script)
	require.Error(t, err)

	summaries, err := database.Summarize([]string{"sessions"})
	require.NoError(t, err)
	assert.Equal(t, 0, summaries[0].Rows)
}

func TestLoadScript_RejectsNonNumericLiteral(t *testing.T) {
	database := openScratch(t)

	err := database.LoadScript("INSERT INTO public.daily_nutrition (id, user_id, calories) VALUES ('n1', 'u', 12g);")
	assert.Error(t, err)
}

func TestOpen_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch", "verify.db")

	database, err := db.Open(path, "public")
	require.NoError(t, err)
	_, err = database.Migrate()
	require.NoError(t, err)
	require.NoError(t, database.LoadScript("INSERT INTO public.weekly_plan (user_id, plan) VALUES ('u', '{}');"))
	require.NoError(t, database.Close())

	_, err = os.Stat(filepath.Join(filepath.Dir(path), "verify.public.db"))
	require.NoError(t, err, "attached schema is stored next to the main database")

	reopened, err := db.Open(path, "public")
	require.NoError(t, err)
	defer reopened.Close()

	applied, err := reopened.Migrate()
	require.NoError(t, err)
	assert.Empty(t, applied)

	summaries, err := reopened.Summarize([]string{"weekly_plan"})
	require.NoError(t, err)
	assert.Equal(t, 1, summaries[0].Rows)
}

func TestSummarize_RejectsBadTableName(t *testing.T) {
	database := openScratch(t)
	_, err := database.Summarize([]string{"sessions; --"})
	assert.Error(t, err)
}
