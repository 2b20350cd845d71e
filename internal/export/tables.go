package export

import (
	"strings"

	"github.com/lherron/fitmigrate/internal/literal"
	"github.com/lherron/fitmigrate/internal/parse"
)

// Source export file names, one per destination table
const (
	WeeklyPlanFile     = "weekly_plan_rows.csv"
	SessionsFile       = "sessions_rows.csv"
	DailyNutritionFile = "daily_nutrition_rows.csv"
)

// UserIDField is the owner column in every table
const UserIDField = "user_id"

// Column is one destination column and how its literal is produced from a
// source row
type Column struct {
	Name  string
	Value func(parse.Row) string
}

// Table describes how one CSV export maps onto one destination table
type Table struct {
	Schema  string
	Name    string
	File    string
	Columns []Column
	Filter  func(parse.Row) bool
}

// QualifiedName returns schema.name
func (t Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnNames returns the destination column names in order
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Insert renders the INSERT statement for a row, without a trailing newline
func (t Table) Insert(row parse.Row) string {
	values := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		values[i] = c.Value(row)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(t.QualifiedName())
	sb.WriteString(" (")
	sb.WriteString(strings.Join(t.ColumnNames(), ", "))
	sb.WriteString(") VALUES (")
	sb.WriteString(strings.Join(values, ", "))
	sb.WriteString(");")
	return sb.String()
}

// Text is a column copied from the same-named source field as an escaped
// string literal
func Text(field string) Column {
	return Column{
		Name: field,
		Value: func(row parse.Row) string {
			return literal.Escape(row.Get(field))
		},
	}
}

// Numeric is a column copied unquoted, defaulting to 0
func Numeric(field string) Column {
	return Column{
		Name: field,
		Value: func(row parse.Row) string {
			return literal.Numeric(row.Get(field))
		},
	}
}

// Fixed is a column whose value ignores the source row
func Fixed(name, text string) Column {
	quoted := literal.Quote(text)
	return Column{
		Name:  name,
		Value: func(parse.Row) string { return quoted },
	}
}

// OwnedBy matches rows whose user_id equals userID exactly
func OwnedBy(userID string) func(parse.Row) bool {
	return func(row parse.Row) bool {
		owner, ok := row.Get(UserIDField)
		return ok && owner == userID
	}
}

// Tables returns the weekly_plan, sessions and daily_nutrition definitions in
// export order. Each keeps rows owned by sourceUserID and rewrites user_id to
// placeholderID.
func Tables(schema, sourceUserID, placeholderID string) []Table {
	owner := Fixed(UserIDField, placeholderID)
	filter := OwnedBy(sourceUserID)

	return []Table{
		{
			Schema: schema,
			Name:   "weekly_plan",
			File:   WeeklyPlanFile,
			Columns: []Column{
				owner,
				Text("plan"),
				Text("updated_at"),
			},
			Filter: filter,
		},
		{
			Schema: schema,
			Name:   "sessions",
			File:   SessionsFile,
			Columns: []Column{
				Text("id"),
				owner,
				Text("title"),
				Text("date"),
				Text("exercises"),
				Text("created_at"),
			},
			Filter: filter,
		},
		{
			Schema: schema,
			Name:   "daily_nutrition",
			File:   DailyNutritionFile,
			Columns: []Column{
				Text("id"),
				owner,
				Text("date"),
				Text("meal_name"),
				Numeric("calories"),
				Numeric("protein"),
				Numeric("carbs"),
				Numeric("fats"),
				Text("foods"),
				Text("created_at"),
			},
			Filter: filter,
		},
	}
}
