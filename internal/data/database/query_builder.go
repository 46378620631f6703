package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	Like               ConditionType = "LIKE"
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	Any                ConditionType = "ANY"
	Custom             ConditionType = "CUSTOM"
	defaultLimit                     = -1
	defaultOffset                    = -1
	// maxAliasParts is the maximum number of parts when splitting on " AS ".
	maxAliasParts = 2
)

var (
	asRegex          = regexp.MustCompile(`(?i)\s+AS\s+`)
	placeholderRegex = regexp.MustCompile(`\$(\d+)`)
)

type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery *string
}

func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // panic prevents misuse; custom conditions must provide raw SQL via WhereRawCond.
		panic("Use WhereRawCond for Custom type")
	}
	return Condition{
		rawQuery: nil,
		Field:    field,
		Type:     condType,
		Value:    value,
	}
}

// WhereRawCond adds a raw SQL predicate. Placeholders are numbered from $1
// within rawQuery and renumbered when the query is assembled.
func WhereRawCond(rawQuery string, params ...any) Condition {
	queryStr := rawQuery
	return Condition{
		Field:    "",
		Type:     Custom,
		rawQuery: &queryStr,
		Value:    params,
	}
}

// JoinKind is the SQL join flavour.
type JoinKind string

const (
	InnerJoin JoinKind = "JOIN"
	LeftJoin  JoinKind = "LEFT JOIN"
)

// Join describes one joined table. On is raw SQL whose $n placeholders refer to Params.
type Join struct {
	Kind   JoinKind
	Table  string
	Alias  string
	On     string
	Params []any
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Column    string
	Direction string
	NullsLast bool
}

type ListQueryOptions struct {
	Table      string
	Alias      string
	Columns    []string
	Joins      []Join
	CountOnly  bool
	Conditions []Condition
	OrderBy    []OrderTerm
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:      table,
		Columns:    []string{},
		CountOnly:  false,
		Conditions: []Condition{},
		Limit:      defaultLimit,
		Offset:     defaultOffset,
	}

	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithAlias sets the alias of the base table.
func WithAlias(alias string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Alias = alias
	}
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithJoin appends a joined table.
func WithJoin(j Join) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Joins = append(o.Joins, j)
	}
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithConditions sets the entire list of conditions.
func WithConditions(conds ...Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = conds
	}
}

// WithOrderBy appends an ordering column and direction. Call it repeatedly for tie-breaks.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = append(o.OrderBy, OrderTerm{Column: column, Direction: direction})
	}
}

// WithOrderByNullsLast appends an ordering key that sorts NULLs after all values.
func WithOrderByNullsLast(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = append(o.OrderBy, OrderTerm{Column: column, Direction: direction, NullsLast: true})
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly sets the query to count only.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) {
		o.CountOnly = true
	}
}

// sanitizeIdentifier wraps a single string identifier for sanitization.
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// sanitizeQualifiedIdentifier sanitizes qualified identifiers like "table.column" or "schema.table.column".
// It splits on '.' and uses pgx.Identifier to properly quote each part.
func sanitizeQualifiedIdentifier(ident string) string {
	parts := strings.Split(ident, ".")
	return pgx.Identifier(parts).Sanitize()
}

// processColumnSpec processes a column specification, handling aliases.
// Supports formats like:
// - "column" -> "column"
// - "t.column" -> "t"."column"
// - "column AS alias" -> "column" AS "alias".
func processColumnSpec(columnSpec string) string {
	if asRegex.MatchString(columnSpec) {
		parts := asRegex.Split(columnSpec, maxAliasParts)
		if len(parts) == maxAliasParts {
			columnExpr := strings.TrimSpace(parts[0])
			alias := strings.TrimSpace(parts[1])
			return fmt.Sprintf("%s AS %s", sanitizeQualifiedIdentifier(columnExpr), sanitizeIdentifier(alias))
		}
	}
	return sanitizeQualifiedIdentifier(columnSpec)
}

// buildSelectClause generates the SELECT part of the query with sanitized columns.
func buildSelectClause(options *ListQueryOptions) string {
	if options == nil {
		return ""
	}
	if options.CountOnly {
		return "SELECT COUNT(*) "
	}
	if len(options.Columns) == 0 {
		return "SELECT * "
	}

	processedColumns := make([]string, len(options.Columns))
	for i, col := range options.Columns {
		processedColumns[i] = processColumnSpec(col)
	}

	return fmt.Sprintf("SELECT %s ", strings.Join(processedColumns, ", "))
}

// buildFromClause renders FROM with the base table, its alias and any joins.
func buildFromClause(options *ListQueryOptions, startParamIndex int) (string, []any, int) {
	var clause strings.Builder
	args := []any{}
	paramCount := startParamIndex

	clause.WriteString("FROM ")
	clause.WriteString(sanitizeIdentifier(options.Table))
	if options.Alias != "" {
		clause.WriteString(" ")
		clause.WriteString(sanitizeIdentifier(options.Alias))
	}

	for _, j := range options.Joins {
		kind := j.Kind
		if kind != LeftJoin {
			kind = InnerJoin
		}
		on, onArgs, next := renumberPlaceholders(j.On, j.Params, paramCount)
		if on == "" {
			continue
		}
		clause.WriteString(fmt.Sprintf(" %s %s", kind, sanitizeIdentifier(j.Table)))
		if j.Alias != "" {
			clause.WriteString(" ")
			clause.WriteString(sanitizeIdentifier(j.Alias))
		}
		clause.WriteString(" ON ")
		clause.WriteString(on)
		args = append(args, onArgs...)
		paramCount = next
	}

	return clause.String(), args, paramCount
}

// buildPaginationAndOrderClause generates ORDER BY, LIMIT, OFFSET parts with sanitized columns and validated directions.
func buildPaginationAndOrderClause(
	options *ListQueryOptions,
	startParamIndex int,
	initialArgs []any,
) (string, []any) {
	if options == nil {
		return "", initialArgs
	}

	var clause strings.Builder
	args := initialArgs
	paramCount := startParamIndex

	terms := make([]string, 0, len(options.OrderBy))
	for _, term := range options.OrderBy {
		if term.Column == "" {
			continue
		}
		t := sanitizeQualifiedIdentifier(term.Column)
		upperOrderDir := strings.ToUpper(term.Direction)
		if upperOrderDir == "ASC" || upperOrderDir == "DESC" {
			t += " " + upperOrderDir
		}
		if term.NullsLast {
			t += " NULLS LAST"
		}
		terms = append(terms, t)
	}
	if len(terms) > 0 {
		clause.WriteString(" ORDER BY ")
		clause.WriteString(strings.Join(terms, ", "))
	}

	// Add LIMIT clause only if it was explicitly set (not the default sentinel)
	if options.Limit != defaultLimit {
		clause.WriteString(fmt.Sprintf(" LIMIT $%d", paramCount))
		args = append(args, options.Limit)
		paramCount++
	}

	// Add OFFSET clause only if it was explicitly set (not the default sentinel)
	if options.Offset != defaultOffset {
		clause.WriteString(fmt.Sprintf(" OFFSET $%d", paramCount))
		args = append(args, options.Offset)
	}

	return clause.String(), args
}

// BuildListQuery constructs a SQL query string and arguments from options, sanitizing identifiers.
// It handles SELECT, FROM with joins, WHERE, ORDER BY, LIMIT, and OFFSET clauses.
//
// Example usage:
//
//	options := NewListQueryOptions("posts",
//		WithAlias("p"),
//		WithColumns("p.id"),
//		WithJoin(Join{Kind: LeftJoin, Table: "llm_scores", Alias: "l", On: "l.post_id = p.id"}),
//		WithCondition(WhereCond("p.saved", Equal, true)),
//		WithCondition(WhereRawCond("$1 = ANY(l.categories)", "crime")),
//		WithOrderByNullsLast("p.posted_at", "DESC"),
//		WithOrderBy("p.id", "DESC"),
//		WithLimit(10001),
//	)
//
//	query, args := BuildListQuery(options)
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder

	query.WriteString(buildSelectClause(options))

	fromClause, fromArgs, paramCount := buildFromClause(options, 1)
	query.WriteString(fromClause)

	whereClause, whereArgs, nextParamCount := buildWhereClause(options.Conditions, paramCount)
	if whereClause != "" {
		query.WriteString(" ")
		query.WriteString(whereClause)
	}
	args := append(fromArgs, whereArgs...)

	// return early for CountOnly
	if options.CountOnly {
		return query.String(), args
	}

	paginationOrderClause, finalArgs := buildPaginationAndOrderClause(options, nextParamCount, args)
	if paginationOrderClause != "" {
		query.WriteString(paginationOrderClause)
	}

	return query.String(), finalArgs
}

func handleStandardCondition(
	cond Condition,
	sanitizedField string,
	paramCount int,
) (string, []any, int) {
	if sanitizedField == "" {
		return "", []any{}, paramCount
	}
	conditionStr := fmt.Sprintf("%s %s $%d", sanitizedField, cond.Type, paramCount)
	args := []any{cond.Value}
	return conditionStr, args, paramCount + 1
}

// expandSlice returns placeholders and args for every element of a slice value.
func expandSlice(value any, paramCount int) ([]string, []any, int) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return nil, nil, paramCount
	}

	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	currentParam := paramCount
	for i := range rv.Len() {
		placeholders[i] = fmt.Sprintf("$%d", currentParam)
		args[i] = rv.Index(i).Interface()
		currentParam++
	}
	return placeholders, args, currentParam
}

func handleInCondition(cond Condition, sanitizedField string, paramCount int) (string, []any, int) {
	placeholders, args, next := expandSlice(cond.Value, paramCount)
	if sanitizedField == "" || len(placeholders) == 0 {
		return "", []any{}, paramCount
	}
	return fmt.Sprintf("%s IN (%s)", sanitizedField, strings.Join(placeholders, ", ")), args, next
}

func handleAnyCondition(cond Condition, sanitizedField string, paramCount int) (string, []any, int) {
	placeholders, args, next := expandSlice(cond.Value, paramCount)
	if sanitizedField == "" || len(placeholders) == 0 {
		return "", []any{}, paramCount
	}
	return fmt.Sprintf("%s = ANY (ARRAY[%s])", sanitizedField, strings.Join(placeholders, ", ")), args, next
}

// renumberPlaceholders rewrites $n placeholders in raw to start at paramCount,
// handling $10 vs $1 correctly and reusing the number of a repeated placeholder.
// A placeholder with no matching param panics: left as-is it would bind to
// another clause's argument. raw itself is NOT sanitized.
func renumberPlaceholders(raw string, params []any, paramCount int) (string, []any, int) {
	if raw == "" {
		return "", []any{}, paramCount
	}
	args := []any{}
	currentParam := paramCount
	idxMap := make(map[int]int)
	out := placeholderRegex.ReplaceAllStringFunc(raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil {
			return m
		}
		if _, ok := idxMap[n]; !ok {
			if n < 1 || n > len(params) {
				//nolint:forbidigo // a raw clause referencing a missing param is a programming error.
				panic(fmt.Sprintf("raw SQL %q references %s but only %d params were given", raw, m, len(params)))
			}
			idxMap[n] = currentParam
			args = append(args, params[n-1])
			currentParam++
		}
		return fmt.Sprintf("$%d", idxMap[n])
	})
	return out, args, currentParam
}

func handleCustomCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.rawQuery == nil {
		return "", []any{}, paramCount
	}
	params, _ := cond.Value.([]any)
	return renumberPlaceholders(*cond.rawQuery, params, paramCount)
}

// processCondition processes a single condition and returns the SQL string, args, and next param count.
func processCondition(cond Condition, paramCount int) (string, []any, int) {
	sanitizedField := ""
	if cond.Type != Custom && cond.Field != "" {
		sanitizedField = sanitizeQualifiedIdentifier(cond.Field)
	}

	switch cond.Type {
	case Custom:
		return handleCustomCondition(cond, paramCount)
	case In:
		return handleInCondition(cond, sanitizedField, paramCount)
	case Any:
		return handleAnyCondition(cond, sanitizedField, paramCount)
	case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual, Like, ILike:
		return handleStandardCondition(cond, sanitizedField, paramCount)
	}
	return "", []any{}, paramCount
}

// buildWhereClause generates the WHERE part of the query with sanitized fields and manages parameters.
func buildWhereClause(inputConditions []Condition, startParamIndex int) (string, []any, int) {
	conditions := make([]string, 0, len(inputConditions))
	args := []any{}
	paramCount := startParamIndex

	for _, cond := range inputConditions {
		conditionStr, newArgs, nextParamCount := processCondition(cond, paramCount)
		if conditionStr != "" {
			conditions = append(conditions, conditionStr)
			args = append(args, newArgs...)
			paramCount = nextParamCount
		}
	}

	if len(conditions) == 0 {
		return "", args, paramCount
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, paramCount
}
