// Package trigger emits the DDL that keeps the change log fed for a
// relation: active indexes are grouped by key column (and key kind), and
// one trigger set is emitted per key column, firing only when an indexed
// field changed.
//
// The host dialect here (SQLite) has single-event triggers and no stored
// procedures, so each key column yields three AFTER triggers whose bodies
// insert into the log table directly; multi_action groups the three into
// one script instead of three.
package trigger

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/extractor"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/keycodec"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"
)

// Options parameterises the generated DDL so a test suite can point the
// triggers at its own log table, or route a key kind through a named
// helper function instead of the inline insert.
type Options struct {
	LogTable    string // defaults to FTS$LOG
	MultiAction bool   // one combined script per key column, or one per event
	Position    int    // advisory ordering hint carried into the script header

	// Per-key-kind helper names (FTS$LOG_BY_DBKEY style). When set, the
	// trigger body calls the helper as an application-defined SQL
	// function with (relation_name, key_value, change_type) instead of
	// inserting into LogTable directly; the embedding host or a test
	// suite registers the function under that name.
	HelperDBKey string
	HelperUUID  string
	HelperID    string
}

// helperFor returns the helper name configured for kind, or "" when the
// inline insert should be emitted.
func (o Options) helperFor(kind keycodec.Kind) string {
	switch kind {
	case keycodec.DBKey:
		return o.HelperDBKey
	case keycodec.UUID:
		return o.HelperUUID
	case keycodec.IntID:
		return o.HelperID
	default:
		return ""
	}
}

// Trigger is one emitted trigger: its name, the event it fires on, and
// its complete DDL.
type Trigger struct {
	Name   string
	Event  string // INSERT, UPDATE or DELETE
	Script string
}

// Script is the full MAKE_TRIGGER output for one relation.
type Script struct {
	Relation string
	Triggers []Trigger
	DDL      string // every trigger, concatenated in emit order
}

var triggerTmpl = template.Must(template.New("trigger").Parse(
	`CREATE TRIGGER IF NOT EXISTS {{.Name}}
AFTER {{.Event}} ON {{.Relation}}
{{- if .When}}
WHEN {{.When}}
{{- end}}
BEGIN
	{{.Body}}
END;
`))

type triggerData struct {
	Name     string
	Event    string
	Relation string
	When     string
	Body     string
}

// keyGroup is the set of indexed fields sharing one key column.
type keyGroup struct {
	field  relation.FieldInfo
	kind   keycodec.Kind
	fields []string // analyzed fields, deduplicated, sorted
}

// Generate reads the catalog and emits the trigger DDL for relationName.
// Fails with *no-such-index* when no active index targets the relation.
func Generate(repo *catalog.Repository, intro *relation.Introspector, relationName string, opts Options) (Script, error) {
	if opts.LogTable == "" {
		opts.LogTable = "FTS$LOG"
	}

	indexes, err := repo.ActiveIndexesByRelation(relationName)
	if err != nil {
		return Script{}, err
	}
	if len(indexes) == 0 {
		return Script{}, ftserr.New(ftserr.NoSuchIndex, "relation %q has no active full-text index", relationName)
	}

	groups, err := groupByKey(intro, indexes)
	if err != nil {
		return Script{}, err
	}

	script := Script{Relation: relationName}
	var ddl strings.Builder
	if opts.Position != 0 {
		fmt.Fprintf(&ddl, "-- position %d\n", opts.Position)
	}
	for _, g := range groups {
		triggers, err := emitGroup(relationName, g, opts)
		if err != nil {
			return Script{}, err
		}
		for _, t := range triggers {
			script.Triggers = append(script.Triggers, t)
			ddl.WriteString(t.Script)
		}
	}
	script.DDL = ddl.String()
	return script, nil
}

func groupByKey(intro *relation.Introspector, indexes []catalog.Index) ([]keyGroup, error) {
	byColumn := make(map[string]*keyGroup)
	for _, idx := range indexes {
		kind, keyField, err := extractor.ResolveKeyKind(intro, idx)
		if err != nil {
			return nil, err
		}
		g, ok := byColumn[keyField.Name]
		if !ok {
			g = &keyGroup{field: keyField, kind: kind}
			byColumn[keyField.Name] = g
		}
		for _, seg := range idx.FieldSegments() {
			g.fields = append(g.fields, seg.FieldName)
		}
	}

	groups := make([]keyGroup, 0, len(byColumn))
	for _, g := range byColumn {
		g.fields = dedupeSorted(g.fields)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].field.Name < groups[j].field.Name })
	return groups, nil
}

func emitGroup(relationName string, g keyGroup, opts Options) ([]Trigger, error) {
	var (
		logColumn string
		keyExprOf func(rowRef string) string
	)
	switch g.kind {
	case keycodec.DBKey:
		logColumn = "FTS$DB_KEY"
		keyExprOf = func(rowRef string) string {
			// Pack the row address into the 8-byte dbkey form.
			return fmt.Sprintf("unhex(printf('%%016x', %s.rowid))", rowRef)
		}
	case keycodec.UUID:
		logColumn = "FTS$REC_UUID"
		keyExprOf = func(rowRef string) string {
			return fmt.Sprintf("%s.%s", rowRef, quoteIdent(g.field.Name))
		}
	case keycodec.IntID:
		logColumn = "FTS$REC_ID"
		keyExprOf = func(rowRef string) string {
			return fmt.Sprintf("%s.%s", rowRef, quoteIdent(g.field.Name))
		}
	default:
		return nil, ftserr.New(ftserr.UnsupportedKeyType, "key kind %v has no trigger form", g.kind)
	}

	var changed []string
	for _, f := range g.fields {
		changed = append(changed, fmt.Sprintf("OLD.%s IS NOT NEW.%s", quoteIdent(f), quoteIdent(f)))
	}
	updateWhen := strings.Join(changed, " OR ")

	suffix := triggerSuffix(g.kind)
	events := []struct {
		event  string
		abbrev string
		rowRef string
		change string
		when   string
	}{
		{"INSERT", "AI", "NEW", "I", ""},
		{"UPDATE", "AU", "NEW", "U", updateWhen},
		{"DELETE", "AD", "OLD", "D", ""},
	}

	helper := opts.helperFor(g.kind)

	var triggers []Trigger
	for _, ev := range events {
		name := quoteIdent(fmt.Sprintf("FTS$%s_%s%s", relationName, ev.abbrev, suffix))
		keyExpr := keyExprOf(ev.rowRef)
		var stmt string
		if helper != "" {
			// Route through the named helper function; SQLite invokes
			// application-defined functions via SELECT.
			stmt = fmt.Sprintf("SELECT %s(%s, %s, '%s');",
				quoteIdent(helper), quoteLiteral(relationName), keyExpr, ev.change)
		} else {
			stmt = fmt.Sprintf("INSERT INTO %s (FTS$RELATION_NAME, %s, FTS$CHANGE_TYPE)\n\tVALUES (%s, %s, '%s');",
				opts.LogTable, logColumn, quoteLiteral(relationName), keyExpr, ev.change)
		}

		var body strings.Builder
		err := triggerTmpl.Execute(&body, triggerData{
			Name:     name,
			Event:    ev.event,
			Relation: quoteIdent(relationName),
			When:     ev.when,
			Body:     stmt,
		})
		if err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "rendering trigger for %q", relationName)
		}
		triggers = append(triggers, Trigger{
			Name:   name,
			Event:  ev.event,
			Script: body.String(),
		})
	}

	if opts.MultiAction {
		var combined strings.Builder
		for _, t := range triggers {
			combined.WriteString(t.Script)
		}
		return []Trigger{{
			Name:   quoteIdent(fmt.Sprintf("FTS$%s%s", relationName, suffix)),
			Event:  "INSERT OR UPDATE OR DELETE",
			Script: combined.String(),
		}}, nil
	}
	return triggers, nil
}

// triggerSuffix disambiguates trigger names when one relation carries
// indexes over more than one key kind.
func triggerSuffix(kind keycodec.Kind) string {
	switch kind {
	case keycodec.DBKey:
		return "_DBKEY"
	case keycodec.UUID:
		return "_UUID"
	default:
		return ""
	}
}

func dedupeSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i == 0 || in[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
