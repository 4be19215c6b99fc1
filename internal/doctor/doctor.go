// Package doctor provides health checks of an openhelper SQLite database
// against the schema it was generated from.
//
// The doctor command opens the database file read-only and checks the
// recorded version and identity, the shape of every table and foreign key
// integrity, without running the lifecycle.
//
// Example usage:
//
//	d := doctor.New(db, schemaModel)
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pthm/openhelper/helper"
	"github.com/pthm/openhelper/internal/writer"
	"github.com/pthm/openhelper/pkg/schema"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates the next open will fail.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

var (
	categoryStyle = lipgloss.NewStyle().Bold(true)
	detailStyle   = lipgloss.NewStyle().Faint(true)
	statusStyles  = map[Status]lipgloss.Style{
		StatusPass: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusFail: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Database", "Tables").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Check returns the first check with the given category and name.
func (r *Report) Check(category, name string) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Category == category && c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}

// Print writes the report to the given writer, grouped by category in the
// order categories were first reported.
func (r *Report) Print(w io.Writer, verbose bool) {
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", categoryStyle.Render(cat))
		for _, check := range categories[cat] {
			symbol := statusStyles[check.Status].Render(check.Status.Symbol())
			_, _ = fmt.Fprintf(w, "  %s %s\n", symbol, check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", detailStyle.Render(line))
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Doctor checks one database against a completed schema model.
type Doctor struct {
	db     *sql.DB
	schema *schema.Database

	// Populated during Run
	status *helper.Status
}

// New creates a new Doctor instance.
func New(db *sql.DB, s *schema.Database) *Doctor {
	return &Doctor{db: db, schema: s}
}

// Run executes all health checks and returns a report. Errors are returned
// only when the database cannot be queried at all.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	status, err := helper.ReadStatus(ctx, d.db)
	if err != nil {
		return nil, fmt.Errorf("reading database status: %w", err)
	}
	d.status = status

	d.checkVersion(report)
	if status.UserVersion == 0 {
		return report, nil
	}
	d.checkIdentity(report)
	if err := d.checkTables(ctx, report); err != nil {
		return nil, fmt.Errorf("checking tables: %w", err)
	}
	if err := d.checkForeignKeys(ctx, report); err != nil {
		return nil, fmt.Errorf("checking foreign keys: %w", err)
	}

	return report, nil
}

func (d *Doctor) checkVersion(report *Report) {
	version := d.status.UserVersion
	switch {
	case version == 0:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "version",
			Status:   StatusWarn,
			Message:  "Database has not been created yet (user_version 0)",
			Details:  fmt.Sprintf("%d tables present", len(d.status.Tables)),
			FixHint:  "Open it once through the generated constructor to create all tables",
		})
	case version == d.schema.Version:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "version",
			Status:   StatusPass,
			Message:  fmt.Sprintf("Schema version %d matches", version),
		})
	default:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "version",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Database is at version %d, schema expects %d", version, d.schema.Version),
			Details:  "Opening it will fail with a migration-required error unless destructive reset is allowed",
			FixHint:  "Set AllowDestructiveReset in the DatabaseConfiguration or delete the file",
		})
	}
}

func (d *Doctor) checkIdentity(report *Report) {
	switch recorded := d.status.IdentityHash; {
	case !d.status.HasMasterTable:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "identity",
			Status:   StatusWarn,
			Message:  helper.MasterTableName + " is missing",
			Details:  "The identity is recorded on the next open if every table validates",
		})
	case recorded == d.schema.IdentityHash:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "identity",
			Status:   StatusPass,
			Message:  "Identity hash matches",
			Details:  recorded,
		})
	case recorded == d.schema.LegacyIdentityHash:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "identity",
			Status:   StatusPass,
			Message:  "Identity hash matches the legacy digest",
			Details:  recorded,
		})
	default:
		report.AddCheck(CheckResult{
			Category: "Database",
			Name:     "identity",
			Status:   StatusFail,
			Message:  "Identity hash does not match the schema",
			Details:  fmt.Sprintf("expected: %s\nlegacy:   %s\nfound:    %s", d.schema.IdentityHash, d.schema.LegacyIdentityHash, recorded),
			FixHint:  "Bump the schema version when the schema changes, then regenerate",
		})
	}
}

func (d *Doctor) checkTables(ctx context.Context, report *Report) error {
	for _, e := range d.schema.Entities {
		expected := writer.ExpectedTableInfo(e)
		found, err := helper.ReadTableInfo(ctx, d.db, e.TableName)
		if err != nil {
			return err
		}

		switch {
		case len(found.Columns) == 0:
			report.AddCheck(CheckResult{
				Category: "Tables",
				Name:     e.TableName,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Table %s is missing", e.TableName),
				FixHint:  "Recreate the database or restore the table",
			})
		case !expected.Equal(found):
			report.AddCheck(CheckResult{
				Category: "Tables",
				Name:     e.TableName,
				Status:   StatusFail,
				Message:  fmt.Sprintf("Table %s differs from the schema", e.TableName),
				Details:  fmt.Sprintf("expected: %s\nfound:    %s", expected, found),
				FixHint:  "Bump the schema version so the next open resets the database",
			})
		default:
			report.AddCheck(CheckResult{
				Category: "Tables",
				Name:     e.TableName,
				Status:   StatusPass,
				Message:  fmt.Sprintf("Table %s matches (%d columns)", e.TableName, len(found.Columns)),
			})
		}
	}

	known := d.schema.TableNames()
	for _, table := range d.status.Tables {
		if slices.Contains(known, table) {
			continue
		}
		report.AddCheck(CheckResult{
			Category: "Tables",
			Name:     table,
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Table %s is not part of the schema", table),
			Details:  "Destructive resets do not drop it",
		})
	}
	return nil
}

func (d *Doctor) checkForeignKeys(ctx context.Context, report *Report) error {
	rows, err := d.db.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	violations := make(map[string]int)
	var order []string
	for rows.Next() {
		var (
			table, parent string
			rowid         sql.NullInt64
			fkid          int
		)
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return err
		}
		key := table + " -> " + parent
		if _, seen := violations[key]; !seen {
			order = append(order, key)
		}
		violations[key]++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(order) == 0 {
		msg := "No foreign key violations"
		if !d.schema.EnforceForeignKeys {
			msg += " (enforcement is off)"
		}
		report.AddCheck(CheckResult{
			Category: "Foreign Keys",
			Name:     "integrity",
			Status:   StatusPass,
			Message:  msg,
		})
		return nil
	}

	details := make([]string, 0, len(order))
	total := 0
	for _, key := range order {
		details = append(details, fmt.Sprintf("%s: %d rows", key, violations[key]))
		total += violations[key]
	}
	status := StatusFail
	if !d.schema.EnforceForeignKeys {
		status = StatusWarn
	}
	report.AddCheck(CheckResult{
		Category: "Foreign Keys",
		Name:     "integrity",
		Status:   status,
		Message:  fmt.Sprintf("%d foreign key violations", total),
		Details:  strings.Join(details, "\n"),
		FixHint:  "Delete or repair the orphaned rows",
	})
	return nil
}
