package writer

import (
	"fmt"

	"github.com/pthm/openhelper/internal/gogen"
	"github.com/pthm/openhelper/pkg/schema"
)

const (
	dbParam              = "db"
	primaryValidateName  = "ValidateMigration"
	secondaryValidateFmt = "validateMigration%d"
	foreignKeysPragma    = "PRAGMA foreign_keys = ON"
)

var methodParams = []gogen.Param{
	{Name: "ctx", Type: "context.Context"},
	{Name: dbParam, Type: "helper.Conn"},
}

// OpenHelperWriter emits the lifecycle delegate of a database and the
// statements wiring it into an open helper.
type OpenHelperWriter struct {
	Database *schema.Database

	// Validator emits per-table validation. Defaults to
	// TableInfoValidationWriter.
	Validator TableValidator

	// ChunkSize caps the statements per validation method. Defaults to
	// ValidateChunkSize.
	ChunkSize int
}

// NewOpenHelperWriter returns a writer with the default validator and
// chunk size.
func NewOpenHelperWriter(db *schema.Database) *OpenHelperWriter {
	return &OpenHelperWriter{
		Database:  db,
		Validator: TableInfoValidationWriter{},
		ChunkSize: ValidateChunkSize,
	}
}

// DelegateTypeName is the unexported type name of the generated delegate.
func (w *OpenHelperWriter) DelegateTypeName() string {
	return gogen.Unexported(w.Database.Name) + "Delegate"
}

// Write emits the wiring statements that build the open helper into outVar:
//
//	_openCallback := helper.NewLifecycleCallback(configuration, &notesDelegate{...}, "<hash>", "<legacy>")
//	_sqliteConfig := helper.NewConfigurationBuilder(configuration.Dir).Name(configuration.Name).Callback(_openCallback).Build()
//	outVar := configuration.OpenHelperFactory.Create(_sqliteConfig)
//
// databaseVar names the *helper.Database the delegate reports to.
func (w *OpenHelperWriter) Write(outVar, configuration, databaseVar string, scope *gogen.Scope) gogen.Block {
	sqliteConfigVar := scope.TmpVar("_sqliteConfig")
	callbackVar := scope.TmpVar("_openCallback")

	delegate := fmt.Sprintf("&%s{DelegateBase: helper.DelegateBase{SchemaVersion: %d}, database: %s}",
		w.DelegateTypeName(), w.Database.Version, databaseVar)

	return gogen.Block{
		gogen.Define(fmt.Sprintf("helper.NewLifecycleCallback(%s, %s, %s, %s)",
			configuration, delegate,
			gogen.Quote(w.Database.IdentityHash), gogen.Quote(w.Database.LegacyIdentityHash)), callbackVar),
		gogen.Define(fmt.Sprintf("helper.NewConfigurationBuilder(%s.Dir).Name(%s.Name).Callback(%s).Build()",
			configuration, configuration, callbackVar), sqliteConfigVar),
		gogen.Define(fmt.Sprintf("%s.OpenHelperFactory.Create(%s)", configuration, sqliteConfigVar), outVar),
	}
}

// Delegate returns the delegate type and its methods, in output order.
func (w *OpenHelperWriter) Delegate(scope *gogen.Scope) []gogen.Decl {
	decls := []gogen.Decl{
		gogen.Struct{
			Doc: []string{
				fmt.Sprintf("%s is the lifecycle delegate for schema version %d.", w.DelegateTypeName(), w.Database.Version),
			},
			Name: w.DelegateTypeName(),
			Fields: []gogen.Param{
				{Type: "helper.DelegateBase"},
				{Name: "database", Type: "*helper.Database"},
			},
		},
		w.createAllTables(),
		w.dropAllTables(),
		w.onCreate(scope.Fork()),
		w.onOpen(scope.Fork()),
	}
	for _, m := range w.validateMigration(scope.Fork()) {
		decls = append(decls, m)
	}
	return decls
}

func (w *OpenHelperWriter) method(name string, body gogen.Block) gogen.Func {
	return gogen.Func{
		Recv:    &gogen.Param{Name: "d", Type: "*" + w.DelegateTypeName()},
		Name:    name,
		Params:  methodParams,
		Results: []string{"error"},
		Body:    append(body, gogen.Return{Values: []string{"nil"}}),
	}
}

func (w *OpenHelperWriter) createAllTables() gogen.Func {
	var body gogen.Block
	for _, q := range w.Database.BuildCreateQueries() {
		body.Add(gogen.ExecSQL{DB: dbParam, Query: q})
	}
	return w.method("CreateAllTables", body)
}

func (w *OpenHelperWriter) dropAllTables() gogen.Func {
	var body gogen.Block
	for _, e := range w.Database.Entities {
		body.Add(gogen.ExecSQL{DB: dbParam, Query: schema.DropTableQuery(e)})
	}
	return w.method("DropAllTables", body)
}

func (w *OpenHelperWriter) onCreate(scope *gogen.Scope) gogen.Func {
	body := gogen.Block{
		gogen.Raw{Text: "d.database.Attach(" + dbParam + ")"},
		invokeCallbacks(scope, callbackOnCreate, dbParam),
	}
	return w.method("OnCreate", body)
}

func (w *OpenHelperWriter) onOpen(scope *gogen.Scope) gogen.Func {
	body := gogen.Block{gogen.Raw{Text: "d.database.Attach(" + dbParam + ")"}}
	if w.Database.EnforceForeignKeys {
		body.Add(gogen.ExecSQL{DB: dbParam, Query: foreignKeysPragma})
	}
	body.Add(
		gogen.CheckErr{Call: "d.database.InitInvalidationTracker(ctx, " + dbParam + ")"},
		invokeCallbacks(scope, callbackOnOpen, dbParam),
	)
	return w.method("OnOpen", body)
}

// ValidationPlan runs the validator over every entity in declaration order
// and groups the results into validation methods.
func (w *OpenHelperWriter) ValidationPlan(scope *gogen.Scope) []Chunk {
	validator := w.Validator
	if validator == nil {
		validator = TableInfoValidationWriter{}
	}
	chunkSize := w.ChunkSize
	if chunkSize <= 0 {
		chunkSize = ValidateChunkSize
	}

	validations := make([]TableValidation, 0, len(w.Database.Entities))
	for _, e := range w.Database.Entities {
		body, count := validator.Validate(e, dbParam, scope)
		validations = append(validations, TableValidation{Entity: e, Body: body, StatementCount: count})
	}
	return PlanChunks(validations, chunkSize)
}

// validateMigration emits one method per chunk. All tables share scope, so
// variable names stay unique whichever method a table lands in. The primary
// method runs chunk 1 and then every secondary in ascending order, passing
// the same handle.
func (w *OpenHelperWriter) validateMigration(scope *gogen.Scope) []gogen.Func {
	chunks := w.ValidationPlan(scope)

	methods := make([]gogen.Func, len(chunks))
	for i, chunk := range chunks {
		var body gogen.Block
		for _, v := range chunk.Validations {
			body.Add(v.Body...)
		}
		if i == 0 {
			for j := 1; j < len(chunks); j++ {
				body.Add(gogen.CheckErr{Call: fmt.Sprintf("d.%s(ctx, %s)", ValidateMethodName(j), dbParam)})
			}
		}
		methods[i] = w.method(ValidateMethodName(i), body)
	}
	return methods
}

// ValidateMethodName returns the name of the method validating chunk i.
func ValidateMethodName(i int) string {
	if i == 0 {
		return primaryValidateName
	}
	return fmt.Sprintf(secondaryValidateFmt, i+1)
}
