package helper

import "slices"

// DatabaseConfiguration is the application's runtime configuration for one
// database. Generated code passes it through without modification.
type DatabaseConfiguration struct {
	// Dir is the directory Name is resolved against. Empty means the
	// working directory.
	Dir string

	// Name is the database file name. Empty opens an in-memory database.
	Name string

	// OpenHelperFactory creates the open helper. Required.
	OpenHelperFactory OpenHelperFactory

	// Callbacks are invoked after creation and on every open, in order.
	Callbacks []Callback

	// AllowDestructiveReset lets a version change drop and recreate all
	// tables instead of failing with ErrMigrationRequired.
	AllowDestructiveReset bool

	// RequireMigrationFrom lists versions that must never be reset
	// destructively, even when AllowDestructiveReset is set.
	RequireMigrationFrom []int
}

// IsMigrationRequiredFrom reports whether opening a database at version must
// fail rather than reset it.
func (c *DatabaseConfiguration) IsMigrationRequiredFrom(version int) bool {
	return !c.AllowDestructiveReset || slices.Contains(c.RequireMigrationFrom, version)
}

// OpenHelperConfiguration is what an OpenHelperFactory needs to build a
// helper. Use NewConfigurationBuilder to construct one.
type OpenHelperConfiguration struct {
	Dir      string
	Name     string
	Callback OpenCallback
}

// ConfigurationBuilder builds an OpenHelperConfiguration.
type ConfigurationBuilder struct {
	cfg OpenHelperConfiguration
}

// NewConfigurationBuilder starts a configuration rooted at dir.
func NewConfigurationBuilder(dir string) *ConfigurationBuilder {
	return &ConfigurationBuilder{cfg: OpenHelperConfiguration{Dir: dir}}
}

// Name sets the database file name.
func (b *ConfigurationBuilder) Name(name string) *ConfigurationBuilder {
	b.cfg.Name = name
	return b
}

// Callback sets the lifecycle callback.
func (b *ConfigurationBuilder) Callback(cb OpenCallback) *ConfigurationBuilder {
	b.cfg.Callback = cb
	return b
}

// Build returns the configuration.
//
// Panics if no callback was set; generated code always sets one, so a
// missing callback is a programming error.
func (b *ConfigurationBuilder) Build() OpenHelperConfiguration {
	if b.cfg.Callback == nil {
		panic("helper: open helper configuration requires a callback")
	}
	return b.cfg
}
