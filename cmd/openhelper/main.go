// Command openhelper generates SQLite lifecycle code from a schema file and
// inspects databases created by it.
//
// Usage:
//
//	openhelper [flags] <command>
//
// generate and validate only read the schema file. status and doctor open
// an existing database file read-only.
package main

func main() {
	Execute()
}
