// Package extract invokes the metadata extraction collaborator.
//
// The dispatcher treats extraction as an opaque operation: a path goes in, a
// field map or a failure comes out. The default implementation shells out to
// a configured external command that reads the scan file and prints a JSON
// object on stdout. An empty field map is treated as a failure, matching the
// downstream rule that an empty report is worthless.
package extract
