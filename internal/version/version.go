// Package version holds the build version of the garagedocs binary.
package version

// At build time, the values below are replaced using the -X linker flag.
var (
	// Version is the version number of GarageDocs that is being run.
	Version = "0.0.0"

	// BuildDate is the date the executable was built.
	BuildDate string
)
