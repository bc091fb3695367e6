// Package pkg holds metadata and filesystem locations shared by the esp
// command and its subpackages.
//
//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of esp embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It appears in help text, default file paths,
	// and the prefix of environment variables.
	Name = "esp"

	// Description summarizes the command for help output.
	Description = "Evaluate, format, and explore ESP expression scripts"
)

// AuthorInfo identifies an author of the project.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
