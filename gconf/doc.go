// Package gconf provides a toolset for managing an extension
// configuration. Each package can declare its own configuration object,
// stored as a singleton in the database under a key unique to that
// package.
package gconf
