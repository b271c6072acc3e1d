// Package netparse turns the text output of network device commands
// into structured facts, driven by declarative rule documents.
//
// The engine is in package 'core'.  Rule documents are loaded and run
// by package 'rules', and the command-line tool and the parse service
// are in `cmd`.
package netparse
