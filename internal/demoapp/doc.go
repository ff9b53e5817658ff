// Package demoapp holds the example components served and rendered by the
// kinetic CLI: a counter and a keyed todo list.
package demoapp
