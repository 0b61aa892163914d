// Package main provides the entry point for the wantedanchors CLI.
//
// wantedanchors finds hash-links ([[Page#Section]]) in wiki pages whose
// section no longer exists on the target page.
//
// Usage:
//
//	wantedanchors import ./pages
//	wantedanchors scan
//	wantedanchors history --diff
//
// See --help for all available options.
package main

func main() {
	Execute()
}
