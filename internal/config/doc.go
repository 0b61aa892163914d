// Package config provides configuration structures and utilities for
// wantedanchors: where the document store lives, which namespace is
// scanned, how target pages are rendered and how the report is written.
package config
