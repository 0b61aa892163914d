// Package database provides SQLite-based storage for wantedanchors.
//
// The WikiDB holds:
//   - Pages with the address of their current text blob
//   - Text blobs with the raw markup of each revision
//   - The link table recording which pages link to which titles
//   - The history of past runs with their broken hash-link reports
//
// The page, text and pagelinks tables follow the layout of a MediaWiki
// database closely enough that the origin query reads the same way:
// pages of a namespace joined to their outgoing links into that namespace.
// Text is addressed as "tt:<id>"; any other address has no retrievable text.
package database
