// Package hashlink holds the aggregation stages of the broken hash-link
// search: building the origin index from extracted links, regrouping it by
// target page, and resolving references against collected anchors.
//
// Each function returns a new structure and never modifies its input.
package hashlink
