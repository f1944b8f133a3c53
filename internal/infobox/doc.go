// Package infobox extracts typed game metadata from rendered wiki HTML.
//
// Parse locates the element whose id is "infobox-game" and walks its rows in
// document order. Header rows switch the current section ("Developers",
// "Release dates", "Taxonomy", ...); data rows contribute hyperlink texts
// (or comma-split cell text) to the list that section, or the row's own
// label, selects. A second pass collects the external link icons rendered at
// the bottom of the box.
//
// Missing or malformed markup is never an error: the zero Result is returned.
package infobox
