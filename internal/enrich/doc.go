// Package enrich fills gaps in a page's game metadata from the wiki.
//
// Fields is the typed partial record carried by a page task; every member is
// optional and a nil or blank value means "missing". The Resolver consults the
// rendered infobox first and the Cargo Infobox_game table second, issuing at
// most one request to each, and only ever writes fields that are missing.
// Upstream failures are logged and never abort enrichment.
package enrich
