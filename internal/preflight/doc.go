// Package preflight provides readiness checks for the wiki API and the
// filesystem paths gamewiki depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check.
//   - The CLI "gamewiki status" command renders the same results alongside
//     database checks built with CheckDatabase.
package preflight
