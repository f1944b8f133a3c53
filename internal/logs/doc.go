// Package logs reads the persistent gamewiki log for the CLI.
//
// Console entries span a header line plus indented attribute lines; both
// readers group them back into whole entries before filtering. Last returns the
// final entries with bounded memory along with the offset it stopped at, and
// Follow polls from that offset until the context ends.
package logs
