// Package mediawiki is a small client for the four PCGamingWiki API surfaces
// gamewiki consumes: list=allpages enumeration, action=parse for rendered HTML
// and wikitext, and action=cargoquery against the Infobox_game table.
//
// Requests share an optional token-bucket limiter so that several workers
// never exceed the configured request rate. Non-2xx responses and MediaWiki
// error envelopes are returned as errors; IsRetriable classifies the transient
// ones.
package mediawiki
