// Package listing walks the wiki's page listing.
//
// Enumerator is a forward-only cursor over allpages batches driven by the
// continuation token. RunBatch is the listing unit of work: it fetches one
// batch, schedules a page task per entry and, when the wiki returned a
// token, schedules the next batch. A failed fetch schedules nothing, so the
// caller can resume from the same token.
package listing
