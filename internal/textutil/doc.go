// Package textutil normalizes text pulled from wiki pages.
//
// SplitNames turns a delimiter-separated credit list ("A; B, C / D and E")
// into an ordered, de-duplicated slice of names with wiki link brackets
// removed. NormalizeText decodes HTML entities, folds non-breaking spaces and
// whitespace runs to single spaces, and trims the result. Both are pure
// functions and safe for concurrent use.
package textutil
