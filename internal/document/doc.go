// Package document extracts text from documents as an ordered sequence of
// chunks. Pages, paragraph groups and row groups are the natural chunk
// boundaries for each format; callers decide how many chunks they need.
//
// [Extract] dispatches on the file extension. Unsupported formats yield an
// empty sequence together with [ErrUnsupportedFormat], which callers are
// expected to treat as a warning.
package document
