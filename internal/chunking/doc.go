// Package chunking provides the two text chunking policies used by the
// document processors.
//
//   - Words accumulates whitespace-delimited words until the joined text
//     reaches a maximum length. It never splits inside a word.
//   - Fixed slices text every N characters regardless of word boundaries.
//
// Each processor picks its own policy; the policies are deliberately not
// merged into one. Lengths are counted in characters (runes), so multi-byte
// UTF-8 text is never cut mid-character.
package chunking
