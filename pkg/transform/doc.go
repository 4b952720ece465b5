// Package transform rewrites generic template text into type-specialized text.
//
// A [Transformer] is a pure function from text to text built from an
// immutable configuration. Four kinds exist:
//
//   - [ArgCall] expands a trigger followed by a balanced, delimiter-enclosed
//     argument list into a formatted string built from those arguments.
//   - [Capture] replaces every match of a one-group pattern with a formatted
//     string built from the captured value.
//   - [Relocate] collapses the whole line around each occurrence of a literal
//     marker down to the marker itself.
//   - [Replace] is an ordinary replace-all with $1-style back-references.
//
// Transformers compose with [Chain], which applies each one to the output of
// the previous one:
//
//	template text → argcall → capture → … → replace → specialized text
//
// # Offsets and cursors
//
// Every Apply call converts its input to runes once and walks it with a local
// cursor: text before the cursor has already been emitted, and the trigger
// pattern is always searched for at or after the cursor. A structurally
// scanned span (a balanced argument list, a whole line) moves the cursor past
// it so the pattern never re-enters text that was already rewritten. Nothing
// outside a match or a scanned span is dropped, reordered or duplicated.
//
// Because the cursor lives on the stack of Apply, a configured transformer can
// be shared by any number of goroutines.
//
// # Patterns
//
// Patterns are compiled with github.com/dlclark/regexp2 when the transformer
// is constructed. The default syntax is Perl-style (look-around, \w, named
// groups); [SyntaxRE2] switches to RE2 compatibility mode. Searches resume at
// a rune offset in the original input, so look-behind still sees text that
// precedes the cursor.
//
// # Errors
//
// Bad configuration fails at construction: delimiter pairs that are not two
// characters, capture patterns without exactly one group, templates with
// unsupported verbs. A template whose placeholder count differs from the
// number of extracted arguments fails at Apply time with
// ARITY_MISMATCH. A trigger that is not followed by a balanced argument list
// is not an error: the trigger text passes through unchanged.
package transform
