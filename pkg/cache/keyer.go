package cache

import "sort"

// Keyer derives cache keys. Swapping the Keyer (see [ScopedKeyer]) changes
// the key namespace without touching callers.
type Keyer interface {
	// ExpansionKey identifies the result of expanding text with the given
	// hash under opts.
	ExpansionKey(textHash string, opts ExpansionKeyOpts) string
}

// ExpansionKeyOpts lists everything besides the input text that changes an
// expansion's output.
type ExpansionKeyOpts struct {
	// Rules holds the rule specs in application order, usually JSON encoded.
	Rules []string

	// Substitutions is the literal token table applied after the rules.
	Substitutions map[string]string
}

// DefaultKeyer produces "expand:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ExpansionKey hashes the text hash together with the options.
// Substitutions are hashed in token order so map iteration order never leaks
// into the key.
func (DefaultKeyer) ExpansionKey(textHash string, opts ExpansionKeyOpts) string {
	tokens := make([]string, 0, len(opts.Substitutions))
	for tok := range opts.Substitutions {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	pairs := make([][2]string, len(tokens))
	for i, tok := range tokens {
		pairs[i] = [2]string{tok, opts.Substitutions[tok]}
	}
	return hashKey("expand", textHash, opts.Rules, pairs)
}

var _ Keyer = DefaultKeyer{}
