// Package classifier splits an option chain into call and put buckets by
// symbol name. Naming conventions differ per exchange, so the rule is injected.
package classifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"NiftyLevels/internal/model"
)

// Classifier assigns an option symbol to Call, Put or Unclassified.
type Classifier interface {
	Classify(symbol string) model.InstrumentClass
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(symbol string) model.InstrumentClass

func (f ClassifierFunc) Classify(symbol string) model.InstrumentClass { return f(symbol) }

// DefaultCallPatterns and DefaultPutPatterns are the substrings the NSE feed is matched against.
var (
	DefaultCallPatterns = []string{"CE", "CALL", "C"}
	DefaultPutPatterns  = []string{"PE", "PUT", "P"}
)

// PatternClassifier matches case-insensitive substrings. Call patterns are
// tried first, so a symbol matching both sets is a Call. Note that the lone
// "C" and "P" defaults also match unrelated letters in a symbol.
type PatternClassifier struct {
	CallPatterns []string
	PutPatterns  []string
}

// NewPatternClassifier upper-cases the patterns once.
func NewPatternClassifier(call, put []string) *PatternClassifier {
	return &PatternClassifier{CallPatterns: upper(call), PutPatterns: upper(put)}
}

// DefaultClassifier returns the substring classifier with the default patterns.
func DefaultClassifier() *PatternClassifier {
	return NewPatternClassifier(DefaultCallPatterns, DefaultPutPatterns)
}

func (c *PatternClassifier) Classify(symbol string) model.InstrumentClass {
	s := strings.ToUpper(symbol)
	if containsAny(s, c.CallPatterns) {
		return model.Call
	}
	if containsAny(s, c.PutPatterns) {
		return model.Put
	}
	return model.Unclassified
}

// RegexClassifier matches explicit expressions, Call first.
type RegexClassifier struct {
	Call *regexp.Regexp
	Put  *regexp.Regexp
}

// NewRegexClassifier compiles call and put expressions.
func NewRegexClassifier(call, put string) (*RegexClassifier, error) {
	c, err := regexp.Compile(call)
	if err != nil {
		return nil, fmt.Errorf("compile call regex: %w", err)
	}
	p, err := regexp.Compile(put)
	if err != nil {
		return nil, fmt.Errorf("compile put regex: %w", err)
	}
	return &RegexClassifier{Call: c, Put: p}, nil
}

func (c *RegexClassifier) Classify(symbol string) model.InstrumentClass {
	switch {
	case c.Call.MatchString(symbol):
		return model.Call
	case c.Put.MatchString(symbol):
		return model.Put
	default:
		return model.Unclassified
	}
}

// Buckets holds the classified series, each sorted by symbol.
type Buckets struct {
	Calls        []*model.Series
	Puts         []*model.Series
	Unclassified []*model.Series
}

// Partition classifies every series of chain. Unclassified series never land
// in Calls or Puts.
func Partition(c Classifier, chain map[string]*model.Series) Buckets {
	symbols := make([]string, 0, len(chain))
	for sym := range chain {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	var b Buckets
	for _, sym := range symbols {
		switch c.Classify(sym) {
		case model.Call:
			b.Calls = append(b.Calls, chain[sym])
		case model.Put:
			b.Puts = append(b.Puts, chain[sym])
		default:
			b.Unclassified = append(b.Unclassified, chain[sym])
		}
	}
	return b
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}
