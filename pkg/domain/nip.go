package domain

import (
	"unicode/utf16"

	dErrors "nipcheck/pkg/domain-errors"
)

// NIPLength is the number of characters in a Polish tax identifier (NIP).
const NIPLength = 10

// Wildcard marks an unknown digit in a guess pattern. Only the lowercase
// letter is recognised; 'X' is an ordinary (invalid) character.
const Wildcard = 'x'

// MaxPlaceholders bounds the wildcards accepted by Guess, keeping the search
// at no more than 10^3 checksum evaluations.
const MaxPlaceholders = 3

// Weights are applied to digits 0..8; the weighted sum mod 11 must equal digit 9.
var Weights = [NIPLength - 1]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// IsValidNIP reports whether the first 10 characters of identifier form a NIP
// with a correct check digit.
//
// The function is total: short input or a non-digit anywhere in the first ten
// characters yields false. A remainder of 10 has no matching check digit, so
// such prefixes are never valid.
func IsValidNIP(identifier string) bool {
	if len(identifier) < NIPLength {
		return false
	}
	checksum := 0
	for i, w := range Weights {
		d, ok := digit(identifier[i])
		if !ok {
			return false
		}
		checksum += w * d
	}
	check, ok := digit(identifier[NIPLength-1])
	if !ok {
		return false
	}
	return checksum%11 == check
}

// CountWildcards returns the number of Wildcard markers in pattern.
func CountWildcards(pattern string) int {
	n := 0
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == Wildcard {
			n++
		}
	}
	return n
}

// SubstituteWildcards replaces wildcards left to right with successive values
// from digits. Other characters are copied verbatim. Wildcards beyond
// len(digits) are left in place.
func SubstituteWildcards(pattern string, digits []byte) string {
	out := []byte(pattern)
	next := 0
	for i := range out {
		if out[i] != Wildcard || next >= len(digits) {
			continue
		}
		out[i] = '0' + digits[next]
		next++
	}
	return string(out)
}

// GuessResult is the outcome of an exhaustive wildcard search.
type GuessResult struct {
	Possibilities    []string
	Wildcards        int
	CandidatesTested int
}

// Guess returns every completion of pattern that is a valid NIP, in odometer
// order: the leftmost wildcard varies slowest.
//
// Errors carry CodeInputLength when pattern is not exactly 10 characters and
// CodeMaxPlaceholders when it holds more than MaxPlaceholders wildcards. No
// search is performed in either case. An empty, non-nil slice is a successful
// "no completion exists" answer.
func Guess(pattern string) ([]string, error) {
	res, err := GuessWithStats(pattern)
	if err != nil {
		return nil, err
	}
	return res.Possibilities, nil
}

// GuessWithStats behaves like Guess and also reports how many candidates were
// checked.
func GuessWithStats(pattern string) (GuessResult, error) {
	if err := ValidatePattern(pattern); err != nil {
		return GuessResult{}, err
	}

	wildcards := CountWildcards(pattern)
	res := GuessResult{
		Possibilities: []string{},
		Wildcards:     wildcards,
	}

	// digits is an odometer: index 0 belongs to the leftmost wildcard.
	digits := make([]byte, wildcards)
	for {
		candidate := SubstituteWildcards(pattern, digits)
		res.CandidatesTested++
		if IsValidNIP(candidate) {
			res.Possibilities = append(res.Possibilities, candidate)
		}
		if !advance(digits) {
			return res, nil
		}
	}
}

// ValidatePattern applies the length and wildcard-count checks performed by Guess.
func ValidatePattern(pattern string) error {
	if InputLength(pattern) != NIPLength {
		return dErrors.New(dErrors.CodeInputLength, "Invalid input length")
	}
	if CountWildcards(pattern) > MaxPlaceholders {
		return dErrors.New(dErrors.CodeMaxPlaceholders, "Too many placeholders")
	}
	return nil
}

// InputLength counts s in UTF-16 code units, the unit browser clients use
// for string length. Invalid UTF-8 bytes count as one unit each. For ASCII
// input it equals len(s).
func InputLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// advance increments the base-10 odometer in place, rightmost position first.
// It returns false once every position has wrapped back to zero.
func advance(digits []byte) bool {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < 9 {
			digits[i]++
			return true
		}
		digits[i] = 0
	}
	return false
}

func digit(c byte) (int, bool) {
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}
