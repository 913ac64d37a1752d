package wordcodec

import (
	"errors"
	"fmt"
	"strings"
)

// TokenWordCount is the fixed number of words in an access code: 100 bits at
// 10 bits per word.
const TokenWordCount = 10

var (
	// ErrInvalidLength means the bit string cannot be split into whole words.
	ErrInvalidLength = errors.New("bit string length is not a multiple of 10")

	// ErrInvalidBit means the bit string contains something other than '0' or '1'.
	ErrInvalidBit = errors.New("bit string may contain only '0' and '1'")

	// ErrWrongWordCount means the sequence is not exactly TokenWordCount words.
	ErrWrongWordCount = errors.New("expected exactly 10 words")

	// ErrUnknownWord means a word is not in the dictionary.
	ErrUnknownWord = errors.New("unknown dictionary word")
)

// Encode packs a bit string ('0'/'1' characters) into dictionary words, one
// word per 10 bits, most-significant chunk first.
func Encode(bits string) ([]string, error) {
	if len(bits)%BitsPerWord != 0 {
		return nil, fmt.Errorf("%w: got %d bits", ErrInvalidLength, len(bits))
	}
	words := make([]string, 0, len(bits)/BitsPerWord)
	for i := 0; i < len(bits); i += BitsPerWord {
		index := 0
		for _, c := range bits[i : i+BitsPerWord] {
			index <<= 1
			switch c {
			case '1':
				index |= 1
			case '0':
			default:
				return nil, fmt.Errorf("%w: found %q", ErrInvalidBit, c)
			}
		}
		words = append(words, dictionary[index])
	}
	return words, nil
}

// Decode unpacks a word sequence back into its bit string.
func Decode(words []string) (string, error) {
	var b strings.Builder
	b.Grow(len(words) * BitsPerWord)
	for _, w := range words {
		index, ok := wordIndex[w]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownWord, w)
		}
		fmt.Fprintf(&b, "%010b", index)
	}
	return b.String(), nil
}

// DecodeToken unpacks exactly TokenWordCount words into the 100-bit string an
// access code carries.
func DecodeToken(words []string) (string, error) {
	if len(words) != TokenWordCount {
		return "", fmt.Errorf("%w: got %d", ErrWrongWordCount, len(words))
	}
	return Decode(words)
}
