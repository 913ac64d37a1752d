// Package wordcodec converts between raw bit strings and sequences of
// dictionary words. Each word carries 10 bits, most-significant chunk first,
// drawn from a fixed 1024-entry dictionary.
package wordcodec

import "fmt"

const (
	// BitsPerWord is the number of bits each dictionary word encodes.
	BitsPerWord = 10

	// DictionarySize is the number of entries in the dictionary.
	DictionarySize = 1 << BitsPerWord
)

var (
	dictionary [DictionarySize]string
	wordIndex  map[string]int
)

func init() {
	wordIndex = make(map[string]int, DictionarySize)
	for i := range dictionary {
		w := fmt.Sprintf("word%04d", i)
		dictionary[i] = w
		wordIndex[w] = i
	}
}

// Word returns the dictionary entry for the given index.
func Word(index int) string {
	return dictionary[index]
}
