package timing

import "unicode/utf8"

// Spoken-duration heuristic constants, in seconds.
const (
	baseWordDuration  = 0.3
	perCharDuration   = 0.02
	perVowelSurcharge = 0.05
)

// EstimateWordDuration approximates how long a word takes to speak from its
// length, with a surcharge for each vowel beyond the second as a stand-in
// for syllable count. The estimate is deterministic and monotonic in word
// length: a longer word never receives a shorter estimate, all else equal.
func EstimateWordDuration(word string) float64 {
	duration := baseWordDuration + float64(utf8.RuneCountInString(word))*perCharDuration
	if vowels := countVowels(word); vowels > 2 {
		duration += float64(vowels-2) * perVowelSurcharge
	}
	return duration
}

func countVowels(word string) int {
	n := 0
	for _, r := range word {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			n++
		}
	}
	return n
}
