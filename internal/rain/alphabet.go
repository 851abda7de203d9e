package rain

// Devanagari is the default glyph alphabet: the independent vowels अ-औ
// followed by the consonants क-ह.
var Devanagari = []string{
	"अ", "आ", "इ", "ई", "उ", "ऊ", "ए", "ऐ", "ओ", "औ",
	"क", "ख", "ग", "घ", "च", "छ", "ज", "झ", "ट", "ठ",
	"ड", "ढ", "त", "थ", "द", "ध", "न", "प", "फ", "ब",
	"भ", "म", "य", "र", "ल", "व", "श", "ष", "स", "ह",
}

// ParseAlphabet splits a configured alphabet string into glyphs, one per
// rune. An empty string yields the default alphabet.
func ParseAlphabet(s string) []string {
	if s == "" {
		return Devanagari
	}
	out := make([]string, 0, len(s))
	for _, r := range s {
		if r == ' ' || r == ',' {
			continue
		}
		out = append(out, string(r))
	}
	if len(out) == 0 {
		return Devanagari
	}
	return out
}
