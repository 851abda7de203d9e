package classify

// Labels are the 46 Devanagari classes in training order: the sorted
// dataset directories yield ञ-ध, क, न-ह, the conjuncts क्ष त्र ज्ञ, then
// ग-झ and the digits ०-९.
var Labels = []string{
	"ञ", "ट", "ठ", "ड", "ढ", "ण", "त", "थ", "द", "ध",
	"क", "न", "प", "फ", "ब", "भ", "म", "य", "र", "ल",
	"व", "ख", "श", "ष", "स", "ह",
	"क्ष", "त्र", "ज्ञ",
	"ग", "घ", "ङ", "च", "छ", "ज", "झ",
	"०", "१", "२", "३", "४", "५", "६", "७", "८", "९",
}

// labelsFor names classes found as dataset directories. A full 46-class
// dataset maps onto Labels; anything else keeps its directory names.
func labelsFor(dirs []string) []string {
	if len(dirs) == len(Labels) {
		out := make([]string, len(Labels))
		copy(out, Labels)
		return out
	}
	out := make([]string, len(dirs))
	copy(out, dirs)
	return out
}
