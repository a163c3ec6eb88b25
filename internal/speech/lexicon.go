package speech

// DefaultFillerWords is the Spanish classroom filler lexicon. Deployments
// analyzing other locales override it via the SPEECH_FILLER_WORDS setting.
var DefaultFillerWords = []string{
	"eh", "este", "esto", "um", "uh", "mm", "hmm", "bueno", "o sea",
	"entonces", "pues", "como", "verdad", "no", "si", "claro",
	"emmm", "eeeh", "aaa", "eee",
}
