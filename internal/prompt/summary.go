package prompt

import "strings"

// Marker ends every summary prompt. Models that echo the prompt put their
// continuation after it.
const Marker = "resume-youtube-response :"

var (
	frenchSummary = MustTemplate(
		"Résume la transcription de la vidéo Youtube suivante, en français :\n{{transcript}}\n\n"+Marker,
		"transcript",
	)
	englishSummary = MustTemplate(
		"Summarize the transcription of the following YouTube video in English:\n{{transcript}}\n\n"+Marker,
		"transcript",
	)
)

// ForLang returns the summary template for lang. Anything other than "en"
// gets the French template.
func ForLang(lang string) Template {
	if lang == "en" {
		return englishSummary
	}
	return frenchSummary
}

// BuildSummary embeds the transcript into the template for lang.
func BuildSummary(lang, transcript string) string {
	return ForLang(lang).Render(map[string]string{"transcript": transcript})
}

// ExtractAfterMarker returns the text following the last Marker, trimmed.
// Without a marker the whole text is returned trimmed.
func ExtractAfterMarker(generated string) string {
	if i := strings.LastIndex(generated, Marker); i >= 0 {
		return strings.TrimSpace(generated[i+len(Marker):])
	}
	return strings.TrimSpace(generated)
}
