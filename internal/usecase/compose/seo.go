package compose

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SEOReport approximates the scores the Yoast WordPress plugin would
// assign, so maintenance can pick out weak posts without calling the
// remote site's analysis.
type SEOReport struct {
	// SEOScore rates keyphrase usage and structure, 0-100.
	SEOScore int

	// ReadabilityScore rates sentence and paragraph length, 0-100.
	ReadabilityScore int
}

// AnalyzeSEO scores an article body against its focus keyphrase.
func AnalyzeSEO(contentHTML, keyphrase, title, metaDescription string) SEOReport {
	return SEOReport{
		SEOScore:         seoScore(contentHTML, keyphrase, title, metaDescription),
		ReadabilityScore: readabilityScore(contentHTML),
	}
}

func seoScore(contentHTML, keyphrase, title, metaDescription string) int {
	keyphrase = strings.ToLower(strings.TrimSpace(keyphrase))
	if keyphrase == "" {
		return 0
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return 0
	}

	text := strings.ToLower(doc.Text())
	score := 0

	if strings.Contains(strings.ToLower(title), keyphrase) {
		score += 10
	}

	firstParagraph := strings.ToLower(doc.Find("p").First().Text())
	if strings.Contains(firstParagraph, keyphrase) {
		score += 10
	}

	wordCount := len(strings.Fields(text))
	keyphraseCount := strings.Count(text, keyphrase)
	if wordCount > 0 {
		density := float64(keyphraseCount) / float64(wordCount) * 100
		switch {
		case density >= 0.5 && density <= 3:
			score += 20
		case density > 0:
			score += 10
		}
	}

	switch {
	case wordCount >= 300:
		score += 20
	case wordCount >= 200:
		score += 10
	}

	if len(metaDescription) >= 120 && len(metaDescription) <= 160 {
		score += 10
	}
	if strings.Contains(strings.ToLower(metaDescription), keyphrase) {
		score += 5
	}

	switch {
	case len(title) >= 30 && len(title) <= 60:
		score += 15
	case len(title) < 60:
		score += 10
	}

	if doc.Find("h2, h3").Length() > 0 {
		score += 10
	}
	if doc.Find("a[href]").Length() > 0 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

func readabilityScore(contentHTML string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return 0
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return 0
	}

	score := 0

	sentences := strings.Split(text, ".")
	totalWords := 0
	for _, s := range sentences {
		totalWords += len(strings.Fields(s))
	}
	avgSentenceLength := float64(totalWords) / float64(len(sentences))
	switch {
	case avgSentenceLength <= 20:
		score += 30
	case avgSentenceLength <= 25:
		score += 20
	default:
		score += 10
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() > 0 {
		short := 0
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			if len(strings.Fields(p.Text())) <= 150 {
				short++
			}
		})
		ratio := float64(short) / float64(paragraphs.Length())
		switch {
		case ratio >= 0.7:
			score += 30
		case ratio >= 0.5:
			score += 20
		}
	}

	if score > 100 {
		score = 100
	}
	return score
}
