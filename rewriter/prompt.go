package rewriter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

var stylePrompts = map[string]map[string]string{
	"Technical": {
		"Dutch":   "Herschrijf de tekst in het Nederlands in een technische, formele stijl. Gebruik professionele terminologie en gedetailleerde uitleg. Behoud alle belangrijke informatie maar presenteer het professioneel.",
		"English": "Rewrite the text in English in a technical, formal style. Use professional terminology and detailed explanations. Maintain all important information but present it professionally.",
		"German":  "Schreiben Sie den Text auf Deutsch in einem technischen, formalen Stil. Verwenden Sie professionelle Terminologie und detaillierte Erklärungen. Behalten Sie alle wichtigen Informationen bei, aber präsentieren Sie sie professionell.",
	},
	"Normal": {
		"Dutch":   "Herschrijf de tekst in het Nederlands in een standaard nieuwsstijl. Gebruik duidelijke taal en behoud alle belangrijke informatie.",
		"English": "Rewrite the text in English in a standard news style. Use clear language and maintain all important information.",
		"German":  "Schreiben Sie den Text auf Deutsch in einem Standard-Nachrichtenstil. Verwenden Sie klare Sprache und behalten Sie alle wichtigen Informationen bei.",
	},
	"Easy": {
		"Dutch":   "Herschrijf de tekst in het Nederlands in een eenvoudige, begrijpelijke stijl. Gebruik korte zinnen en eenvoudige woorden. Maak het toegankelijk voor iedereen.",
		"English": "Rewrite the text in English in a simple, understandable style. Use short sentences and simple words. Make it accessible to everyone.",
		"German":  "Schreiben Sie den Text auf Deutsch in einem einfachen, verständlichen Stil. Verwenden Sie kurze Sätze und einfache Wörter. Machen Sie es für jeden zugänglich.",
	},
	"Populair": {
		"Dutch":   "Herschrijf de tekst in het Nederlands in een populaire, aantrekkelijke stijl. Gebruik levendige taal, maak het boeiend en toegankelijk voor een breed publiek.",
		"English": "Rewrite the text in English in a popular, attractive style. Use vivid language, make it engaging and accessible to a broad audience.",
		"German":  "Schreiben Sie den Text auf Deutsch in einem populären, attraktiven Stil. Verwenden Sie lebendige Sprache, machen Sie es fesselnd und zugänglich für ein breites Publikum.",
	},
	"News Reader": {
		"Dutch":   "Herschrijf de tekst in het Nederlands in de stijl van een professionele nieuwslezer. Gebruik formele maar toegankelijke taal en een duidelijke structuur. Vermijd jargon.",
		"English": "Rewrite the text in English in the style of a professional news reader. Use formal but accessible language and a clear structure. Avoid jargon.",
		"German":  "Schreiben Sie den Text auf Deutsch im Stil eines professionellen Nachrichtensprechers. Verwenden Sie formale aber zugängliche Sprache und eine klare Struktur. Vermeiden Sie Fachjargon.",
	},
}

// StylePrompt returns the system prompt for style and language, falling
// back to Normal/Dutch for unknown combinations.
func StylePrompt(style, language string) string {
	if byLang, ok := stylePrompts[style]; ok {
		if p, ok := byLang[language]; ok {
			return p
		}
	}
	return stylePrompts["Normal"]["Dutch"]
}

// ValidStyle reports whether style and language have a prompt.
func ValidStyle(style, language string) bool {
	_, ok := stylePrompts[style][language]
	return ok
}

// UserPrompt asks for a structured HTML article. The model must not copy
// sentences verbatim.
func UserPrompt(title, body, style string) string {
	return fmt.Sprintf(
		"Herschrijf dit nieuwsartikel in %s stijl als origineel artikel. Neem geen zinnen letterlijk over.\n"+
			"Gebruik HTML: begin met een <h2>titel</h2>, gebruik <h3> voor tussenkoppen en zet alle tekst in <p>...</p>.\n"+
			"Geef alleen de HTML terug.\n\n"+
			"Titel: %s\n\n%s",
		strings.ToLower(style), title, body)
}

// Truncate cuts s to at most max bytes on a word boundary.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	if i := strings.LastIndexAny(cut, " \n\t"); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
