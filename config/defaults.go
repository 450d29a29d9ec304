package config

import "rewritebot/types"

var defaultSources = []Source{
	{Name: "nos-binnenland", URL: "https://feeds.nos.nl/nosnieuwsbinnenland", Kind: SourceRSS},
	{Name: "nu-algemeen", URL: "https://www.nu.nl/rss/Algemeen", Kind: SourceRSS},
	{Name: "politie-nieuws", URL: "https://www.politie.nl/nieuws", Kind: SourceHTML, LinkSelector: "a[href*='/nieuws/20']"},
}

// Keywords match word prefixes, so "brand" also counts "brandweer".
var defaultRelevanceKeywords = []string{
	"politie", "agent", "wijkagent", "brand", "hulpdienst", "misdrijf", "misdaad",
	"crimin", "verdacht", "aangehouden", "arrestatie", "inbraak", "overval",
	"diefstal", "drugs", "cyber", "phishing", "oplicht", "fraude", "ongeval",
	"aanrijding", "douane", "marechaussee", "recherche", "forensisch", "112",
	"veiligheid", "geweld", "steekpartij", "schietpartij", "explosie",
	"police", "crime", "suspect", "arrested", "emergency",
}

var defaultCategoryKeywords = map[types.Category][]string{
	types.CategoryCrimePrevention: {
		"inbraak", "inbreker", "diefstal", "overval", "preventie", "buurtpreventie",
		"beroving", "zakkenroller", "heling", "burglary", "theft", "robbery",
	},
	types.CategoryTrafficSafety: {
		"verkeer", "aanrijding", "snelheid", "flitser", "rijbewijs", "alcoholcontrole",
		"botsing", "fietser", "snelweg", "bestuurder", "traffic", "speeding", "collision",
	},
	types.CategoryCybercrime: {
		"cyber", "hack", "phishing", "ransomware", "online oplichting", "datalek",
		"malware", "ddos", "helpdeskfraude", "whatsappfraude", "cybercrime",
	},
	types.CategoryDrugEnforcement: {
		"drugs", "drugslab", "cocaine", "hennep", "xtc", "wiet", "heroine",
		"synthetische drugs", "drugshandel", "narcotics",
	},
	types.CategoryEmergencyResponse: {
		"brand", "brandweer", "hulpdiensten", "ambulance", "explosie", "evacuatie",
		"reanimatie", "gewonden", "noodhulp", "traumahelikopter", "blussen",
		"vlammen", "rookontwikkeling", "fire", "emergency", "rescue",
	},
	types.CategoryYouthSafety: {
		"jongeren", "jeugd", "minderjarige", "tiener", "scholieren", "kinderen",
		"jeugdbende", "youth", "minor", "teenager",
	},
	types.CategoryCommunityPolicing: {
		"wijkagent", "buurtbewoners", "bewoners", "handhaving", "boa", "wijkteam",
		"buurtapp", "community", "neighbourhood",
	},
	types.CategoryBorderSecurity: {
		"grens", "douane", "marechaussee", "mensensmokkel", "smokkel", "asiel",
		"paspoort", "border", "customs",
	},
	types.CategoryEnvironmentalCrime: {
		"milieu", "dumping", "drugsafval", "afvaldump", "vervuiling", "stroperij",
		"illegale lozing", "asbest", "environmental", "pollution",
	},
	types.CategoryForensicInvestigation: {
		"forensisch", "sporenonderzoek", "dna", "technische recherche", "sectie",
		"autopsie", "vingerafdruk", "nfi", "forensic", "fingerprint",
	},
}
