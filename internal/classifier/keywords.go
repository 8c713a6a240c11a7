// Package classifier scores content items for sentiment, political
// stance, controversy and topics using weighted bilingual keyword
// tables, with an optional AI strategy layered on top.
package classifier

import "github.com/voterpulse/sentinel/internal/domain"

// TableVersion identifies the keyword table revision. Bump it whenever
// the lists change so cached classifications can be invalidated.
const TableVersion = "2025.08-1"

// StanceGroup names an entity or phrase list whose matches indicate a
// political stance label.
type StanceGroup struct {
	Label    string
	Keywords []string
}

// TopicCategory is one topical keyword list. Declaration order in the
// table is the deterministic tie-break for equally scored topics.
type TopicCategory struct {
	Name     string
	Keywords []string
}

// ControversyTier pairs a severity with its phrase list.
type ControversyTier struct {
	Severity domain.Severity
	Keywords []string
}

// KeywordTable is the full lexical rule set for one table version.
// Lists mix English and Hindi terms; the match engine lowercases both
// keywords and text so matching is case-insensitive either way.
type KeywordTable struct {
	Version   string
	Positive  []string
	Negative  []string
	Stances   []StanceGroup
	Tiers     []ControversyTier
	Topics    []TopicCategory
	Protest   []string
	AngerHigh []string
}

// DefaultTable returns the built-in bilingual keyword table.
func DefaultTable() *KeywordTable {
	return &KeywordTable{
		Version: TableVersion,

		Positive: []string{
			"development", "inaugurated", "launched", "welfare", "benefit",
			"improvement", "improved", "success", "successful", "achievement",
			"progress", "growth", "upgraded", "modernized", "expanded",
			"relief", "support", "praised", "welcomed", "appreciated",
			"completed", "commissioned", "scholarship", "employment generated",
			"new hospital", "new school", "new road", "clean", "award",
			"विकास", "उद्घाटन", "लाभ", "सुधार", "सफलता", "प्रगति",
			"राहत", "समर्थन", "प्रशंसा", "स्वागत", "उपलब्धि", "रोजगार मिला",
		},

		Negative: []string{
			"protest", "scam", "corruption", "failure", "failed", "crisis",
			"shortage", "neglect", "neglected", "anger", "angry", "outrage",
			"allegation", "alleged", "fraud", "bribe", "arrested", "raid",
			"lathicharge",
			"strike", "agitation", "demonstration", "blocked", "gherao",
			"unemployment", "jobless", "price rise", "inflation", "scandal",
			"collapse", "collapsed", "death", "died", "injured", "accident",
			"pothole", "potholes", "waterlogging", "garbage", "sewage",
			"power cut", "blackout", "contaminated", "polluted", "encroachment",
			"भ्रष्टाचार", "घोटाला", "विरोध", "प्रदर्शन", "आंदोलन", "हड़ताल",
			"नाराज", "गुस्सा", "आक्रोश", "रिश्वत", "धरना", "घेराव",
			"बेरोजगारी", "महंगाई", "लापरवाही", "गड्ढे", "जलभराव", "बिजली कटौती",
			"किसान कर्ज", "आत्महत्या", "दुर्घटना", "मौत",
		},

		Stances: []StanceGroup{
			{
				Label: "pro-incumbent",
				Keywords: []string{
					"government scheme", "minister announced", "cm announced",
					"flagship scheme", "state government launched",
					"mla inaugurated", "mp inaugurated",
					"सरकारी योजना", "मुख्यमंत्री ने घोषणा", "मंत्री ने घोषणा",
					"विधायक ने उद्घाटन",
				},
			},
			{
				Label: "anti-incumbent",
				Keywords: []string{
					"government failed", "minister resign", "anti-government",
					"opposition attacked", "demand resignation", "failed promise",
					"broken promise", "vote them out", "anti incumbency",
					"सरकार विफल", "इस्तीफा दो", "वादाखिलाफी", "सरकार के खिलाफ",
					"विपक्ष ने घेरा",
				},
			},
		},

		Tiers: []ControversyTier{
			{
				Severity: domain.SeverityCritical,
				Keywords: []string{
					"scam", "paper leak", "custodial death", "riot", "communal violence",
					"rape case", "murder accused", "money laundering", "ed raid",
					"cbi probe", "disqualified", "horse trading",
					"घोटाला", "पेपर लीक", "दंगा", "हिरासत में मौत", "सांप्रदायिक हिंसा",
				},
			},
			{
				Severity: domain.SeverityHigh,
				Keywords: []string{
					"corruption", "bribe", "fraud", "fir registered", "arrested",
					"criminal case", "chargesheet", "extortion", "land grab",
					"illegal mining", "tender manipulation",
					"भ्रष्टाचार", "रिश्वत", "धोखाधड़ी", "गिरफ्तार", "अवैध खनन",
					"जमीन कब्जा",
				},
			},
			{
				Severity: domain.SeverityMedium,
				Keywords: []string{
					"allegation", "controversy", "misconduct", "nepotism",
					"favouritism", "irregularities", "inquiry ordered",
					"show cause notice", "derogatory remark",
					"आरोप", "विवाद", "भाई भतीजावाद", "अनियमितता", "जांच के आदेश",
				},
			},
			{
				Severity: domain.SeverityLow,
				Keywords: []string{
					"criticism", "criticised", "criticized", "questioned",
					"slammed", "objection", "complaint filed", "disappointed",
					"आलोचना", "सवाल उठाए", "शिकायत दर्ज", "निराशा",
				},
			},
		},

		Topics: []TopicCategory{
			{
				Name: "roads-infrastructure",
				Keywords: []string{
					"road", "roads", "pothole", "potholes", "highway", "bridge",
					"flyover", "footpath", "streetlight", "construction delayed",
					"सड़क", "गड्ढे", "पुल", "फ्लाईओवर", "निर्माण",
				},
			},
			{
				Name: "water-supply",
				Keywords: []string{
					"water supply", "drinking water", "water crisis", "tanker",
					"pipeline", "borewell", "waterlogging", "drainage", "sewage",
					"पानी", "जलापूर्ति", "पेयजल", "जल संकट", "जलभराव", "नाली",
				},
			},
			{
				Name: "electricity",
				Keywords: []string{
					"electricity", "power cut", "power outage", "blackout",
					"transformer", "voltage", "electricity bill", "load shedding",
					"बिजली", "बिजली कटौती", "ट्रांसफार्मर", "बिजली बिल",
				},
			},
			{
				Name: "employment",
				Keywords: []string{
					"unemployment", "jobless", "job loss", "recruitment",
					"vacancy", "exam", "paper leak", "layoff", "factory closed",
					"बेरोजगारी", "नौकरी", "भर्ती", "परीक्षा", "पेपर लीक", "रोजगार",
				},
			},
			{
				Name: "corruption",
				Keywords: []string{
					"corruption", "scam", "bribe", "fraud", "kickback",
					"embezzlement", "tender", "black money",
					"भ्रष्टाचार", "घोटाला", "रिश्वत", "धोखाधड़ी", "कमीशनखोरी",
				},
			},
			{
				Name: "health",
				Keywords: []string{
					"hospital", "doctor", "medicine", "ambulance", "health centre",
					"health center", "epidemic", "dengue", "oxygen", "icu",
					"अस्पताल", "डॉक्टर", "दवा", "एंबुलेंस", "स्वास्थ्य", "डेंगू",
				},
			},
			{
				Name: "education",
				Keywords: []string{
					"school", "college", "teacher", "students", "classroom",
					"midday meal", "fees", "university", "scholarship",
					"स्कूल", "कॉलेज", "शिक्षक", "छात्र", "फीस", "छात्रवृत्ति",
				},
			},
			{
				Name: "agriculture",
				Keywords: []string{
					"farmer", "farmers", "crop", "msp", "mandi", "fertilizer",
					"irrigation", "crop insurance", "loan waiver", "drought",
					"किसान", "फसल", "खाद", "सिंचाई", "कर्ज माफी", "सूखा", "मंडी",
				},
			},
			{
				Name: "law-order",
				Keywords: []string{
					"police", "crime", "theft", "robbery", "murder", "assault",
					"kidnapping", "fir", "goonda", "safety of women",
					"पुलिस", "अपराध", "चोरी", "लूट", "हत्या", "अपहरण", "गुंडागर्दी",
				},
			},
			{
				Name: "price-rise",
				Keywords: []string{
					"price rise", "inflation", "lpg price", "petrol price",
					"diesel price", "vegetable prices", "costly", "expensive",
					"महंगाई", "दाम बढ़े", "पेट्रोल", "डीजल", "रसोई गैस",
				},
			},
		},

		Protest: []string{
			"protest", "demonstration", "dharna", "gherao", "rally against",
			"road blockade", "chakka jam", "strike", "agitation", "march",
			"slogans against", "effigy", "hunger strike",
			"विरोध प्रदर्शन", "धरना", "घेराव", "चक्का जाम", "हड़ताल",
			"आंदोलन", "पुतला", "भूख हड़ताल", "नारेबाजी",
		},

		AngerHigh: []string{
			"outrage", "furious", "fury", "violent", "clash", "stone pelting",
			"effigy burnt", "boiling", "erupted", "mob",
			"आक्रोश", "उग्र", "हिंसक", "झड़प", "पथराव", "पुतला फूंका",
		},
	}
}
