// Package attack derives templated, evidence-backed talking points from
// negative and controversy-flagged coverage.
package attack

// Template pairs a trigger phrase with the claim it produces. Patterns
// come in English and Hindi variants; either one matching fires the
// template. Claims interpolate the target leader's name with %s.
type Template struct {
	PatternEN  string
	PatternHI  string
	AttackType string
	ImpactTier string
	ClaimEN    string
	ClaimHI    string
}

// templates is the ordered match list. First match wins, so the most
// damaging patterns sit at the top.
var templates = []Template{
	{
		PatternEN:  "scam",
		PatternHI:  "घोटाला",
		AttackType: "corruption-scandal",
		ImpactTier: "high",
		ClaimEN:    "%s's administration is embroiled in a scam the public is paying for.",
		ClaimHI:    "%s के शासन में घोटाला हुआ है जिसकी कीमत जनता चुका रही है।",
	},
	{
		PatternEN:  "paper leak",
		PatternHI:  "पेपर लीक",
		AttackType: "exam-paper-leak",
		ImpactTier: "high",
		ClaimEN:    "Under %s, recruitment exams cannot be conducted without papers leaking.",
		ClaimHI:    "%s के रहते भर्ती परीक्षाएं पेपर लीक के बिना नहीं हो पातीं।",
	},
	{
		PatternEN:  "bribe",
		PatternHI:  "रिश्वत",
		AttackType: "bribery",
		ImpactTier: "high",
		ClaimEN:    "Nothing moves in %s's constituency without a bribe changing hands.",
		ClaimHI:    "%s के क्षेत्र में बिना रिश्वत कोई काम नहीं होता।",
	},
	{
		PatternEN:  "unemployment",
		PatternHI:  "बेरोजगारी",
		AttackType: "unemployment",
		ImpactTier: "high",
		ClaimEN:    "%s has no answer for the youth left jobless on their watch.",
		ClaimHI:    "%s के पास बेरोजगार युवाओं के लिए कोई जवाब नहीं है।",
	},
	{
		PatternEN:  "farmer",
		PatternHI:  "किसान",
		AttackType: "farmer-distress",
		ImpactTier: "high",
		ClaimEN:    "Farmers in %s's constituency are being abandoned when they need help most.",
		ClaimHI:    "%s के क्षेत्र के किसानों को उनके हाल पर छोड़ दिया गया है।",
	},
	{
		PatternEN:  "pothole",
		PatternHI:  "गड्ढे",
		AttackType: "broken-roads",
		ImpactTier: "medium",
		ClaimEN:    "%s promised roads; the constituency got potholes.",
		ClaimHI:    "%s ने सड़कों का वादा किया था, मिले सिर्फ गड्ढे।",
	},
	{
		PatternEN:  "water crisis",
		PatternHI:  "जल संकट",
		AttackType: "water-crisis",
		ImpactTier: "medium",
		ClaimEN:    "Families under %s still queue for drinking water.",
		ClaimHI:    "%s के राज में लोग आज भी पीने के पानी के लिए लाइन में हैं।",
	},
	{
		PatternEN:  "power cut",
		PatternHI:  "बिजली कटौती",
		AttackType: "power-cuts",
		ImpactTier: "medium",
		ClaimEN:    "Power cuts are the norm in %s's constituency.",
		ClaimHI:    "%s के क्षेत्र में बिजली कटौती आम बात हो गई है।",
	},
	{
		PatternEN:  "hospital",
		PatternHI:  "अस्पताल",
		AttackType: "healthcare-neglect",
		ImpactTier: "medium",
		ClaimEN:    "Healthcare in %s's constituency is collapsing while they look away.",
		ClaimHI:    "%s की अनदेखी से क्षेत्र की स्वास्थ्य व्यवस्था चरमरा गई है।",
	},
	{
		PatternEN:  "protest",
		PatternHI:  "विरोध प्रदर्शन",
		AttackType: "public-anger",
		ImpactTier: "medium",
		ClaimEN:    "People are on the streets against %s, and the anger is growing.",
		ClaimHI:    "%s के खिलाफ लोग सड़कों पर हैं और गुस्सा बढ़ रहा है।",
	},
	{
		PatternEN:  "criticised",
		PatternHI:  "आलोचना",
		AttackType: "general-criticism",
		ImpactTier: "low",
		ClaimEN:    "Even neutral observers are calling out %s's performance.",
		ClaimHI:    "%s के कामकाज पर तटस्थ लोग भी सवाल उठा रहे हैं।",
	},
}
