package otlayout

import (
	"strings"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ISO 15924 script code → OpenType script tag,
// see https://unicode.org/iso15924/iso15924-codes.html
var script2opentype = map[string]string{
	"Zzzz": "DFLT", // unknown
	//
	"Arab": "arab", // Arabic
	"Armn": "armn", // Armenian
	"Beng": "bng2", // Bengali
	"Cyrl": "cyrl", // Cyrillic
	"Deva": "dev2", // Devanagari
	"Geor": "geor", // Georgian
	"Grek": "grek", // Greek
	"Gujr": "gjr2", // Not gujr
	"Guru": "gur2", // Not guru
	"Hang": "hang", // Hangul
	"Hani": "hani", // Han
	"Hebr": "hebr", // Hebrew
	"Hira": "kana", // Hiragana shares 'kana'
	"Knda": "knd2", // Kannada
	"Kana": "kana", // Katakana
	"Laoo": "lao ", // Lao
	"Latn": "latn", // Latin
	"Mlym": "mlm2", // Malayalam
	"Orya": "ory2", // Oriya
	"Taml": "tml2", // Tamil
	"Telu": "tel2", // Telugu
	"Thai": "thai",
	"Tibt": "tibt",
	"Bopo": "bopo",
	"Brai": "brai",
	"Cans": "cans",
	"Cher": "cher",
	"Ethi": "ethi",
	"Khmr": "khmr",
	"Mong": "mong",
	"Mymr": "mym2", // Not mymr
	"Ogam": "ogam",
	"Runr": "runr",
	"Sinh": "sinh",
	"Syrc": "syrc",
	"Thaa": "thaa",
	"Yiii": "yi  ",
	"Dsrt": "dsrt",
	"Goth": "goth",
	"Ital": "ital",
	"Buhd": "buhd",
	"Hano": "hano",
	"Tglg": "tglg",
	"Tagb": "tagb",
	"Cprt": "cprt",
	"Limb": "limb",
	"Linb": "linb",
	"Osma": "osma",
	"Shaw": "shaw",
	"Tale": "tale",
	"Ugar": "ugar",
	"Bugi": "bugi",
	"Copt": "copt",
	"Glag": "glag",
	"Khar": "khar",
	"Talu": "talu",
	"Xpeo": "xpeo",
	"Sylo": "sylo",
	"Tfng": "tfng",
	"Bali": "bali",
	"Xsux": "xsux",
	"Nkoo": "nko ",
	"Phag": "phag",
	"Phnx": "phnx",
	"Cari": "cari",
	"Cham": "cham",
	"Kali": "kali",
	"Lepc": "lepc",
	"Lyci": "lyci",
	"Lydi": "lydi",
	"Olck": "olck",
	"Rjng": "rjng",
	"Saur": "saur",
	"Sund": "sund",
	"Vaii": "vai ",
	"Avst": "avst",
	"Bamu": "bamu",
	"Egyp": "egyp",
	"Armi": "armi",
	"Phli": "phli",
	"Prti": "prti",
	"Java": "java",
	"Kthi": "kthi",
	"Lisu": "lisu",
	"Mtei": "mtei",
	"Sarb": "sarb",
	"Orkh": "orkh",
	"Samr": "samr",
	"Lana": "lana",
	"Tavt": "tavt",
	"Batk": "batk",
	"Brah": "brah",
	"Mand": "mand",
	"Cakm": "cakm",
	"Merc": "merc",
	"Mero": "mero",
	"Plrd": "plrd",
	"Shrd": "shrd",
	"Sora": "sora",
	"Takr": "takr",
	"Bass": "bass",
	"Aghb": "aghb",
	"Dupl": "dupl",
	"Elba": "elba",
	"Gran": "gran",
	"Khoj": "khoj",
	"Sind": "sind",
	"Lina": "lina",
	"Mahj": "mahj",
	"Mani": "mani",
	"Mend": "mend",
	"Modi": "modi",
	"Mroo": "mroo",
	"Nbat": "nbat",
	"Narb": "narb",
	"Perm": "perm",
	"Hmng": "hmng",
	"Palm": "palm",
	"Pauc": "pauc",
	"Phlp": "phlp",
	"Sidd": "sidd",
	"Tirh": "tirh",
	"Wara": "wara",
	"Ahom": "ahom",
	"Hluw": "hluw",
	"Hatr": "hatr",
	"Mult": "mult",
	"Hung": "hung",
	"Sgnw": "sgnw",
	"Adlm": "adlm",
	"Bhks": "bhks",
	"Marc": "marc",
	"Osge": "osge",
	"Tang": "tang",
	"Newa": "newa",
	"Gonm": "gonm",
	"Nshu": "nshu",
	"Soyo": "soyo",
	"Zanb": "zanb",
	"Dogr": "dogr",
	"Gong": "gong",
	"Rohg": "rohg",
	"Maka": "maka",
	"Medf": "medf",
	"Sogo": "sogo",
	"Sogd": "sogd",
	"Elym": "elym",
	"Nand": "nand",
	"Hmnp": "hmnp",
	"Wcho": "wcho",
	"Chrs": "chrs",
	"Diak": "diak",
	"Kits": "kits",
	"Yezi": "yezi",
}

// Script tags of the first generation of Indic shapers. Fonts may still use them.
var legacyScriptTags = map[string]string{
	"beng": "Beng", "deva": "Deva", "gujr": "Gujr", "guru": "Guru", "knda": "Knda",
	"mlym": "Mlym", "orya": "Orya", "taml": "Taml", "telu": "Telu", "mymr": "Mymr",
}

// OpenType script tag → ISO 15924 script code, inverse of script2opentype.
var opentype2script map[ot.Tag]string

// We do support this list of languages.
var supportedLanguages = map[language.Tag]string{
	language.Arabic:     "ARA",
	language.Chinese:    "ZHS",
	language.English:    "ENG",
	language.Greek:      "ELL",
	language.German:     "DEU",
	language.Hebrew:     "IWR",
	language.Japanese:   "JAN",
	language.Portuguese: "PTG",
	language.Romanian:   "ROM",
	language.Russian:    "RUS",
	language.Turkish:    "TRK",
}

// We will try to match user-preferred language against supported languages.
var supportedLanguagesMatcher language.Matcher

func init() {
	opentype2script = make(map[ot.Tag]string, len(script2opentype)+len(legacyScriptTags))
	for iso, otScr := range script2opentype {
		if iso == "Hira" { // 'kana' is Katakana
			continue
		}
		opentype2script[ot.T(otScr)] = iso
	}
	for otScr, iso := range legacyScriptTags {
		opentype2script[ot.T(otScr)] = iso
	}
	// prepare the language matcher with our list of supported languages
	langs := make([]language.Tag, 0, len(supportedLanguages))
	for l := range supportedLanguages {
		langs = append(langs, l)
	}
	supportedLanguagesMatcher = language.NewMatcher(langs)
}

// ScriptTagForScript returns the appropriate OpenType script tag for a given ISO 15924
// script code. It will return the DFLT-tag for unknown or unsupported scripts.
func ScriptTagForScript(script language.Script) ot.Tag {
	if otScr, ok := script2opentype[script.String()]; ok {
		return ot.T(otScr)
	}
	return ot.DFLT
}

// IsKnownScript is a predicate: is tag an OpenType script tag?
// DFLT counts as a script tag.
func IsKnownScript(tag ot.Tag) bool {
	_, ok := opentype2script[tag]
	return ok
}

// ScriptName returns the English name of an OpenType script, e.g. "Latin" for
// 'latn'. Unknown scripts are named by their tag.
func ScriptName(tag ot.Tag) string {
	if tag == ot.DFLT {
		return "Default"
	}
	iso, ok := opentype2script[tag]
	if !ok {
		return strings.TrimRight(tag.String(), " ")
	}
	script, err := language.ParseScript(iso)
	if err != nil {
		return iso
	}
	if name := display.English.Scripts().Name(script); name != "" {
		return name
	}
	return iso
}

// LanguageTagForLanguage returns the appropriate OpenType language tag for a given
// BCP 47 language tag.
// If there is no supported language, that can be matched with confidence of at least `conf`,
// the DFLT-tag will be returned.
func LanguageTagForLanguage(lang language.Tag, conf language.Confidence) ot.Tag {
	l, _, c := supportedLanguagesMatcher.Match(lang)
	tracer().Debugf("OpenType language matched %s (%s) : %s", display.English.Tags().Name(l),
		display.Self.Name(l), c)
	if c < conf { // if matcher's confidence level is not high enough
		return ot.DFLT
	}
	base, _ := language.Compose(l.Base()) // re-package l to cleanly match base language constant
	if ltag, ok := supportedLanguages[base]; ok {
		return ot.T(ltag)
	}
	return ot.DFLT
}

// LanguageName returns the English name of an OpenType language system tag,
// e.g. "German" for 'DEU '. The default language system is named "Default";
// languages not in the list of supported languages are named by their tag.
func LanguageName(tag ot.Tag) string {
	if tag == ot.DFLTLang {
		return "Default"
	}
	name := strings.TrimRight(tag.String(), " ")
	for l, ltag := range supportedLanguages {
		if ltag == name {
			return display.English.Tags().Name(l)
		}
	}
	return name
}
