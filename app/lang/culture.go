package lang

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateOrder is the field order of slash-separated dates.
type DateOrder uint8

const (
	DateMDY DateOrder = iota
	DateDMY
)

// Culture holds everything locale-dependent in the pipeline: number
// punctuation, symbols and the vocabulary recognized in prose.
type Culture struct {
	Name string
	Tag  language.Tag

	DecimalSeparator string
	GroupSeparators  []string // the first one is used for display
	ListSeparator    string

	PercentWords  []string
	PercentSuffix string // appended when displaying a percentage

	// CurrencySymbols maps a symbol or word to an ISO 4217 code.
	CurrencySymbols map[string]string
	// CurrencyDisplay maps an ISO code to the symbol used for display.
	CurrencyDisplay map[string]string
	CurrencyAfter   bool // display the symbol after the amount

	// DurationWords maps a unit word (folded) to a unit.
	DurationWords map[string]DurationUnit
	// DurationNames holds singular and plural display names.
	DurationNames map[DurationUnit][2]string

	DateOrder     DateOrder
	DateSeparator string
	DateLayout    string

	// OperatorWords maps a space-separated phrase (folded) to an operator.
	OperatorWords map[string]BinaryOperatorType

	LineWords []string // words introducing an ordinal line reference
	// ReferenceWords maps words such as "prev" or "sum" to a relative reference.
	ReferenceWords map[string]string

	True, False string
}

// Lang returns the base language of the culture, such as "en".
func (c *Culture) Lang() string {
	base, _ := c.Tag.Base()
	return base.String()
}

// fold returns the case-folded form of s used for vocabulary matching.
// A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

var englishDurations = map[string]DurationUnit{
	"ms": UnitMillisecond, "millisecond": UnitMillisecond, "milliseconds": UnitMillisecond,
	"s": UnitSecond, "sec": UnitSecond, "secs": UnitSecond, "second": UnitSecond, "seconds": UnitSecond,
	"min": UnitMinute, "mins": UnitMinute, "minute": UnitMinute, "minutes": UnitMinute,
	"h": UnitHour, "hr": UnitHour, "hrs": UnitHour, "hour": UnitHour, "hours": UnitHour,
	"d": UnitDay, "day": UnitDay, "days": UnitDay,
	"wk": UnitWeek, "wks": UnitWeek, "week": UnitWeek, "weeks": UnitWeek,
	"mo": UnitMonth, "month": UnitMonth, "months": UnitMonth,
	"yr": UnitYear, "yrs": UnitYear, "year": UnitYear, "years": UnitYear,
}

var englishDurationNames = map[DurationUnit][2]string{
	UnitMillisecond: {"millisecond", "milliseconds"},
	UnitSecond:      {"second", "seconds"},
	UnitMinute:      {"minute", "minutes"},
	UnitHour:        {"hour", "hours"},
	UnitDay:         {"day", "days"},
	UnitWeek:        {"week", "weeks"},
	UnitMonth:       {"month", "months"},
	UnitYear:        {"year", "years"},
}

var englishOperators = map[string]BinaryOperatorType{
	"plus":          OpAddition,
	"and":           OpAddition,
	"minus":         OpSubtraction,
	"times":         OpMultiply,
	"multiplied by": OpMultiply,
	"divided by":    OpDivision,
	"over":          OpDivision,
	"mod":           OpModulo,
}

var englishReferences = map[string]string{
	"prev":     RefPrevious,
	"previous": RefPrevious,
	"sum":      RefSum,
	"total":    RefSum,
	"average":  RefAverage,
	"avg":      RefAverage,
}

func commonCurrencySymbols(extra map[string]string) map[string]string {
	m := map[string]string{
		"€": "EUR", "£": "GBP", "¥": "JPY",
		"usd": "USD", "eur": "EUR", "gbp": "GBP", "jpy": "JPY", "cad": "CAD", "chf": "CHF",
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

var supportedCultures = []*Culture{
	{
		Name:             "en-US",
		Tag:              language.AmericanEnglish,
		DecimalSeparator: ".",
		GroupSeparators:  []string{","},
		ListSeparator:    ",",
		PercentWords:     []string{"percent", "pct"},
		PercentSuffix:    "%",
		CurrencySymbols: commonCurrencySymbols(map[string]string{
			"$": "USD", "dollar": "USD", "dollars": "USD", "euro": "EUR", "euros": "EUR", "yen": "JPY",
		}),
		CurrencyDisplay: map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥"},
		DurationWords:   englishDurations,
		DurationNames:   englishDurationNames,
		DateOrder:       DateMDY,
		DateSeparator:   "/",
		DateLayout:      "1/2/2006",
		OperatorWords:   englishOperators,
		LineWords:       []string{"line"},
		ReferenceWords:  englishReferences,
		True:            "true",
		False:           "false",
	},
	{
		Name:             "en-GB",
		Tag:              language.BritishEnglish,
		DecimalSeparator: ".",
		GroupSeparators:  []string{","},
		ListSeparator:    ",",
		PercentWords:     []string{"percent", "per cent", "pct"},
		PercentSuffix:    "%",
		CurrencySymbols: commonCurrencySymbols(map[string]string{
			"$": "USD", "pound": "GBP", "pounds": "GBP", "quid": "GBP", "euro": "EUR", "euros": "EUR",
		}),
		CurrencyDisplay: map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥"},
		DurationWords:   englishDurations,
		DurationNames:   englishDurationNames,
		DateOrder:       DateDMY,
		DateSeparator:   "/",
		DateLayout:      "02/01/2006",
		OperatorWords:   englishOperators,
		LineWords:       []string{"line"},
		ReferenceWords:  englishReferences,
		True:            "true",
		False:           "false",
	},
	{
		Name:             "fr-FR",
		Tag:              language.French,
		DecimalSeparator: ",",
		GroupSeparators:  []string{"\u202f", "\u00a0", " "},
		ListSeparator:    ";",
		PercentWords:     []string{"pour cent", "pourcent", "pourcents"},
		PercentSuffix:    "\u00a0%",
		CurrencySymbols: commonCurrencySymbols(map[string]string{
			"$": "USD", "euro": "EUR", "euros": "EUR", "dollar": "USD", "dollars": "USD",
		}),
		CurrencyDisplay: map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥"},
		CurrencyAfter:   true,
		DurationWords: map[string]DurationUnit{
			"ms": UnitMillisecond, "milliseconde": UnitMillisecond, "millisecondes": UnitMillisecond,
			"s": UnitSecond, "seconde": UnitSecond, "secondes": UnitSecond,
			"min": UnitMinute, "minute": UnitMinute, "minutes": UnitMinute,
			"h": UnitHour, "heure": UnitHour, "heures": UnitHour,
			"j": UnitDay, "jour": UnitDay, "jours": UnitDay,
			"semaine": UnitWeek, "semaines": UnitWeek,
			"mois": UnitMonth,
			"an":   UnitYear, "ans": UnitYear, "année": UnitYear, "années": UnitYear,
		},
		DurationNames: map[DurationUnit][2]string{
			UnitMillisecond: {"milliseconde", "millisecondes"},
			UnitSecond:      {"seconde", "secondes"},
			UnitMinute:      {"minute", "minutes"},
			UnitHour:        {"heure", "heures"},
			UnitDay:         {"jour", "jours"},
			UnitWeek:        {"semaine", "semaines"},
			UnitMonth:       {"mois", "mois"},
			UnitYear:        {"an", "ans"},
		},
		DateOrder:     DateDMY,
		DateSeparator: "/",
		DateLayout:    "02/01/2006",
		OperatorWords: map[string]BinaryOperatorType{
			"plus":          OpAddition,
			"et":            OpAddition,
			"moins":         OpSubtraction,
			"fois":          OpMultiply,
			"multiplié par": OpMultiply,
			"divisé par":    OpDivision,
			"modulo":        OpModulo,
		},
		LineWords: []string{"ligne"},
		ReferenceWords: map[string]string{
			"précédent": RefPrevious,
			"somme":     RefSum,
			"total":     RefSum,
			"moyenne":   RefAverage,
		},
		True:  "vrai",
		False: "faux",
	},
	{
		Name:             "de-DE",
		Tag:              language.German,
		DecimalSeparator: ",",
		GroupSeparators:  []string{".", "\u00a0"},
		ListSeparator:    ";",
		PercentWords:     []string{"prozent"},
		PercentSuffix:    "\u00a0%",
		CurrencySymbols: commonCurrencySymbols(map[string]string{
			"$": "USD", "euro": "EUR", "dollar": "USD",
		}),
		CurrencyDisplay: map[string]string{"USD": "$", "EUR": "€", "GBP": "£", "JPY": "¥"},
		CurrencyAfter:   true,
		DurationWords: map[string]DurationUnit{
			"ms": UnitMillisecond, "millisekunde": UnitMillisecond, "millisekunden": UnitMillisecond,
			"s": UnitSecond, "sekunde": UnitSecond, "sekunden": UnitSecond,
			"min": UnitMinute, "minute": UnitMinute, "minuten": UnitMinute,
			"h": UnitHour, "std": UnitHour, "stunde": UnitHour, "stunden": UnitHour,
			"tag": UnitDay, "tage": UnitDay, "tagen": UnitDay,
			"woche": UnitWeek, "wochen": UnitWeek,
			"monat": UnitMonth, "monate": UnitMonth, "monaten": UnitMonth,
			"jahr": UnitYear, "jahre": UnitYear, "jahren": UnitYear,
		},
		DurationNames: map[DurationUnit][2]string{
			UnitMillisecond: {"Millisekunde", "Millisekunden"},
			UnitSecond:      {"Sekunde", "Sekunden"},
			UnitMinute:      {"Minute", "Minuten"},
			UnitHour:        {"Stunde", "Stunden"},
			UnitDay:         {"Tag", "Tage"},
			UnitWeek:        {"Woche", "Wochen"},
			UnitMonth:       {"Monat", "Monate"},
			UnitYear:        {"Jahr", "Jahre"},
		},
		DateOrder:     DateDMY,
		DateSeparator: ".",
		DateLayout:    "02.01.2006",
		OperatorWords: map[string]BinaryOperatorType{
			"plus":          OpAddition,
			"und":           OpAddition,
			"minus":         OpSubtraction,
			"mal":           OpMultiply,
			"geteilt durch": OpDivision,
			"modulo":        OpModulo,
		},
		LineWords: []string{"zeile"},
		ReferenceWords: map[string]string{
			"vorherige":    RefPrevious,
			"summe":        RefSum,
			"gesamt":       RefSum,
			"durchschnitt": RefAverage,
		},
		True:  "wahr",
		False: "falsch",
	},
}

var cultureMatcher language.Matcher

func init() {
	tags := make([]language.Tag, len(supportedCultures))
	for i, c := range supportedCultures {
		tags[i] = c.Tag
	}
	cultureMatcher = language.NewMatcher(tags)
}

// SupportedCultures returns the culture table. The first entry is the
// fallback for unknown identifiers.
func SupportedCultures() []*Culture {
	out := make([]*Culture, len(supportedCultures))
	copy(out, supportedCultures)
	return out
}

// LookupCulture resolves any BCP 47 identifier to the closest supported
// culture. Unknown or malformed identifiers fall back to en-US.
func LookupCulture(name string) *Culture {
	for _, c := range supportedCultures {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	tag, err := language.Parse(name)
	if err != nil {
		return supportedCultures[0]
	}
	_, idx, conf := cultureMatcher.Match(tag)
	if conf == language.No {
		return supportedCultures[0]
	}
	return supportedCultures[idx]
}

// operatorPhrases returns the culture's operator phrases split into words,
// longest first.
func (c *Culture) operatorPhrases() [][]string {
	phrases := make([][]string, 0, len(c.OperatorWords))
	for p := range c.OperatorWords {
		phrases = append(phrases, strings.Fields(p))
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return strings.Join(phrases[i], " ") < strings.Join(phrases[j], " ")
	})
	return phrases
}
