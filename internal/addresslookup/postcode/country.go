package postcode

import (
	"strconv"
	"strings"
)

const (
	England         = "England"
	Scotland        = "Scotland"
	Wales           = "Wales"
	NorthernIreland = "Northern Ireland"
	IsleOfMan       = "Isle of Man"
	ChannelIslands  = "Channel Islands"
)

var areaCountry = map[string]string{
	"AB": Scotland, "DD": Scotland, "DG": Scotland, "EH": Scotland,
	"FK": Scotland, "G": Scotland, "HS": Scotland, "IV": Scotland,
	"KA": Scotland, "KW": Scotland, "KY": Scotland, "ML": Scotland,
	"PA": Scotland, "PH": Scotland, "TD": Scotland, "ZE": Scotland,

	"CF": Wales, "LD": Wales, "LL": Wales, "NP": Wales, "SA": Wales,

	"BT": NorthernIreland,
	"IM": IsleOfMan,
	"GY": ChannelIslands,
	"JE": ChannelIslands,
}

// Border districts whose country differs from their area.
var districtCountry = map[string]string{
	"CH5": Wales, "CH6": Wales, "CH7": Wales, "CH8": Wales,
	"SY15": Wales, "SY16": Wales, "SY17": Wales, "SY18": Wales,
	"SY19": Wales, "SY20": Wales, "SY21": Wales, "SY22": Wales,
	"SY23": Wales, "SY24": Wales, "SY25": Wales,
	"TD15": England,
}

// Country resolves the country of a normalised postcode from its outward code.
// Postcodes outside the known areas resolve to England.
func Country(normalized string) string {
	outward, _, _ := strings.Cut(normalized, " ")
	if outward == "GIR" {
		return England
	}
	area := leadingLetters(outward)
	if c, ok := districtCountry[area+districtNumber(outward[len(area):])]; ok {
		return c
	}
	if c, ok := areaCountry[area]; ok {
		return c
	}
	return England
}

func leadingLetters(s string) string {
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	return s[:i]
}

// districtNumber drops a trailing sub-district letter, e.g. "1A" -> "1".
func districtNumber(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}
