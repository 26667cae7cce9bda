package sync

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/biter777/countries"
	"github.com/tidwall/gjson"
	"github.com/ttacon/libphonenumber"
)

// Modifiers usable in the hull_field_name of an attribute mapping, e.g.
//
//	traits_address_country|@countryName
//	traits_phone|@e164:44
//	tags|@contains:vip
func init() {

	gjson.AddModifier("contains", func(json, arg string) string {
		found := false
		gjson.Parse(json).ForEach(func(_, v gjson.Result) bool {
			found = strings.Contains(v.String(), arg)
			return !found
		})
		return strconv.FormatBool(found)
	})

	gjson.AddModifier("e164", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() || res.Type == gjson.Null {
			return ""
		}
		number := strings.TrimSpace(res.String())
		if number == "" {
			return ""
		}
		region := "ZZ" // unknown region, the number must then carry a +<country code>
		if i, err := strconv.Atoi(strings.TrimPrefix(arg, "+")); err == nil {
			region = libphonenumber.GetRegionCodeForCountryCode(i)
		}
		num, err := libphonenumber.Parse(number, region)
		if err != nil {
			return ""
		}
		return quoteJSON(libphonenumber.Format(num, libphonenumber.E164))
	})

	gjson.AddModifier("countryName", func(json, arg string) string {
		// accepts alpha-2, alpha-3 or an english name
		if c := countries.ByName(gjson.Parse(json).String()); c != countries.Unknown {
			return quoteJSON(c.String())
		}
		return ""
	})

	gjson.AddModifier("gte", func(json, arg string) string {
		res := gjson.Parse(json)
		if !res.Exists() || arg == "" {
			return ""
		}
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return ""
		}
		return strconv.FormatBool(res.Float() >= f)
	})

	gjson.AddModifier("lower", func(json, arg string) string {
		res := gjson.Parse(json)
		if res.Type != gjson.String {
			return json
		}
		return quoteJSON(strings.ToLower(res.String()))
	})

}

func quoteJSON(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b)
}
