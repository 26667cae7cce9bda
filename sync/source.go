package sync

import "github.com/tidwall/gjson"

// Source gives path based access to a JSON document.
// Paths are gjson paths and may use the modifiers registered in this package.
type Source struct {
	data gjson.Result
}

func NewSource(json []byte) Source {
	return Source{data: gjson.ParseBytes(json)}
}

func (s Source) Exists() bool {
	return s.data.Exists()
}

func (s Source) StringForPath(path string) (string, bool) {
	result := s.data.Get(path)
	return result.String(), result.Exists() && (result.Value() != nil)
}

func (s Source) IntForPath(path string) (int64, bool) {
	result := s.data.Get(path)
	return result.Int(), result.Exists() && (result.Value() != nil)
}

func (s Source) BoolForPath(path string) (bool, bool) {
	result := s.data.Get(path)
	return result.Bool(), result.Exists() && (result.Value() != nil)
}

// ValueForPath returns the value at path as a string, number or boolean.
// Objects and arrays are returned as their raw JSON text.
func (s Source) ValueForPath(path string) (interface{}, bool) {
	result := s.data.Get(path)
	if !result.Exists() || result.Value() == nil {
		return nil, false
	}
	switch result.Type {
	case gjson.String:
		return result.String(), true
	case gjson.Number:
		if float64(result.Int()) == result.Num {
			return result.Int(), true
		}
		return result.Float(), true
	case gjson.True, gjson.False:
		return result.Bool(), true
	default:
		return result.Raw, true
	}
}
