package frontmatter

import "time"

// Typed accessors over the front-matter mapping. Each returns the zero
// value and false when the key is absent or has an incompatible type;
// callers that need to distinguish the two inspect Fields directly.

func (d *Doc) String(key string) (string, bool) {
	v, ok := d.Fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (d *Doc) Int(key string) (int, bool) {
	switch v := d.Fields[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

func (d *Doc) Bool(key string) (bool, bool) {
	v, ok := d.Fields[key].(bool)
	return v, ok
}

// Time reads a date field. yaml.v3 resolves ISO timestamps to time.Time
// on its own; quoted dates arrive as strings and are parsed here.
func (d *Doc) Time(key string) (time.Time, bool) {
	switch v := d.Fields[key].(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func (d *Doc) Strings(key string) ([]string, bool) {
	switch v := d.Fields[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
