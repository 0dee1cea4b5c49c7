// Package validation provides Laravel-style rule validation for flat string
// inputs: catalog entries and HTTP query parameters.
//
// # Basic Usage
//
//	v := validation.Make(map[string]string{
//	    "id":   "CacheModule",
//	    "kind": "on_property",
//	}, validation.Rules{
//	    "id":   "required|identifier|max:128",
//	    "kind": "required|in:on_property,on_profile,on_missing,fixed",
//	})
//
//	if err := v.Validate(); err != nil {
//	    // err is *Errors; JSON: {"errors": {"field": ["message"]}}
//	}
//
// Fields are checked in name order and each field stops at its first failing
// rule.
//
// # Available Rules
//
//   - required      : field must be present and non-empty
//   - nullable      : an empty value skips the remaining rules
//   - sometimes     : alias of nullable
//   - identifier    : letter or underscore, then letters, digits and . _ : / -
//   - alpha_dash    : letters, numbers, dashes and underscores
//   - integer       : parses as an int
//   - boolean       : parses with strconv.ParseBool
//   - min:n, max:n  : UTF-8 length bounds
//   - in:a,b,c      : one of the listed values
//   - not_in:a,b    : none of the listed values
//   - gte:n         : numeric lower bound
//   - regex:pattern : matches the pattern
package validation
