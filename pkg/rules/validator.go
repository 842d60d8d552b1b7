package rules

import "fmt"

// Field names in the secrets document.
const (
	FieldTokenIn   = "tokenin"
	FieldTokenOut  = "tokenout"
	FieldEndpoints = "endpoints"
)

// ErrRootNotArray is reported when the document root is not a JSON array.
const ErrRootNotArray = "root must be an array"

// Validate turns a decoded secrets document into rules keyed by tokenin.
//
// Every element is checked and every problem is reported; an invalid element
// is skipped. The caller must discard the returned rules when any error is
// reported: a reload is applied in full or not at all.
//
// A later element with the same tokenin replaces an earlier one.
func Validate(raw any) ([]string, map[string]Rule) {
	var errs []string
	rules := make(map[string]Rule)

	items, ok := raw.([]any)
	if !ok {
		return []string{ErrRootNotArray}, rules
	}

	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("item %d: must be an object", i))
			continue
		}

		tokenIn, ok := nonEmptyString(obj[FieldTokenIn])
		if !ok {
			errs = append(errs, fmt.Sprintf("item %d: invalid %s", i, FieldTokenIn))
			continue
		}

		tokenOut, ok := nonEmptyString(obj[FieldTokenOut])
		if !ok {
			errs = append(errs, fmt.Sprintf("item %d: invalid %s", i, FieldTokenOut))
			continue
		}

		endpoints, ok := endpointList(obj[FieldEndpoints])
		if !ok {
			errs = append(errs, fmt.Sprintf("item %d: invalid %s", i, FieldEndpoints))
			continue
		}

		rules[tokenIn] = Rule{
			TokenIn:   tokenIn,
			TokenOut:  tokenOut,
			Endpoints: endpoints,
		}
	}

	return errs, rules
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// endpointList accepts a JSON array whose entries are all non-empty strings.
func endpointList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}

	endpoints := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := nonEmptyString(item)
		if !ok {
			return nil, false
		}
		endpoints = append(endpoints, s)
	}
	return endpoints, true
}
