package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"k8s.io/klog/v2"
)

// ExtractJSON locates the first well-formed JSON object in free text. Model replies are often
// wrapped in prose or ``` fences, and the prose may itself contain braces, so every balanced
// {...} candidate is tried in order until one is valid JSON. ok is false when none is.
func ExtractJSON(content string) (string, bool) {
	for _, obj := range Objects(content) {
		if json.Valid([]byte(obj)) {
			return obj, true
		}
	}
	return "", false
}

// Objects returns every balanced {...} candidate in content, fenced body first, in order of
// their opening brace. Candidates are not validated.
func Objects(content string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(src string) {
		for from := 0; ; {
			obj, start, ok := scanObject(src, from)
			if start == -1 {
				return
			}
			if ok && !seen[obj] {
				seen[obj] = true
				out = append(out, obj)
			}
			from = start + 1
		}
	}
	add(StripCodeFence(content))
	add(content)
	return out
}

// scanObject finds the first '{' at or after from and scans to its matching '}' by brace
// depth, skipping braces inside string literals. start is -1 when there is no '{' left.
func scanObject(content string, from int) (obj string, start int, ok bool) {
	rel := strings.IndexByte(content[from:], '{')
	if rel == -1 {
		return "", -1, false
	}
	start = from + rel
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], start, true
			}
		}
	}
	return "", start, false
}

// StripCodeFence returns the body of the first ``` block, or content unchanged when there is none.
func StripCodeFence(content string) string {
	open := strings.Index(content, "```")
	if open == -1 {
		return content
	}
	body := content[open+3:]
	// drop the info string, e.g. ```json
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	} else {
		return content
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return body
	}
	return body[:end]
}

// DecodeObject decodes the first JSON object in content that is valid, carries at least one of
// keys (when any are given) and unmarshals into v. v is left untouched on failure.
func DecodeObject(content string, v any, keys ...string) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}

	var lastErr error
	for _, obj := range Objects(content) {
		payload := []byte(obj)
		if !json.Valid(payload) || !hasAnyKey(payload, keys) {
			continue
		}
		tmp := reflect.New(rv.Elem().Type())
		if err := json.Unmarshal(payload, tmp.Interface()); err != nil {
			klog.V(6).Infof("[ExtractJSON] candidate rejected, length=%d: %v", len(payload), err)
			lastErr = err
			continue
		}
		rv.Elem().Set(tmp.Elem())
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrNoJSONObject
}

func hasAnyKey(payload []byte, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}
	for _, k := range keys {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

func ToJSON(v any) string {
	jsonData, err := json.Marshal(v)
	if err != nil {
		klog.Errorf("json marshal failed: %v", err)
		return ""
	}
	return string(jsonData)
}

// ErrNoJSONObject is returned by DecodeObject when content holds no usable object.
var ErrNoJSONObject = errors.New("no JSON object found in content")
