package tanks

import (
	"strings"

	ww "github.com/CRSilkworth/waterworks"
)

// stringMap builds a tank that applies fn to every string element,
// recording the original value in diff wherever fn changed it so pump
// can restore it exactly. lower_case, half_width, lemmatize and
// replace_substring are all this shape
// (original_source/.../tank_defs.py).
func stringMap(w *ww.Waterwork, kind string, strs any, fn func(string) string, extraArgs map[string]ww.Value, opts ...ww.TankOption) (*ww.Tank, error) {
	ds, err := describe(strs)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeString}

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["strings"])
		if err != nil {
			return nil, err
		}
		targetData := make([]any, arr.Len())
		diffData := make([]any, arr.Len())
		for i, v := range arr.Data {
			s, _ := v.(string)
			out := fn(s)
			targetData[i] = out
			if out != s {
				diffData[i] = s
			} else {
				diffData[i] = ""
			}
		}
		targetArr, err := ww.NewArray(arr.Shape, ww.DtypeString, targetData)
		if err != nil {
			return nil, err
		}
		diffArr, err := ww.NewArray(arr.Shape, ww.DtypeString, diffData)
		if err != nil {
			return nil, err
		}
		out := map[string]ww.Value{"target": ww.ArrayVal(targetArr), "diff": ww.ArrayVal(diffArr)}
		for k, v := range extraArgs {
			out[k] = v
		}
		return out, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		diffArr, err := arrayOf(outs["diff"])
		if err != nil {
			return nil, err
		}
		data := make([]any, targetArr.Len())
		for i := range data {
			if d, _ := diffArr.Data[i].(string); d != "" {
				data[i] = d
			} else {
				data[i] = targetArr.Data[i]
			}
		}
		arr, err := ww.NewArray(targetArr.Shape, ww.DtypeString, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"strings": ww.ArrayVal(arr)}, nil
	}
	tubeDescs := map[string]ww.Descriptor{"target": target, "diff": {Type: ww.ValTypeArray, Dtype: ww.DtypeString}}
	for k := range extraArgs {
		tubeDescs[k] = ww.Descriptor{Type: ww.ValTypeScalarString}
	}
	return build(w, kind,
		map[string]ww.Descriptor{"strings": ds},
		tubeDescs,
		map[string]any{"strings": strs},
		pour, pump, opts...,
	)
}

// LowerCase builds a tank lower-casing every string element.
func LowerCase(w *ww.Waterwork, strs any, opts ...ww.TankOption) (*ww.Tank, error) {
	return stringMap(w, "lower_case", strs, strings.ToLower, nil, opts...)
}

// halfWidthFold maps full-width ASCII forms (U+FF01-U+FF5E) to their
// half-width (plain ASCII) equivalents, the standard fixed offset
// (0xFEE0) used for this normalization.
func halfWidthFold(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 0xFF01 && r <= 0xFF5E {
			out = append(out, r-0xFEE0)
		} else if r == 0x3000 {
			out = append(out, ' ')
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}

// HalfWidth builds a tank converting full-width characters to their
// half-width equivalents.
func HalfWidth(w *ww.Waterwork, strs any, opts ...ww.TankOption) (*ww.Tank, error) {
	return stringMap(w, "half_width", strs, halfWidthFold, nil, opts...)
}

// Lemmatizer reduces a single word to its lemma (root form).
type Lemmatizer func(string) string

// Lemmatize builds a tank replacing each string with lemmatizer(s).
func Lemmatize(w *ww.Waterwork, strs any, lemmatizer Lemmatizer, opts ...ww.TankOption) (*ww.Tank, error) {
	return stringMap(w, "lemmatize", strs, func(s string) string { return lemmatizer(s) }, nil, opts...)
}

// ReplaceSubstring builds a tank replacing every occurrence of old with
// replacement in each string element.
func ReplaceSubstring(w *ww.Waterwork, strs any, old, replacement string, opts ...ww.TankOption) (*ww.Tank, error) {
	extra := map[string]ww.Value{"old_substring": ww.Str(old), "new_substring": ww.Str(replacement)}
	return stringMap(w, "replace_substring", strs, func(s string) string { return strings.ReplaceAll(s, old, replacement) }, extra, opts...)
}

// Tokenizer splits a string into tokens.
type Tokenizer func(string) []string

// Tokenize builds a tank splitting each string into at most maxLen
// tokens, produced as a [n, maxLen] string array padded with "".
// Tokens beyond maxLen are preserved joined by delimiter in diff so
// pump can reconstruct the full token stream
// (original_source/.../tank_defs.py's tokenize).
func Tokenize(w *ww.Waterwork, strs any, tokenizer Tokenizer, maxLen int, delimiter string, opts ...ww.TankOption) (*ww.Tank, error) {
	ds, err := describe(strs)
	if err != nil {
		return nil, err
	}
	target := ww.Descriptor{Type: ww.ValTypeArray, Dtype: ww.DtypeString}

	pour := func(ins map[string]ww.Value) (map[string]ww.Value, error) {
		arr, err := arrayOf(ins["strings"])
		if err != nil {
			return nil, err
		}
		n := arr.Len()
		outShape := append(append([]int(nil), arr.Shape...), maxLen)
		targetData := make([]any, n*maxLen)
		diffData := make([]any, n)
		for i, v := range arr.Data {
			s, _ := v.(string)
			tokens := tokenizer(s)
			kept := tokens
			overflow := []string{}
			if len(tokens) > maxLen {
				kept = tokens[:maxLen]
				overflow = tokens[maxLen:]
			}
			for j := 0; j < maxLen; j++ {
				if j < len(kept) {
					targetData[i*maxLen+j] = kept[j]
				} else {
					targetData[i*maxLen+j] = ""
				}
			}
			if len(overflow) > 0 {
				diffData[i] = delimiter + strings.Join(overflow, delimiter)
			} else {
				diffData[i] = ""
			}
		}
		targetArr, err := ww.NewArray(outShape, ww.DtypeString, targetData)
		if err != nil {
			return nil, err
		}
		diffArr, err := ww.NewArray(arr.Shape, ww.DtypeString, diffData)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{
			"target":    ww.ArrayVal(targetArr),
			"diff":      ww.ArrayVal(diffArr),
			"delimiter": ww.Str(delimiter),
		}, nil
	}
	pump := func(outs map[string]ww.Value) (map[string]ww.Value, error) {
		targetArr, err := arrayOf(outs["target"])
		if err != nil {
			return nil, err
		}
		diffArr, err := arrayOf(outs["diff"])
		if err != nil {
			return nil, err
		}
		delim, _ := outs["delimiter"].Raw.(string)
		origShape := targetArr.Shape[:len(targetArr.Shape)-1]
		n := shapeLen(origShape)
		data := make([]any, n)
		for i := 0; i < n; i++ {
			row := targetArr.Data[i*maxLen : i*maxLen+maxLen]
			var kept []string
			for _, v := range row {
				s, _ := v.(string)
				if s == "" {
					continue
				}
				kept = append(kept, s)
			}
			text := strings.Join(kept, delim)
			if d, _ := diffArr.Data[i].(string); d != "" {
				text += d
			}
			data[i] = text
		}
		arr, err := ww.NewArray(origShape, ww.DtypeString, data)
		if err != nil {
			return nil, err
		}
		return map[string]ww.Value{"strings": ww.ArrayVal(arr)}, nil
	}
	return build(w, "tokenize",
		map[string]ww.Descriptor{"strings": ds},
		map[string]ww.Descriptor{"target": target, "diff": {Type: ww.ValTypeArray, Dtype: ww.DtypeString}, "delimiter": {Type: ww.ValTypeScalarString}},
		map[string]any{"strings": strs},
		pour, pump, opts...,
	)
}
