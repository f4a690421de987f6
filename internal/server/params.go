package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

const maxMultipartMemory = 32 << 20

// Params merges the query string and body fields of r into one map. Body
// fields win on key collision. Only the first value of a repeated key is
// used. A body that can't be decoded is reported as an error; the query
// parameters are still returned.
func Params(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)
	mergeValues(params, r.URL.Query())

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "application/json":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return params, fmt.Errorf("read body: %w", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return params, nil
		}
		fields, err := jsonFields(data)
		if err != nil {
			return params, fmt.Errorf("decode json body: %w", err)
		}
		for k, v := range fields {
			params[k] = v
		}
	case "application/x-www-form-urlencoded":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return params, fmt.Errorf("read body: %w", err)
		}
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return params, fmt.Errorf("decode form body: %w", err)
		}
		mergeValues(params, values)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return params, fmt.Errorf("decode multipart body: %w", err)
		}
		mergeValues(params, r.MultipartForm.Value)
	}

	return params, nil
}

var errNotObject = errors.New("not a JSON object")

func mergeValues(dst map[string]string, values map[string][]string) {
	for k, vs := range values {
		if len(vs) > 0 {
			dst[k] = vs[0]
		}
	}
}

// jsonFields flattens a JSON object one level deep. Strings are used as is,
// numbers and booleans in their literal form, null as "", and nested arrays
// or objects as compact JSON.
func jsonFields(data []byte) (map[string]string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errNotObject
		}
		return nil, err
	}

	fields := make(map[string]string, len(obj))
	for k, raw := range obj {
		fields[k] = jsonScalar(raw)
	}
	return fields, nil
}

func jsonScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 'n':
		return ""
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return string(raw)
		}
		return buf.String()
	case 't', 'f':
		b, err := strconv.ParseBool(string(raw))
		if err != nil {
			return string(raw)
		}
		return strconv.FormatBool(b)
	default:
		return string(raw)
	}
}
