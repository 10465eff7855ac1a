package signature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// ErrUnsupportedPayload is returned for bodies that cannot be mapped to a
// key/value payload.
var ErrUnsupportedPayload = errors.New("signature: unsupported payload")

// PayloadFromRequest 从请求中提取签名参数：query 参数与请求体合并，请求体优先。
// JSON bodies must be objects and are decoded with UseNumber so numbers keep
// their original digits. The body is restored for downstream readers.
func PayloadFromRequest(req *http.Request) (Payload, error) {
	payload := Payload{}
	mergeValues(payload, req.URL.Query())

	if req.Body == nil || req.Body == http.NoBody {
		return payload, nil
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))

	if len(bytes.TrimSpace(body)) == 0 {
		return payload, nil
	}

	mediaType := ""
	if ct := req.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err = mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
		}
	}

	switch mediaType {
	case "", "application/json":
		fields, err := decodeJSONObject(body)
		if err != nil {
			return nil, err
		}
		for k, v := range fields {
			payload[k] = v
		}
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPayload, err)
		}
		mergeValues(payload, values)
	default:
		return nil, fmt.Errorf("%w: content type %s", ErrUnsupportedPayload, mediaType)
	}

	return payload, nil
}

func decodeJSONObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %v", ErrUnsupportedPayload, err)
	}
	return fields, nil
}

func mergeValues(payload Payload, values url.Values) {
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			payload[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			payload[k] = list
		}
	}
}
