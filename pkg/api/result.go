package api

import (
	"encoding/json"
	"fmt"
)

// Result is the unwrapped payload of a successful call.
type Result struct {
	Kind Kind
	// Raw holds the JSON payload for every kind except KindText.
	Raw json.RawMessage
	// Text holds the body of a KindText reply.
	Text string
}

// Decode stores the payload in v. Text replies decode into *string or *[]byte directly and are
// otherwise parsed as JSON.
func (r *Result) Decode(v any) error {
	if r == nil || v == nil {
		return nil
	}
	if r.Kind == KindText {
		switch dst := v.(type) {
		case *string:
			*dst = r.Text
			return nil
		case *[]byte:
			*dst = []byte(r.Text)
			return nil
		}
		if err := json.Unmarshal([]byte(r.Text), v); err != nil {
			return fmt.Errorf("decode text reply into %T: %w", v, err)
		}
		return nil
	}
	if dst, ok := v.(*json.RawMessage); ok {
		*dst = append((*dst)[:0], r.Raw...)
		return nil
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("decode %s reply into %T: %w", r.Kind, v, err)
	}
	return nil
}

// String returns the payload as text: the body of a text reply or the JSON encoding otherwise.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	if r.Kind == KindText {
		return r.Text
	}
	return string(r.Raw)
}

// As decodes the result of a dispatcher call into T.
//
//	storages, err := api.As[[]drive.Storage](c.Get(ctx, "/api/storage/all"))
func As[T any](res *Result, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := res.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
