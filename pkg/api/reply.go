package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SuccessCode is the envelope code that marks a successful call.
const SuccessCode = 200

const jsonContentType = "application/json"

// Kind tags the shape of a successful reply.
type Kind int

const (
	// KindEnvelope is a {code, message, data} reply; the payload is data.
	KindEnvelope Kind = iota + 1
	// KindArray is a bare JSON array returned verbatim.
	KindArray
	// KindValue is any other JSON value without a code field, returned verbatim.
	KindValue
	// KindText is a non-JSON body returned as text.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindEnvelope:
		return "envelope"
	case KindArray:
		return "array"
	case KindValue:
		return "value"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// reply is the classified body of a 2xx exchange.
type reply struct {
	kind     Kind
	raw      json.RawMessage
	text     string
	envelope envelope
}

type envelope struct {
	code    json.RawMessage
	message json.RawMessage
	data    json.RawMessage
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), jsonContentType)
}

// classify decodes a 2xx body into one of the reply variants. It performs no I/O.
func classify(contentType string, body []byte) (reply, error) {
	if !isJSON(contentType) {
		return reply{kind: KindText, text: string(body)}, nil
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return reply{kind: KindText}, nil
	}

	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return reply{}, fmt.Errorf("decode response: %w", err)
		}
		code, ok := fields["code"]
		if !ok {
			return reply{kind: KindValue, raw: json.RawMessage(trimmed)}, nil
		}
		return reply{
			kind: KindEnvelope,
			raw:  json.RawMessage(trimmed),
			envelope: envelope{
				code:    code,
				message: fields["message"],
				data:    fields["data"],
			},
		}, nil
	case '[':
		if err := json.Unmarshal(trimmed, new(json.RawMessage)); err != nil {
			return reply{}, fmt.Errorf("decode response: %w", err)
		}
		return reply{kind: KindArray, raw: json.RawMessage(trimmed)}, nil
	default:
		if err := json.Unmarshal(trimmed, new(json.RawMessage)); err != nil {
			return reply{}, fmt.Errorf("decode response: %w", err)
		}
		return reply{kind: KindValue, raw: json.RawMessage(trimmed)}, nil
	}
}

// resolve maps a classified reply to the caller's result or an envelope failure.
func resolve(r reply) (*Result, error) {
	switch r.kind {
	case KindEnvelope:
		env := r.envelope
		if truthy(env.code) && !isSuccessCode(env.code) {
			return nil, &EnvelopeError{Code: codeValue(env.code), Message: messageText(env.message)}
		}
		data := env.data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		return &Result{Kind: KindEnvelope, Raw: data}, nil
	case KindArray, KindValue:
		return &Result{Kind: r.kind, Raw: r.raw}, nil
	case KindText:
		return &Result{Kind: KindText, Text: r.text}, nil
	default:
		return nil, fmt.Errorf("unknown reply kind %d", r.kind)
	}
}

// truthy reports whether a JSON value would be considered set: null, false, 0 and "" are not.
func truthy(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	switch trimmed {
	case "", "null", "false", `""`:
		return false
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f != 0
	}
	return true
}

func isSuccessCode(raw json.RawMessage) bool {
	var code float64
	if err := json.Unmarshal(raw, &code); err != nil {
		return false
	}
	return code == SuccessCode
}

func codeValue(raw json.RawMessage) int {
	var code float64
	if err := json.Unmarshal(raw, &code); err != nil {
		return 0
	}
	return int(code)
}

func messageText(raw json.RawMessage) string {
	if !truthy(raw) {
		return fallbackMessage
	}
	var message string
	if err := json.Unmarshal(raw, &message); err == nil {
		return message
	}
	return strings.TrimSpace(string(raw))
}
