package event

import (
	"fmt"
	"strings"
)

// Payload keys read by the candidate rules.
const (
	KeyOutcome         = "outcome"
	KeyInferredSignals = "inferredSignals"
	KeyLines           = "lines"
	KeyDescription     = "description"
	KeyTitle           = "title"
	KeySubject         = "subject"
	KeyBody            = "body"
)

// Outcome returns the ticket outcome code, or "" when absent.
func (e *DomainEvent) Outcome() string {
	return e.str(KeyOutcome)
}

// InferredSignals returns the lower-cased signals attached to a ticket outcome.
// Both JSON arrays and comma-separated strings are accepted.
func (e *DomainEvent) InferredSignals() []string {
	raw, ok := e.Payload[KeyInferredSignals]
	if !ok {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = strings.Split(v, ",")
	}
	for i := range out {
		out[i] = strings.ToLower(strings.TrimSpace(out[i]))
	}
	return out
}

// HasSignal reports whether the named signal is present.
func (e *DomainEvent) HasSignal(name string) bool {
	name = strings.ToLower(name)
	for _, s := range e.InferredSignals() {
		if s == name {
			return true
		}
	}
	return false
}

// InvoiceLines returns the line descriptions of an ingested invoice.
// Lines may be plain strings or objects with a description field.
func (e *DomainEvent) InvoiceLines() []string {
	raw, ok := e.Payload[KeyLines]
	if !ok {
		return nil
	}
	var out []string
	switch v := raw.(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			switch line := item.(type) {
			case string:
				out = append(out, line)
			case map[string]any:
				if d, ok := line[KeyDescription]; ok {
					out = append(out, fmt.Sprint(d))
				}
			}
		}
	case []map[string]any:
		for _, line := range v {
			if d, ok := line[KeyDescription]; ok {
				out = append(out, fmt.Sprint(d))
			}
		}
	}
	return out
}

// PromoTitle returns the title of an ingested promo.
func (e *DomainEvent) PromoTitle() string {
	return e.str(KeyTitle)
}

// EmailText returns subject and body joined by a newline.
func (e *DomainEvent) EmailText() string {
	subject, body := e.str(KeySubject), e.str(KeyBody)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	}
	return subject + "\n" + body
}

func (e *DomainEvent) str(key string) string {
	v, ok := e.Payload[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
