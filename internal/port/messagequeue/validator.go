package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target any
	switch subject {
	case SubjectEventsDomain:
		var p DomainEventPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.Event == nil || p.Event.Type == "" {
			return fmt.Errorf("schema validation failed for %s: event.type is required", subject)
		}
		return nil
	case SubjectActionTasks:
		target = &TaskPayload{}
	case SubjectActionDrafts:
		target = &DraftPayload{}
	case SubjectAuditRecords:
		target = &AuditPayload{}
	case SubjectHandoffsRequest:
		target = &HandoffRequestPayload{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
