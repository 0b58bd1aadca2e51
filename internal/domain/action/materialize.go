package action

import (
	"fmt"
	"math"
	"time"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
)

// TaskKind is the kind of internal work a task represents.
type TaskKind string

const (
	KindPrepareQuote   TaskKind = "prepare-quote"
	KindCrossSellCall  TaskKind = "cross-sell-call"
	KindCustomerCare   TaskKind = "customer-care"
	KindCampaignReview TaskKind = "campaign-review"
	KindContentReview  TaskKind = "content-review"
	KindFollowup       TaskKind = "followup"
)

var kindByType = map[Type]TaskKind{
	TypeQuote:        KindPrepareQuote,
	TypeCrossSell:    KindCrossSellCall,
	TypeCustomerCare: KindCustomerCare,
	TypeCampaign:     KindCampaignReview,
	TypeContent:      KindContentReview,
	TypeFollowup:     KindFollowup,
}

// KindFor returns the task kind for an action type.
func KindFor(t Type) TaskKind {
	if k, ok := kindByType[t]; ok {
		return k
	}
	return KindFollowup
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
	TaskDone TaskStatus = "done"
)

// TaskItem is internal work for an operator.
type TaskItem struct {
	ID           string     `json:"id"`
	CandidateID  string     `json:"candidate_id"`
	Kind         TaskKind   `json:"kind"`
	Title        string     `json:"title"`
	AssigneeRole agent.ID   `json:"assignee_role"`
	Priority     int        `json:"priority"`
	Status       TaskStatus `json:"status"`
	CustomerID   string     `json:"customer_id,omitempty"`
	OfferID      string     `json:"offer_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DraftStatus is the send state of a communication draft.
type DraftStatus string

const (
	DraftPendingApproval DraftStatus = "pending-approval"
	DraftReady           DraftStatus = "ready"
)

// Draft is an outbound message waiting for dispatch.
type Draft struct {
	ID            string           `json:"id"`
	CandidateID   string           `json:"candidate_id"`
	TaskID        string           `json:"task_id"`
	Channel       commerce.Channel `json:"channel"`
	CustomerID    string           `json:"customer_id,omitempty"`
	Subject       string           `json:"subject,omitempty"`
	Body          string           `json:"body"`
	NeedsApproval bool             `json:"needs_approval"`
	Status        DraftStatus      `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
}

// MaterializeOptions controls which ranked candidates become work items.
type MaterializeOptions struct {
	// MinTotal is the lowest score total considered actionable.
	MinTotal float64
	NewID    func() string
	Now      time.Time
}

// Materialize turns actionable ranked candidates into tasks and, for
// candidates carrying a channel, drafts. Output order follows ranked order.
func Materialize(ranked []Scored, opts MaterializeOptions) ([]TaskItem, []Draft) {
	tasks := make([]TaskItem, 0, len(ranked))
	var drafts []Draft
	for i := range ranked {
		s := &ranked[i]
		if s.Score.Total < opts.MinTotal {
			continue
		}
		task := TaskItem{
			ID:           opts.NewID(),
			CandidateID:  s.ID,
			Kind:         KindFor(s.Type),
			Title:        s.Title,
			AssigneeRole: s.Agent,
			Priority:     Priority(s.Confidence),
			Status:       TaskOpen,
			CustomerID:   s.CustomerID,
			OfferID:      s.OfferID,
			CreatedAt:    opts.Now,
		}
		tasks = append(tasks, task)

		if s.Channel == commerce.ChannelNone {
			continue
		}
		status := DraftPendingApproval
		if !s.NeedsApproval {
			status = DraftReady
		}
		drafts = append(drafts, Draft{
			ID:            opts.NewID(),
			CandidateID:   s.ID,
			TaskID:        task.ID,
			Channel:       s.Channel,
			CustomerID:    s.CustomerID,
			Subject:       draftSubject(&s.Candidate),
			Body:          draftBody(&s.Candidate),
			NeedsApproval: s.NeedsApproval,
			Status:        status,
			CreatedAt:     opts.Now,
		})
	}
	return tasks, drafts
}

// Priority maps a confidence in [0,1] to a 0..10 priority.
func Priority(confidence float64) int {
	p := int(math.Round(confidence * 10))
	return max(0, min(p, 10))
}

func draftSubject(c *Candidate) string {
	if c.Channel != commerce.ChannelEmail {
		return ""
	}
	return c.Title
}

func draftBody(c *Candidate) string {
	switch c.Type {
	case TypeCustomerCare:
		return "Gentile cliente, abbiamo preso in carico la sua segnalazione e la ricontatteremo a breve."
	case TypeContent:
		return fmt.Sprintf("Nuovo post: %s", c.Title)
	default:
		return fmt.Sprintf("Gentile cliente, abbiamo una proposta per lei: %s.", c.Title)
	}
}
