package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/ActionForge/internal/adapter/otel"
	"github.com/Strob0t/ActionForge/internal/config"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/domain/discussion"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/logger"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
	"github.com/Strob0t/ActionForge/internal/port/llm"
)

// DiscussionEventType is the swarm run event type of a traced discussion.
const DiscussionEventType = "discussion"

// eventBuffer exceeds the events one session can emit, so the producer
// never blocks on a slow reader.
const eventBuffer = 128

const turnTemperature = 0.4

var errEmptyTurn = errors.New("empty completion")

// Fallback texts used when a turn cannot be completed.
const (
	fallbackAnswer    = "Al momento non riesco a elaborare una risposta completa; verifico e aggiorno l'operatore a breve."
	fallbackChallenge = "Nessuna obiezione particolare: verificare consensi e pressione commerciale prima di contattare il cliente."
	fallbackDefense   = "Confermo la mia proposta; i dettagli restano da verificare con l'operatore."
)

// DiscussionService runs the sequential consultation protocol: brief,
// answers, extra answers, critic, defense, synthesis.
type DiscussionService struct {
	reg      *agent.Registry
	llm      llm.Completer
	recorder *Recorder
	audit    auditlog.Log
	metrics  *otel.Metrics
	cfg      config.Discussion
}

// NewDiscussionService creates a DiscussionService. A nil completer makes
// every turn use its fallback text; a nil recorder disables tracing.
func NewDiscussionService(
	reg *agent.Registry,
	completer llm.Completer,
	recorder *Recorder,
	auditLog auditlog.Log,
	metrics *otel.Metrics,
	cfg config.Discussion,
) *DiscussionService {
	if metrics == nil {
		metrics = otel.NopMetrics()
	}
	return &DiscussionService{
		reg:      reg,
		llm:      completer,
		recorder: recorder,
		audit:    auditLog,
		metrics:  metrics,
		cfg:      cfg,
	}
}

// Run starts one discussion and returns its event stream. The channel is
// closed after the done event, or after an error event for an invalid request.
// Turns run on a context detached from ctx, each with its own timeout.
func (s *DiscussionService) Run(ctx context.Context, req discussion.Request) <-chan discussion.Event {
	out := make(chan discussion.Event, eventBuffer)
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	go func() {
		defer close(out)
		if err := req.Validate(); err != nil {
			out <- discussion.Event{Type: discussion.EventError, Error: err.Error(), SessionID: req.SessionID}
			return
		}
		sess := &session{
			svc:    s,
			req:    req,
			out:    out,
			spoken: make(map[agent.ID]bool),
		}
		sess.run(logger.WithSessionID(context.WithoutCancel(ctx), req.SessionID))
	}()
	return out
}

// session is the state of one discussion. It lives on a single goroutine.
type session struct {
	svc    *DiscussionService
	req    discussion.Request
	out    chan<- discussion.Event
	trace  *Trace
	thread []discussion.Message
	spoken map[agent.ID]bool
}

func (d *session) run(ctx context.Context) {
	s := d.svc
	if s.recorder != nil {
		trace, err := s.recorder.Begin(ctx, DiscussionEventType, d.req.SessionID)
		if err != nil {
			slog.WarnContext(ctx, "discussion trace unavailable", "error", err)
		} else {
			d.trace = trace
			ctx = logger.WithRunID(ctx, trace.RunID())
		}
	}
	slog.InfoContext(ctx, "discussion started")

	// Round 0: brief.
	operatorMentions := s.reg.ExtractMentions(d.req.Message)
	initial := operatorMentions
	if len(initial) == 0 {
		initial = discussion.FallbackAgents(d.req.OpenTicketCount())
	}
	brief := d.turn(ctx, agent.Orchestrator, discussion.KindBrief, discussion.RoundBrief,
		s.briefSystem(), d.briefFallback(initial))

	responders := dedupe(operatorMentions, brief.Mentions)
	if len(responders) == 0 {
		responders = discussion.FallbackAgents(d.req.OpenTicketCount())
	}

	// Round 1: mentioned agents answer in order, each seeing the thread so far.
	var round1 []discussion.Message
	for _, id := range responders {
		round1 = append(round1, d.turn(ctx, id, discussion.KindAnswer, discussion.RoundAnswers,
			s.specialistSystem(id, ""), fallbackAnswer))
	}

	// Round 1b: agents mentioned by the responders.
	for _, id := range d.extras(round1) {
		d.turn(ctx, id, discussion.KindAnswer, discussion.RoundAnswers,
			s.specialistSystem(id, ""), fallbackAnswer)
	}

	// Round 2: critic.
	critic := d.turn(ctx, agent.Critic, discussion.KindChallenge, discussion.RoundCritic,
		s.criticSystem(), fallbackChallenge)

	// Round 3: defense.
	defenders := critic.Mentions
	if len(defenders) > s.cfg.MaxDefenders {
		defenders = defenders[:s.cfg.MaxDefenders]
	}
	for _, id := range defenders {
		d.turn(ctx, id, discussion.KindDefense, discussion.RoundDefense,
			s.specialistSystem(id, "Il critico ha sollevato un'obiezione che ti riguarda: rispondi nel merito."),
			fallbackDefense)
	}

	synthesis := d.synthesize(ctx)
	d.finish(ctx, synthesis)
}

// extras returns agents mentioned in round one who have not spoken yet,
// in order of appearance, capped by MaxExtraMentions.
func (d *session) extras(round1 []discussion.Message) []agent.ID {
	var out []agent.ID
	queued := make(map[agent.ID]bool)
	for i := range round1 {
		for _, id := range round1[i].Mentions {
			if len(out) >= d.svc.cfg.MaxExtraMentions {
				return out
			}
			if d.spoken[id] || queued[id] {
				continue
			}
			queued[id] = true
			out = append(out, id)
		}
	}
	return out
}

// turn runs one visible step and appends it to the thread.
func (d *session) turn(ctx context.Context, id agent.ID, kind discussion.Kind, round int, system, fallback string) discussion.Message {
	s := d.svc
	role := s.reg.Role(id)
	d.emit(discussion.Event{Type: discussion.EventTyping, Agent: id, AgentRole: role})

	var step *swarm.Step
	if d.trace != nil {
		step = d.trace.StartStep(ctx, id, time.Time{})
	}

	text, degraded := d.complete(ctx, id, kind, round, system, fallback)

	msg := discussion.Message{
		Agent:     id,
		AgentRole: role,
		Content:   text,
		Kind:      kind,
		Mentions:  orEmptySlice(s.reg.ExtractMentions(text)),
		Round:     round,
	}
	d.thread = append(d.thread, msg)
	d.spoken[id] = true

	if d.trace != nil {
		msgKind, status := traceKind(kind), swarm.StepCompleted
		if degraded {
			msgKind, status = swarm.KindError, swarm.StepFailed
		}
		d.trace.Message(ctx, id, "", msgKind, text, nil)
		d.trace.FinishStep(ctx, step, status, 0, 0)
	}

	d.emit(discussion.Event{Type: discussion.EventMessage, Message: &msg})
	return msg
}

// complete asks the model for one turn. Any failure, timeout or empty
// answer degrades to fallback.
func (d *session) complete(ctx context.Context, id agent.ID, kind discussion.Kind, round int, system, fallback string) (string, bool) {
	s := d.svc
	if s.llm == nil {
		return fallback, true
	}

	start := time.Now()
	turnCtx, cancel := context.WithTimeout(ctx, s.cfg.TurnTimeout)
	defer cancel()
	turnCtx, span := otel.StartDiscussionTurnSpan(turnCtx, d.req.SessionID, string(id), string(kind), round)

	text, err := s.llm.Complete(turnCtx, llm.Prompt{
		System:      system,
		User:        d.userPrompt(),
		Temperature: turnTemperature,
	})
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errEmptyTurn
	}
	otel.EndSpan(span, err)
	s.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("kind", string(kind)), attribute.Bool("degraded", err != nil)))

	if err != nil {
		slog.WarnContext(ctx, "discussion turn degraded", "agent", id, "kind", kind, "error", err)
		return fallback, true
	}
	return text, false
}

// synthesize runs the moderator. Its text is returned and recorded in the
// run history, never appended to the visible thread.
func (d *session) synthesize(ctx context.Context) string {
	s := d.svc
	d.emit(discussion.Event{Type: discussion.EventTyping, Agent: agent.Moderator, AgentRole: s.reg.Role(agent.Moderator)})

	var step *swarm.Step
	if d.trace != nil {
		step = d.trace.StartStep(ctx, agent.Moderator, time.Time{})
	}
	text, degraded := d.complete(ctx, agent.Moderator, "synthesis", discussion.RoundDefense+1,
		s.moderatorSystem(), d.synthesisFallback())
	if d.trace != nil {
		status := swarm.StepCompleted
		if degraded {
			status = swarm.StepFailed
		}
		d.trace.Message(ctx, agent.Moderator, "", swarm.KindDecision, text, nil)
		d.trace.FinishStep(ctx, step, status, 0, 0)
	}
	return text
}

func (d *session) finish(ctx context.Context, synthesis string) {
	s := d.svc
	var runID string
	if d.trace != nil {
		run, err := d.trace.Finish(ctx, swarm.RunCompleted, nil)
		if err != nil {
			slog.WarnContext(ctx, "discussion trace finish failed", "error", err)
		}
		runID = run.ID
	}

	if s.audit != nil {
		rec := audit.New(uuid.NewString(), actorEngine, audit.TypeDiscussionCompleted, map[string]any{
			"session_id": d.req.SessionID,
			"run_id":     runID,
			"turns":      len(d.thread),
		}, time.Now().UTC())
		if err := s.audit.Append(ctx, rec); err != nil {
			slog.WarnContext(ctx, "audit append failed", "type", rec.Type, "error", err)
		}
	}

	slog.InfoContext(ctx, "discussion done", "turns", len(d.thread))
	d.emit(discussion.Event{
		Type:       discussion.EventDone,
		Synthesis:  synthesis,
		SwarmRunID: runID,
		SessionID:  d.req.SessionID,
		Customer:   d.req.Customer,
	})
}

func (d *session) emit(ev discussion.Event) {
	d.out <- ev
}

func traceKind(k discussion.Kind) swarm.MessageKind {
	switch k {
	case discussion.KindAnswer, discussion.KindDefense:
		return swarm.KindProposal
	default:
		return swarm.KindObservation
	}
}

func dedupe(lists ...[]agent.ID) []agent.ID {
	var out []agent.ID
	seen := make(map[agent.ID]bool)
	for _, l := range lists {
		for _, id := range l {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

func (s *DiscussionService) briefSystem() string {
	var b strings.Builder
	b.WriteString("Sei l'orchestratore di un negozio di assistenza e vendita. ")
	b.WriteString("Riassumi la richiesta dell'operatore in due o tre frasi e menziona con @Nome gli specialisti da coinvolgere.\n")
	b.WriteString("Specialisti disponibili:\n")
	for _, p := range s.reg.Specialists() {
		fmt.Fprintf(&b, "- @%s: %s\n", p.DisplayName, p.Role)
	}
	return b.String()
}

func (s *DiscussionService) specialistSystem(id agent.ID, extra string) string {
	p, _ := s.reg.Get(id)
	prompt := fmt.Sprintf("Sei %s (%s). %s\nRispondi in massimo quattro frasi tenendo conto di quanto detto dai colleghi: "+
		"puoi essere d'accordo o in disaccordo. Se ti serve il parere di un collega menzionalo con @Nome.",
		s.reg.DisplayName(id), s.reg.Role(id), p.Description)
	if extra != "" {
		prompt += "\n" + extra
	}
	return prompt
}

func (s *DiscussionService) criticSystem() string {
	return "Sei il critico. Rileggi tutta la discussione, individua rischi o punti deboli nelle proposte " +
		"e menziona con @Nome al massimo due specialisti che devono rispondere."
}

func (s *DiscussionService) moderatorSystem() string {
	return "Sei il moderatore. Sintetizza la discussione in una raccomandazione finale per l'operatore, " +
		"in poche frasi, senza aggiungere nuove proposte."
}

func (d *session) userPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Richiesta dell'operatore: %s\n", d.req.Message)
	if c := d.req.Customer; c != nil {
		fmt.Fprintf(&b, "Cliente: %s, ticket aperti %d, saturazione commerciale %.0f/100\n",
			c.FullName, d.req.OpenTicketCount(), c.CommercialSaturationScore)
	} else {
		fmt.Fprintf(&b, "Nessun cliente associato, ticket aperti %d\n", d.req.OpenTicketCount())
	}
	if len(d.thread) > 0 {
		b.WriteString("\nDiscussione finora:\n")
		b.WriteString(discussion.Transcript(d.svc.reg, d.thread))
	}
	return b.String()
}

func (d *session) briefFallback(agents []agent.ID) string {
	handles := make([]string, len(agents))
	for i, id := range agents {
		handles[i] = "@" + d.svc.reg.DisplayName(id)
	}
	return fmt.Sprintf("Richiesta ricevuta: %q. Chiedo il parere di %s.", d.req.Message, strings.Join(handles, " e "))
}

func (d *session) synthesisFallback() string {
	var names []string
	seen := make(map[agent.ID]bool)
	for i := range d.thread {
		id := d.thread[i].Agent
		if id == agent.Orchestrator || id == agent.Critic || seen[id] {
			continue
		}
		seen[id] = true
		names = append(names, d.svc.reg.DisplayName(id))
	}
	if len(names) == 0 {
		return "Sintesi: nessuno specialista ha risposto, serve una verifica manuale dell'operatore."
	}
	return fmt.Sprintf("Sintesi: hanno partecipato %s. Procedere con le proposte condivise, previa approvazione dell'operatore.",
		strings.Join(names, ", "))
}
