// Package a2acard publishes ActionForge as an A2A agent: the agent card
// lists one skill per registered specialist, and swarm runs are exposed
// as A2A tasks.
package a2acard

import (
	"fmt"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
)

const protocolVersion = "0.3.0"

// BuildAgentCard describes the service at baseURL. Skills follow registry order.
func BuildAgentCard(baseURL, version string, reg *agent.Registry) *a2a.AgentCard {
	specialists := reg.Specialists()
	skills := make([]a2a.AgentSkill, 0, len(specialists))
	for i := range specialists {
		p := &specialists[i]
		tags := make([]string, 0, len(p.Supports)+1)
		tags = append(tags, strings.ToLower(p.Role))
		for _, t := range p.Supports {
			tags = append(tags, string(t))
		}
		skills = append(skills, a2a.AgentSkill{
			ID:          string(p.ID),
			Name:        fmt.Sprintf("%s (%s)", p.DisplayName, p.Role),
			Description: p.Description,
			Tags:        tags,
			InputModes:  []string{"application/json"},
			OutputModes: []string{"application/json"},
		})
	}

	return &a2a.AgentCard{
		Name:               "ActionForge",
		Description:        "Ranks next-best actions for business events and materializes operator tasks and drafts",
		URL:                strings.TrimSuffix(baseURL, "/") + "/a2a",
		Version:            version,
		ProtocolVersion:    protocolVersion,
		Capabilities:       a2a.AgentCapabilities{Streaming: false},
		DefaultInputModes:  []string{"application/json"},
		DefaultOutputModes: []string{"application/json"},
		Skills:             skills,
	}
}
