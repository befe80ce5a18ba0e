// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ProgressCompleted is the agent_progress marker written when an agent's
// Output is stored.
const ProgressCompleted = "completed"

// SessionMemory is a denormalized view of a few agent outputs, kept for
// quick display and for handing terse state to later agents.
type SessionMemory struct {
	Focus         string               `json:"focus"`
	Keywords      []string             `json:"keywords"`
	Variables     Variables            `json:"variables"`
	PaperCount    int                  `json:"paper_count"`
	LastUpdate    time.Time            `json:"last_update"`
	AgentProgress map[AgentName]string `json:"agent_progress"`
}

// NewSessionMemory returns an empty memory with non-nil collections.
func NewSessionMemory() SessionMemory {
	return SessionMemory{
		Keywords:      []string{},
		AgentProgress: map[AgentName]string{},
	}
}

// IsZero reports whether m carries no data at all.
func (m SessionMemory) IsZero() bool {
	return m.Focus == "" && len(m.Keywords) == 0 && m.Variables.IsEmpty() &&
		m.PaperCount == 0 && m.LastUpdate.IsZero() && len(m.AgentProgress) == 0
}

func (m SessionMemory) clone() SessionMemory {
	c := m
	c.Keywords = append([]string{}, m.Keywords...)
	c.AgentProgress = make(map[AgentName]string, len(m.AgentProgress))
	for k, v := range m.AgentProgress {
		c.AgentProgress[k] = v
	}
	return c
}

// ResearcherProfile describes the researcher using the tool. One profile
// exists per installation.
type ResearcherProfile struct {
	Name          string    `json:"name" yaml:"name"`
	Email         string    `json:"email" yaml:"email"`
	Affiliation   string    `json:"affiliation" yaml:"affiliation"`
	ResearchFocus string    `json:"research_focus" yaml:"research_focus"`
	ORCID         string    `json:"orcid,omitempty" yaml:"orcid,omitempty"`
	PubMedID      string    `json:"pubmed_id,omitempty" yaml:"pubmed_id,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
}

// IsZero reports whether the profile has never been filled in.
func (p ResearcherProfile) IsZero() bool {
	return p == ResearcherProfile{}
}

// Session is one research inquiry in progress.
type Session struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	ResearchQuestion string               `json:"research_question"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Memory           SessionMemory        `json:"session_memory"`
	AgentResults     map[AgentName]Output `json:"agent_results"`
	Profile          ResearcherProfile    `json:"researcher_profile"`

	// ProjectID links the mirrored Project record.
	ProjectID string `json:"project_id,omitempty"`
}

// Clone returns a copy that shares no maps or slices with s. Outputs are
// copied by value.
func (s Session) Clone() Session {
	c := s
	c.Memory = s.Memory.clone()
	c.AgentResults = make(map[AgentName]Output, len(s.AgentResults))
	for k, v := range s.AgentResults {
		c.AgentResults[k] = v
	}
	return c
}

// Project is the mirrored per-session record written to its own file.
type Project struct {
	ID               string               `json:"id"`
	SessionID        string               `json:"session_id,omitempty"`
	Title            string               `json:"title"`
	ResearchQuestion string               `json:"research_question"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Memory           SessionMemory        `json:"session_memory"`
	AgentResults     map[AgentName]Output `json:"agent_results"`
	Profile          ResearcherProfile    `json:"researcher_profile"`
}

// SessionSummary is a row of the session listing.
type SessionSummary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ResearchQuestion string    `json:"research_question"`
	UpdatedAt        time.Time `json:"updated_at"`
	AgentCount       int       `json:"agent_count"`
}

// ProjectSummary is a row of the project listing.
type ProjectSummary struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id,omitempty"`
	Title            string    `json:"title"`
	ResearchQuestion string    `json:"research_question"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Statistics summarizes a session's execution progress.
type Statistics struct {
	TotalAgents          int       `json:"total_agents"`
	CompletedAgents      int       `json:"completed_agents"`
	CompletionPercentage float64   `json:"completion_percentage"`
	AverageConfidence    float64   `json:"average_confidence"`
	LastUpdate           time.Time `json:"last_update"`
	TotalSources         int       `json:"total_sources"`
	TotalWarnings        int       `json:"total_warnings"`
}

// ExportVersion is written into every Snapshot.
const ExportVersion = "1.0"

// Snapshot is a portable copy of a session.
type Snapshot struct {
	Session
	ExportTimestamp time.Time `json:"export_timestamp"`
	ExportVersion   string    `json:"export_version"`
}
