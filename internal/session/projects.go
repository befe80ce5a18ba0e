// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

const (
	projectIDPrefix = "project-"
	projectIDLayout = "20060102-150405"

	// summaryQuestionLimit bounds the question shown in project listings.
	summaryQuestionLimit = 100
)

func (s *Store) projectPath(id string) string {
	return filepath.Join(s.projectsDir, id+".json")
}

// createProject writes a new project mirroring sess. Project ids have
// one-second resolution; a collision is an error rather than a merge.
func (s *Store) createProject(sess *types.Session) (string, error) {
	id := projectIDPrefix + s.now().Format(projectIDLayout)
	path := s.projectPath(id)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("project %s already exists", id)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking project %s: %w", id, err)
	}

	proj := types.Project{
		ID:               id,
		SessionID:        sess.ID,
		Title:            sess.Title,
		ResearchQuestion: sess.ResearchQuestion,
		CreatedAt:        sess.CreatedAt,
		UpdatedAt:        sess.UpdatedAt,
		Memory:           sess.Memory,
		AgentResults:     sess.AgentResults,
		Profile:          sess.Profile,
	}
	if err := writeJSON(path, proj); err != nil {
		return "", err
	}
	s.log.Debug("project created", zap.String("project", id), zap.String("session", sess.ID))
	return id, nil
}

// mirrorResult copies one agent result and the memory into the project.
func (s *Store) mirrorResult(sess *types.Session, agent types.AgentName, out types.Output) error {
	proj, err := s.LoadProject(sess.ProjectID)
	if err != nil {
		return err
	}
	if proj.AgentResults == nil {
		proj.AgentResults = map[types.AgentName]types.Output{}
	}
	proj.AgentResults[agent] = out
	proj.Memory = sess.Memory
	proj.UpdatedAt = sess.UpdatedAt
	return writeJSON(s.projectPath(proj.ID), proj)
}

// LoadProject reads one project file.
func (s *Store) LoadProject(id string) (types.Project, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return types.Project{}, fmt.Errorf("%w: %q", ErrProjectNotFound, id)
	}
	var proj types.Project
	found, err := readJSON(s.projectPath(id), &proj)
	if err != nil {
		return types.Project{}, err
	}
	if !found {
		return types.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return proj, nil
}

// ListProjects returns summaries of every readable project file, newest
// first. Unreadable files are logged and skipped.
func (s *Store) ListProjects() ([]types.ProjectSummary, error) {
	entries, err := os.ReadDir(s.projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.ProjectSummary{}, nil
		}
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	out := []types.ProjectSummary{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		proj, err := s.LoadProject(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.log.Warn("skipping unreadable project", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, types.ProjectSummary{
			ID:               proj.ID,
			SessionID:        proj.SessionID,
			Title:            proj.Title,
			ResearchQuestion: truncate(proj.ResearchQuestion, summaryQuestionLimit),
			UpdatedAt:        proj.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Recover rebuilds registry entries for project files whose session is
// missing from the registry. It returns the number of sessions restored.
func (s *Store) Recover() (int, error) {
	entries, err := os.ReadDir(s.projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing projects: %w", err)
	}

	linked := map[string]bool{}
	for _, sess := range s.sessions {
		if sess.ProjectID != "" {
			linked[sess.ProjectID] = true
		}
	}

	var restored []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, ".") {
			continue
		}
		proj, err := s.LoadProject(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.log.Warn("skipping unreadable project", zap.String("file", name), zap.Error(err))
			continue
		}
		if linked[proj.ID] {
			continue
		}
		id := proj.SessionID
		if id == "" {
			id = s.newID()
		}
		if _, exists := s.sessions[id]; exists {
			continue
		}
		sess := &types.Session{
			ID:               id,
			Title:            proj.Title,
			ResearchQuestion: proj.ResearchQuestion,
			CreatedAt:        proj.CreatedAt,
			UpdatedAt:        proj.UpdatedAt,
			Memory:           proj.Memory,
			AgentResults:     proj.AgentResults,
			Profile:          proj.Profile,
			ProjectID:        proj.ID,
		}
		normalize(sess)
		s.sessions[id] = sess
		restored = append(restored, id)
	}
	if len(restored) == 0 {
		return 0, nil
	}
	if err := s.Flush(); err != nil {
		for _, id := range restored {
			delete(s.sessions, id)
		}
		return 0, err
	}
	s.log.Info("sessions recovered from projects", zap.Int("count", len(restored)))
	return len(restored), nil
}

// loadProfile reads the profile file; a missing file yields the zero profile.
func loadProfile(path string) (types.ResearcherProfile, error) {
	var p types.ResearcherProfile
	if _, err := readJSON(path, &p); err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			return types.ResearcherProfile{}, err
		}
		return types.ResearcherProfile{}, fmt.Errorf("loading profile: %w", err)
	}
	return p, nil
}
