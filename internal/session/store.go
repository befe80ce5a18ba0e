// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists research sessions, their mirrored project
// records, and the researcher profile.
//
// The registry holds every session in one JSON document that is read fully
// on Reload and rewritten wholesale on every mutation. Each project is its
// own JSON document, also rewritten in full. Nothing here locks files: two
// processes mutating the same data race and the last writer wins.
package session

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// importedPrefix marks the title of a session created by ImportSession.
const importedPrefix = "[IMPORTED] "

// Store owns the on-disk session registry, project files, and profile.
// A Store is not safe for concurrent use.
type Store struct {
	registryPath string
	projectsDir  string
	profilePath  string

	sessions map[string]*types.Session
	profile  types.ResearcherProfile
	loaded   bool

	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// NewStore returns a Store for cfg without touching the filesystem. Call
// Reload before use, or use Open.
func NewStore(cfg types.StoreConfig, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	registry := cfg.RegistryFile
	if registry == "" {
		registry = "sessions.json"
	}
	projects := cfg.ProjectsDir
	if projects == "" {
		projects = "projects"
	}
	profile := cfg.ProfileFile
	if profile == "" {
		profile = "profile.json"
	}
	return &Store{
		registryPath: resolve(cfg.DataDir, registry),
		projectsDir:  resolve(cfg.DataDir, projects),
		profilePath:  resolve(cfg.DataDir, profile),
		sessions:     map[string]*types.Session{},
		log:          log,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Open creates a Store and loads the registry and profile.
func Open(cfg types.StoreConfig, log *zap.Logger) (*Store, error) {
	s := NewStore(cfg, log)
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory state with the registry and profile on disk.
//
// On the first load an undecodable registry is moved aside to
// <registry>.corrupt-<timestamp> and the store starts empty, so the next
// Flush cannot overwrite the unreadable data. On later loads a decode error
// is returned and the in-memory state is kept.
func (s *Store) Reload() error {
	sessions := map[string]*types.Session{}
	_, err := readJSON(s.registryPath, &sessions)
	var decodeErr *DecodeError
	switch {
	case err == nil:
	case errors.As(err, &decodeErr) && !s.loaded:
		backup := fmt.Sprintf("%s.corrupt-%s", s.registryPath, s.now().UTC().Format("20060102T150405"))
		if renameErr := os.Rename(s.registryPath, backup); renameErr != nil {
			return fmt.Errorf("%w (moving it aside failed: %v)", err, renameErr)
		}
		s.log.Warn("session registry unreadable, starting empty",
			zap.String("path", s.registryPath),
			zap.String("backup", backup),
			zap.Error(err))
		sessions = map[string]*types.Session{}
	default:
		return err
	}

	profile, err := loadProfile(s.profilePath)
	if err != nil {
		if !errors.As(err, &decodeErr) || s.loaded {
			return err
		}
		s.log.Warn("researcher profile unreadable, using an empty profile",
			zap.String("path", s.profilePath), zap.Error(err))
		profile = types.ResearcherProfile{}
	}

	for id, sess := range sessions {
		if sess == nil {
			delete(sessions, id)
			continue
		}
		normalize(sess)
	}

	s.sessions = sessions
	s.profile = profile
	s.loaded = true
	return nil
}

// Flush rewrites the registry file from the in-memory state.
func (s *Store) Flush() error {
	if err := writeJSON(s.registryPath, s.sessions); err != nil {
		return fmt.Errorf("saving session registry: %w", err)
	}
	return nil
}

// normalize fills collections that older or hand-edited files may omit.
func normalize(sess *types.Session) {
	if sess.AgentResults == nil {
		sess.AgentResults = map[types.AgentName]types.Output{}
	}
	if sess.Memory.Keywords == nil {
		sess.Memory.Keywords = []string{}
	}
	if sess.Memory.AgentProgress == nil {
		sess.Memory.AgentProgress = map[types.AgentName]string{}
	}
}

// CreateSession registers a new session and its mirrored project. The
// session is usable even when the project could not be created; that case
// returns the new id together with a *MirrorError.
func (s *Store) CreateSession(title, question string) (string, error) {
	now := s.now()
	sess := &types.Session{
		ID:               s.newID(),
		Title:            title,
		ResearchQuestion: question,
		CreatedAt:        now,
		UpdatedAt:        now,
		Memory:           types.NewSessionMemory(),
		AgentResults:     map[types.AgentName]types.Output{},
		Profile:          s.profile,
	}
	if err := s.insert(sess); err != nil {
		return "", err
	}
	s.log.Info("session created", zap.String("session", sess.ID), zap.String("title", title))
	return sess.ID, s.attachProject(sess)
}

// insert adds sess to the registry and flushes, undoing the insert on failure.
func (s *Store) insert(sess *types.Session) error {
	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("session id %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = sess
	if err := s.Flush(); err != nil {
		delete(s.sessions, sess.ID)
		return err
	}
	return nil
}

// attachProject creates the project mirror for sess and records its id.
func (s *Store) attachProject(sess *types.Session) error {
	projectID, err := s.createProject(sess)
	if err != nil {
		s.log.Warn("project mirror not created", zap.String("session", sess.ID), zap.Error(err))
		return &MirrorError{SessionID: sess.ID, Err: err}
	}
	sess.ProjectID = projectID
	if err := s.Flush(); err != nil {
		sess.ProjectID = ""
		return &MirrorError{SessionID: sess.ID, ProjectID: projectID, Err: err}
	}
	return nil
}

// GetSession returns a copy of the session with the given id.
func (s *Store) GetSession(id string) (types.Session, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return types.Session{}, false
	}
	return sess.Clone(), true
}

// ResolveID expands a full id or a unique id prefix.
func (s *Store) ResolveID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrNotFound
	}
	if _, ok := s.sessions[prefix]; ok {
		return prefix, nil
	}
	var match string
	for id := range s.sessions {
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %q", ErrAmbiguousID, prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %q", ErrNotFound, prefix)
	}
	return match, nil
}

// ListSessions returns session summaries, most recently updated first.
func (s *Store) ListSessions() []types.SessionSummary {
	out := make([]types.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, types.SessionSummary{
			ID:               sess.ID,
			Title:            sess.Title,
			ResearchQuestion: sess.ResearchQuestion,
			UpdatedAt:        sess.UpdatedAt,
			AgentCount:       len(sess.AgentResults),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DeleteSession removes a session from the registry. Its project file is
// left on disk and can be used by Recover.
func (s *Store) DeleteSession(id string) (bool, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	delete(s.sessions, id)
	if err := s.Flush(); err != nil {
		s.sessions[id] = sess
		return false, err
	}
	s.log.Info("session deleted", zap.String("session", id), zap.String("project", sess.ProjectID))
	return true, nil
}

// SaveAgentResult stores out as the latest result of agent for the session,
// replacing any earlier one, and re-derives the session memory. The registry
// write is all-or-nothing. If it succeeds but the project mirror cannot be
// updated, the error is a *MirrorError.
func (s *Store) SaveAgentResult(id string, agent types.AgentName, out types.Output) error {
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !agent.Valid() {
		return fmt.Errorf("unknown agent %q", agent)
	}
	if out.Agent != agent {
		return fmt.Errorf("output from %q cannot be stored as %q", out.Agent, agent)
	}

	prev := sess.Clone()
	now := s.now()
	sess.AgentResults[agent] = out
	sess.UpdatedAt = now
	sess.Memory = deriveMemory(sess.Memory, agent, out, now)

	if err := s.Flush(); err != nil {
		*sess = prev
		return err
	}

	if sess.ProjectID == "" {
		return nil
	}
	if err := s.mirrorResult(sess, agent, out); err != nil {
		s.log.Warn("project mirror out of date",
			zap.String("session", id),
			zap.String("project", sess.ProjectID),
			zap.String("agent", string(agent)),
			zap.Error(err))
		return &MirrorError{SessionID: id, ProjectID: sess.ProjectID, Err: err}
	}
	return nil
}

// deriveMemory recomputes the memory fields influenced by agent.
func deriveMemory(mem types.SessionMemory, agent types.AgentName, out types.Output, now time.Time) types.SessionMemory {
	mem.LastUpdate = now
	progress := make(map[types.AgentName]string, len(mem.AgentProgress)+1)
	for k, v := range mem.AgentProgress {
		progress[k] = v
	}
	progress[agent] = types.ProgressCompleted
	mem.AgentProgress = progress

	switch {
	case agent == types.AgentThesis && out.Metadata.Thesis != nil:
		m := out.Metadata.Thesis
		mem.Keywords = append([]string{}, m.Keywords...)
		mem.Focus = m.Summary
		mem.Variables = m.Variables
	case agent == types.AgentSearch && out.Metadata.Search != nil:
		mem.PaperCount = len(out.Metadata.Search.Papers)
	}
	return mem
}

// AgentResult returns the stored Output of agent for the session.
func (s *Store) AgentResult(id string, agent types.AgentName) (types.Output, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return types.Output{}, false
	}
	out, ok := sess.AgentResults[agent]
	return out, ok
}

// AgentResults returns a copy of every stored Output for the session.
func (s *Store) AgentResults(id string) map[types.AgentName]types.Output {
	sess, ok := s.sessions[id]
	if !ok {
		return map[types.AgentName]types.Output{}
	}
	return sess.Clone().AgentResults
}

// Profile returns the researcher profile loaded at the last Reload.
func (s *Store) Profile() types.ResearcherProfile {
	return s.profile
}

// SaveProfile persists p and uses it for sessions created afterwards.
func (s *Store) SaveProfile(p types.ResearcherProfile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if err := writeJSON(s.profilePath, p); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	s.profile = p
	return nil
}
