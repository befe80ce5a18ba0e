// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// Statistics summarizes a session's progress. A session with no results
// reports zero completion and zero average confidence.
func (s *Store) Statistics(id string) (types.Statistics, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return types.Statistics{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st := types.Statistics{
		TotalAgents:     types.TotalAgents,
		CompletedAgents: len(sess.AgentResults),
		LastUpdate:      sess.UpdatedAt,
	}
	var sum float64
	for _, out := range sess.AgentResults {
		sum += out.Confidence
		st.TotalSources += len(out.Sources)
		st.TotalWarnings += len(out.Warnings)
	}
	st.CompletionPercentage = round(float64(st.CompletedAgents)/float64(types.TotalAgents)*100, 1)
	if st.CompletedAgents > 0 {
		st.AverageConfidence = round(sum/float64(st.CompletedAgents), 2)
	}
	return st, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// ExportSession returns a portable snapshot of the session.
func (s *Store) ExportSession(id string) (types.Snapshot, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return types.Snapshot{
		Session:         sess.Clone(),
		ExportTimestamp: s.now(),
		ExportVersion:   types.ExportVersion,
	}, nil
}

// ImportSession registers snap as a new session with a fresh id and its own
// project. Fields missing from the snapshot take empty defaults.
func (s *Store) ImportSession(snap types.Snapshot) (string, error) {
	title := strings.TrimSpace(snap.Title)
	if title == "" {
		title = "Untitled"
	}

	now := s.now()
	sess := snap.Session.Clone()
	sess.ID = s.newID()
	sess.Title = importedPrefix + title
	sess.ProjectID = ""
	sess.UpdatedAt = now
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	for name, out := range sess.AgentResults {
		if !name.Valid() || out.Agent != name {
			return "", fmt.Errorf("snapshot holds an invalid result under %q", name)
		}
	}
	normalize(&sess)

	if err := s.insert(&sess); err != nil {
		return "", err
	}
	s.log.Info("session imported",
		zap.String("session", sess.ID),
		zap.String("exported_version", snap.ExportVersion))
	return sess.ID, s.attachProject(&sess)
}
