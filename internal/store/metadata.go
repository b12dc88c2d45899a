package store

import (
	"context"
	"strconv"

	"github.com/pavelanni/interviewer/internal/model"
)

// SetMetadata upserts a key-value pair for a session.
func (s *Store) SetMetadata(ctx context.Context, sessionID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_metadata (session_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(session_id, key) DO UPDATE SET value = ?`,
		sessionID, key, value, value,
	)
	return err
}

// GetMetadata returns all metadata of a session. The map is empty, not nil,
// when nothing was recorded.
func (s *Store) GetMetadata(ctx context.Context, sessionID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_metadata WHERE session_id = ? ORDER BY key`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// SetSessionInfo stores all SessionInfo fields as metadata rows.
func (s *Store) SetSessionInfo(ctx context.Context, sessionID string, info model.SessionInfo) error {
	pairs := []struct{ k, v string }{
		{"topic", info.Topic},
		{"language", info.Language},
		{"llm_provider", info.LLMProvider},
		{"llm_model", info.LLMModel},
		{"min_questions", strconv.Itoa(info.MinQuestions)},
		{"max_questions", strconv.Itoa(info.MaxQuestions)},
		{"probe_weak", strconv.FormatBool(info.ProbeWeak)},
	}
	for _, p := range pairs {
		if err := s.SetMetadata(ctx, sessionID, p.k, p.v); err != nil {
			return err
		}
	}
	return nil
}

// GetSessionInfo reads all SessionInfo fields from metadata.
func (s *Store) GetSessionInfo(ctx context.Context, sessionID string) (model.SessionInfo, error) {
	var info model.SessionInfo
	meta, err := s.GetMetadata(ctx, sessionID)
	if err != nil {
		return info, err
	}
	info.Topic = meta["topic"]
	info.Language = meta["language"]
	info.LLMProvider = meta["llm_provider"]
	info.LLMModel = meta["llm_model"]
	if v := meta["min_questions"]; v != "" {
		if info.MinQuestions, err = strconv.Atoi(v); err != nil {
			return info, err
		}
	}
	if v := meta["max_questions"]; v != "" {
		if info.MaxQuestions, err = strconv.Atoi(v); err != nil {
			return info, err
		}
	}
	if v := meta["probe_weak"]; v != "" {
		if info.ProbeWeak, err = strconv.ParseBool(v); err != nil {
			return info, err
		}
	}
	return info, nil
}
