// Package state persists the durable AgentState: atomic primary writes,
// rotating timestamped backups, crash recovery, and typed lifecycle
// notifications to registered observers.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/pkg/filesystem"
	"github.com/doeshing/opsgpt/internal/ports"
)

const backupPrefix = "state_backup_"

// backupTimeLayout is fixed width so backup names sort lexicographically by
// creation time.
const backupTimeLayout = "20060102_150405.000000000"

// Store owns the AgentState for the process lifetime. All mutations are
// serialized on one mutex; persistence happens inside the critical section,
// observer notification outside it.
type Store struct {
	mu    sync.Mutex
	state domain.AgentState

	file      string
	backupDir string
	retention int
	logger    ports.Logger

	obsMu     sync.Mutex
	observers map[domain.StateEvent]map[int]ports.StateObserver
	nextObsID int
}

// NewStore loads or creates the agent state. Recovery order: primary file,
// newest backup, fresh state.
func NewStore(settings domain.StateSettings, logger ports.Logger) (*Store, error) {
	file := settings.File
	if file == "" {
		file = filepath.Join(filesystem.UserHomeDir(), ".opsgpt", "agent_state.json")
	}
	backupDir := settings.BackupDir
	if backupDir == "" {
		backupDir = filepath.Join(filepath.Dir(file), "state_backups")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, domain.NewError(domain.ErrStateIO, "create state directory").WithCause(err)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, domain.NewError(domain.ErrStateIO, "create backup directory").WithCause(err)
	}

	s := &Store{
		file:      file,
		backupDir: backupDir,
		retention: settings.Retention(),
		logger:    logger,
		observers: map[domain.StateEvent]map[int]ports.StateObserver{},
	}
	s.state = s.recover(settings.Environment)
	s.notify(domain.EventSessionStarted, domain.StatePayload{Context: s.state.CurrentContext})
	return s, nil
}

func (s *Store) recover(environment string) domain.AgentState {
	if state, err := loadStateFile(s.file); err == nil {
		s.logger.Info("recovered agent state", map[string]any{"source": s.file})
		return state
	} else if !os.IsNotExist(err) {
		s.logger.Warn("primary state file unreadable", map[string]any{"error": err.Error()})
	}

	if backup := s.latestBackup(); backup != "" {
		if state, err := loadStateFile(backup); err == nil {
			s.logger.Info("recovered agent state from backup", map[string]any{"source": backup})
			return state
		}
	}

	if environment == "" {
		environment = "development"
	}
	return domain.AgentState{
		SessionID:        uuid.NewString(),
		CurrentContext:   "default",
		Environment:      environment,
		SessionStart:     time.Now().UTC(),
		ExecutionHistory: []domain.HistoryEntry{},
		ActiveServices:   []string{},
		ResourceStates:   map[string]any{},
		PluginStates:     map[string]map[string]any{},
	}
}

func loadStateFile(path string) (domain.AgentState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AgentState{}, err
	}
	var state domain.AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.AgentState{}, err
	}
	return state, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// UpdateContext implements ports.StateRepository.
func (s *Store) UpdateContext(ctx string) error {
	err := s.commit(func() {
		s.state.CurrentContext = ctx
	})
	s.notify(domain.EventContextUpdated, domain.StatePayload{Context: ctx})
	return err
}

// RecordCommand appends to the execution history and updates the session
// counters. executionTime is in seconds.
func (s *Store) RecordCommand(command string, success bool, executionTime float64) error {
	err := s.commit(func() {
		s.state.LastCommand = command
		s.state.TotalExecutionTime += executionTime
		if success {
			s.state.SuccessfulCommands++
		} else {
			s.state.FailedCommands++
		}
		s.state.ExecutionHistory = append(s.state.ExecutionHistory, domain.HistoryEntry{
			Timestamp:     time.Now().UTC(),
			Command:       command,
			Success:       success,
			ExecutionTime: time.Duration(executionTime * float64(time.Second)),
		})
	})
	s.notify(domain.EventCommandExecuted, domain.StatePayload{Command: command, Success: success})
	return err
}

// RecordError implements ports.StateRepository.
func (s *Store) RecordError(message string) error {
	err := s.commit(func() {
		s.state.ErrorCount++
		s.state.LastError = message
	})
	s.notify(domain.EventErrorOccurred, domain.StatePayload{Error: message})
	return err
}

// UpdatePluginState implements ports.StateRepository.
func (s *Store) UpdatePluginState(plugin string, state map[string]any) error {
	return s.commit(func() {
		if s.state.PluginStates == nil {
			s.state.PluginStates = map[string]map[string]any{}
		}
		s.state.PluginStates[plugin] = copyBlob(state)
	})
}

// PluginState returns a copy of the stored state blob for the named plugin.
// Callers never share a map with the store; all writes go through
// UpdatePluginState under the store's lock.
func (s *Store) PluginState(plugin string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyBlob(s.state.PluginStates[plugin])
}

// Close persists a final snapshot and announces the session end.
func (s *Store) Close() error {
	err := s.commit(func() {})
	s.notify(domain.EventSessionEnded, domain.StatePayload{})
	return err
}

// commit applies a mutation and persists the result while holding the lock.
// A persistence failure is reported as STATE_IO but the in-memory mutation
// stands; the in-flight command's outcome is independent of it.
func (s *Store) commit(mutate func()) error {
	s.mu.Lock()
	mutate()
	err := s.save()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("state save failed", err, map[string]any{"file": s.file})
		s.notify(domain.EventErrorOccurred, domain.StatePayload{Error: err.Error()})
		return domain.NewError(domain.ErrStateIO, "persist agent state").WithCause(err)
	}
	return nil
}

// save writes the primary file atomically (temp file + rename), then a
// timestamped backup, then prunes old backups to the retention cap.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.file), ".state-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.file); err != nil {
		os.Remove(tmpName)
		return err
	}

	backup := filepath.Join(s.backupDir, fmt.Sprintf("%s%s.json", backupPrefix, time.Now().UTC().Format(backupTimeLayout)))
	if err := os.WriteFile(backup, data, 0o600); err != nil {
		return err
	}

	return s.pruneBackups()
}

func (s *Store) pruneBackups() error {
	backups, err := s.listBackups()
	if err != nil {
		return err
	}
	for len(backups) > s.retention {
		oldest := backups[0]
		if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
			return err
		}
		backups = backups[1:]
	}
	return nil
}

func (s *Store) listBackups() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.backupDir, backupPrefix+"*.json"))
	if err != nil {
		return nil, err
	}
	// Names embed a fixed-width creation timestamp, so name order is age order.
	sort.Strings(matches)
	return matches, nil
}

func (s *Store) latestBackup() string {
	backups, err := s.listBackups()
	if err != nil || len(backups) == 0 {
		return ""
	}
	return backups[len(backups)-1]
}

// Subscribe registers an observer for one lifecycle event and returns its
// unsubscribe function. Observer lifetime is tied to the store's.
func (s *Store) Subscribe(event domain.StateEvent, observer ports.StateObserver) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	if s.observers[event] == nil {
		s.observers[event] = map[int]ports.StateObserver{}
	}
	id := s.nextObsID
	s.nextObsID++
	s.observers[event][id] = observer

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers[event], id)
	}
}

// notify delivers the payload to every observer of the event. A panicking
// observer is logged and swallowed; it never aborts the mutation.
func (s *Store) notify(event domain.StateEvent, payload domain.StatePayload) {
	payload.Event = event
	payload.At = time.Now().UTC()
	payload.SessionID = s.sessionID()

	s.obsMu.Lock()
	observers := make([]ports.StateObserver, 0, len(s.observers[event]))
	for _, obs := range s.observers[event] {
		observers = append(observers, obs)
	}
	s.obsMu.Unlock()

	for _, obs := range observers {
		s.callObserver(event, obs, payload)
	}
}

func (s *Store) callObserver(event domain.StateEvent, obs ports.StateObserver, payload domain.StatePayload) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state observer panicked", fmt.Errorf("%v", r), map[string]any{
				"event": string(event),
			})
		}
	}()
	obs(payload)
}

func (s *Store) sessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SessionID
}

func copyState(in domain.AgentState) domain.AgentState {
	out := in
	out.ExecutionHistory = append([]domain.HistoryEntry(nil), in.ExecutionHistory...)
	out.ActiveServices = append([]string(nil), in.ActiveServices...)
	out.ResourceStates = make(map[string]any, len(in.ResourceStates))
	for k, v := range in.ResourceStates {
		out.ResourceStates[k] = v
	}
	out.PluginStates = make(map[string]map[string]any, len(in.PluginStates))
	for k, v := range in.PluginStates {
		out.PluginStates[k] = copyBlob(v)
	}
	return out
}

func copyBlob(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ ports.StateRepository = (*Store)(nil)
