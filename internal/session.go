package internal

// SessionStore is what the credential store needs from session persistence.
// SessionFile implements it; tests use an in-memory one.
type SessionStore interface {
	Save(data SessionData) error
	Load() (SessionData, error)
	Clear() error
}

// MemorySession keeps SessionData in memory.
type MemorySession struct {
	Data  *SessionData
	Saves int
}

// Save implements SessionStore.
func (m *MemorySession) Save(data SessionData) error {
	d := data
	m.Data = &d
	m.Saves++
	return nil
}

// Load implements SessionStore.
func (m *MemorySession) Load() (SessionData, error) {
	if m.Data == nil {
		return SessionData{}, ErrNoSession
	}
	return *m.Data, nil
}

// Clear implements SessionStore.
func (m *MemorySession) Clear() error {
	m.Data = nil
	return nil
}
