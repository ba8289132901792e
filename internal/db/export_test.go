package db

// SetListening marks s as receiving database notifications.
func (s *Store) SetListening(v bool) {
	s.listening.Store(v)
}
