package analyzer

// NameSet is a set of names that remembers insertion order, so that anything
// derived from it is deterministic. The zero value is an empty set.
type NameSet struct {
	names []string
	index map[string]struct{}
}

func (s *NameSet) Add(name string) bool {
	if _, ok := s.index[name]; ok {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

func (s *NameSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *NameSet) Len() int {
	return len(s.names)
}

// The returned slice must not be modified
func (s *NameSet) Names() []string {
	return s.names
}
