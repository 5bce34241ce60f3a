package records

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"awardbook/internal/blob"
)

var fixedNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

// memBackend keeps snapshots in a map.
type memBackend struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemBackend() *memBackend { return &memBackend{files: map[string][]byte{}} }

func (m *memBackend) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok, nil
}

func (m *memBackend) Read(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.files[name]...), nil
}

func (m *memBackend) Write(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *memBackend) Location() string { return "memory" }

func (m *memBackend) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for k := range m.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newTestDB(t *testing.T) (*Database, *memBackend) {
	t.Helper()
	backend := newMemBackend()
	return NewDatabase(backend, blob.NewMemory()), backend
}

func validForm() EnrolmentForm {
	return EnrolmentForm{
		Fullname:       "Ada Lovelace",
		Gender:         "female",
		DateOfBirth:    "2010/05/01",
		Address:        "12 Analytical Row",
		PhonePrimary:   "07700900123",
		EmailPrimary:   "ada@example.org",
		PhoneEmergency: "07700900456",
		PrimaryLang:    "english",
	}
}

func validProposal(t SectionType) SectionProposal {
	return SectionProposal{
		Type:          string(t),
		StartDate:     "2026/04/01",
		Timescale:     "90",
		ActivityType:  "Litter picking",
		Details:       "Weekly litter pick around the park",
		Goals:         "Keep the park tidy",
		AssessorName:  "Grace Hopper",
		AssessorPhone: "07700900789",
		AssessorEmail: "grace@example.org",
	}
}

func approvedStudent(t *testing.T, id int) *Student {
	t.Helper()
	s, err := NewStudent(id, "68362", "silver", "10")
	if err != nil {
		t.Fatalf("new student: %v", err)
	}
	if err := s.CompleteEnrolment(validForm(), fixedNow); err != nil {
		t.Fatalf("complete enrolment: %v", err)
	}
	if err := s.Approve(); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return s
}
