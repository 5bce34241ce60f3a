package core

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/pkg/errors"

	"awardbook/internal/award"
	"awardbook/internal/infra/persistence/memory"
	"awardbook/internal/records"
)

const (
	// TestSuffix names the table set populated with generated students.
	TestSuffix = " (test students)"
	// TestPassword is shared by every generated student.
	TestPassword = "password"
	// TestCentreID is the centre generated students belong to.
	TestCentreID = 68362

	testUsernameLength = 5
)

// Populate writes a copy of the loaded tables to target with every table
// except the staff logins replaced by n generated students. Generated
// passwords skip the strength policy. The loaded tables are left as they
// were. The usernames created are returned in id order.
func (s *Service) Populate(ctx context.Context, n int, target string, rng *rand.Rand) ([]string, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	var usernames []string
	err := s.observe(ctx, "populate", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			return ErrNotLoaded
		}
		snapshot := memory.NewStore()
		if err := s.db.SaveTo(ctx, snapshot, ""); err != nil {
			return errors.Wrap(err, "snapshot tables")
		}
		defer func() {
			if err := s.db.LoadFrom(ctx, snapshot, ""); err != nil {
				s.log.Error("restore after populate failed", "error", err)
			}
		}()

		s.db.Credentials.Clear()
		s.db.Students.Clear()
		s.db.Sections.Clear()
		s.db.Resources.Clear()

		taken := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			username := randomUsername(rng, testUsernameLength, taken)
			taken[username] = true
			hash, err := s.hasher.Hash(TestPassword)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}
			level := records.AwardLevels[rng.IntN(len(records.AwardLevels))]
			year := strconv.Itoa(7 + rng.IntN(7))
			if _, err := addStudent(s.db, username, hash, strconv.Itoa(TestCentreID), string(level), year); err != nil {
				return errors.Wrapf(err, "generate student %d", i)
			}
			usernames = append(usernames, username)
			s.log.Debug("generated student", "n", i+1, "of", n, "username", username)
		}
		res, err := s.rules.Evaluate(ctx, s.db)
		if err != nil {
			return err
		}
		if res.HasBlocking() {
			return award.RuleViolationError{Result: res}
		}
		if err := s.db.Save(ctx, target); err != nil {
			return errors.Wrap(err, "save generated tables")
		}
		s.log.Info("populated tables", "students", n, "suffix", target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usernames, nil
}

// randomUsername draws lowercase names until one is free. Names shorter
// than three letters are not checked.
func randomUsername(rng *rand.Rand, length int, taken map[string]bool) string {
	gen := func() string {
		b := make([]byte, length)
		for i := range b {
			b[i] = byte('a' + rng.IntN(26))
		}
		return string(b)
	}
	name := gen()
	for length >= 3 && taken[name] {
		name = gen()
	}
	return name
}
