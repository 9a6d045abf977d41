package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/akallepalli/assignment-service/internal/apperror"
	"github.com/akallepalli/assignment-service/internal/auth"
	"github.com/akallepalli/assignment-service/internal/model"
	"github.com/akallepalli/assignment-service/internal/repository"
	"github.com/akallepalli/assignment-service/internal/seed"
)

// SeedReport summarises one bulk load.
type SeedReport struct {
	Created  int // new accounts inserted
	Existing int // email already present, row ignored
	Invalid  int // missing fields or unusable password, row ignored
}

// UserService bulk-loads user accounts.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// LoadFile seeds users from a CSV or XLSX file. A missing file is not an error:
// the service simply starts with whatever accounts the store already has.
func (s *UserService) LoadFile(ctx context.Context, path string) (SeedReport, error) {
	records, err := seed.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Info("no user seed file found", slog.String("path", path))
			return SeedReport{}, nil
		}
		return SeedReport{}, err
	}

	report, err := s.Seed(ctx, records)
	if err != nil {
		return report, err
	}

	s.logger.Info("users loaded",
		slog.String("path", path),
		slog.Int("created", report.Created),
		slog.Int("existing", report.Existing),
		slog.Int("invalid", report.Invalid),
	)
	return report, nil
}

// Seed creates an account for every valid record whose email is not yet taken.
//
// bcrypt dominates the cost of a load, so hashing runs on a bounded errgroup;
// inserts stay sequential so duplicate emails inside one file resolve
// deterministically (first row wins).
func (s *UserService) Seed(ctx context.Context, records []seed.UserRecord) (SeedReport, error) {
	var report SeedReport

	pending := make([]seed.UserRecord, 0, len(records))
	for _, rec := range records {
		if missing := rec.Missing(); len(missing) > 0 {
			s.logger.Warn("skipping seed row with missing fields",
				slog.Int("line", rec.Line),
				slog.Any("missing", missing),
			)
			report.Invalid++
			continue
		}

		_, err := s.users.GetUserByEmail(ctx, rec.Email)
		switch {
		case err == nil:
			report.Existing++
			continue
		case !errors.Is(err, apperror.ErrNotFound):
			return report, fmt.Errorf("seeding users: checking %s: %w", rec.Email, err)
		}
		pending = append(pending, rec)
	}

	hashes := make([]string, len(pending))
	hashErrs := make([]error, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rec := range pending {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hashes[i], hashErrs[i] = s.passwords.Hash(rec.Password)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("seeding users: %w", err)
	}

	for i, rec := range pending {
		if hashErrs[i] != nil {
			s.logger.Warn("skipping seed row with unusable password",
				slog.Int("line", rec.Line),
				slog.String("error", hashErrs[i].Error()),
			)
			report.Invalid++
			continue
		}

		user := &model.User{
			FirstName:    rec.FirstName,
			LastName:     rec.LastName,
			Email:        rec.Email,
			PasswordHash: hashes[i],
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				report.Existing++
				continue
			}
			return report, fmt.Errorf("seeding users: creating %s: %w", rec.Email, err)
		}

		s.logger.Debug("user seeded", slog.String("id", user.ID), slog.String("email", user.Email))
		report.Created++
	}

	return report, nil
}
