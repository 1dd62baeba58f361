package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/mailer"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	minPasswordLen = 6
	hashWorkers    = 4
)

// Skip reasons reported by BulkCreate.
const (
	SkipMissingFields = "missing required fields"
	SkipInvalidEmail  = "invalid email address"
	SkipShortPassword = "password must be at least 6 characters"
	SkipDuplicateRow  = "duplicate email in request"
	SkipEmailExists   = "email already registered"
)

// UserService handles exam-taker accounts.
type UserService struct {
	users    UserStore
	auth     *AuthService
	notifier WelcomeNotifier
	validate *govalidator.Validate
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth *AuthService, notifier WelcomeNotifier, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		auth:     auth,
		notifier: notifier,
		validate: govalidator.New(),
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user from a validated request.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        normalizeEmail(req.Email),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List retrieves a page of users.
func (s *UserService) List(ctx context.Context, page, perPage int) ([]model.User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	return s.users.ListPaginated(ctx, perPage, (page-1)*perPage)
}

type bulkCandidate struct {
	entry model.BulkUserEntry
	hash  string
}

// BulkCreate creates every valid row and reports the rest as skipped. Each
// created user gets a welcome email with their plaintext password; delivery
// is handed to the notifier and never affects the result.
func (s *UserService) BulkCreate(ctx context.Context, entries []model.BulkUserEntry) (*model.BulkCreateResult, error) {
	result := &model.BulkCreateResult{
		Created: make([]model.User, 0, len(entries)),
		Skipped: make([]model.BulkSkipped, 0),
	}

	// 1. Row-level checks, including duplicates inside the batch.
	seen := make(map[string]bool, len(entries))
	candidates := make([]bulkCandidate, 0, len(entries))
	for _, e := range entries {
		e.Email = normalizeEmail(e.Email)
		e.Username = strings.TrimSpace(e.Username)

		switch {
		case e.Email == "" || e.Username == "" || e.Password == "":
			result.Skipped = append(result.Skipped, model.BulkSkipped{Email: e.Email, Reason: SkipMissingFields})
		case s.validate.Var(e.Email, "email,max=255") != nil:
			result.Skipped = append(result.Skipped, model.BulkSkipped{Email: e.Email, Reason: SkipInvalidEmail})
		case len(e.Password) < minPasswordLen:
			result.Skipped = append(result.Skipped, model.BulkSkipped{Email: e.Email, Reason: SkipShortPassword})
		case seen[e.Email]:
			result.Skipped = append(result.Skipped, model.BulkSkipped{Email: e.Email, Reason: SkipDuplicateRow})
		default:
			seen[e.Email] = true
			candidates = append(candidates, bulkCandidate{entry: e})
		}
	}

	// 2. Emails that already belong to someone.
	if len(candidates) > 0 {
		emails := make([]string, len(candidates))
		for i, c := range candidates {
			emails[i] = c.entry.Email
		}
		existing, err := s.users.ExistingEmails(ctx, emails)
		if err != nil {
			return nil, fmt.Errorf("check existing emails: %w", err)
		}

		kept := candidates[:0]
		for _, c := range candidates {
			if existing[c.entry.Email] {
				result.Skipped = append(result.Skipped, model.BulkSkipped{Email: c.entry.Email, Reason: SkipEmailExists})
				continue
			}
			kept = append(kept, c)
		}
		candidates = kept
	}

	// 3. bcrypt dominates the cost of a batch, so hash on a few goroutines.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hashWorkers)
	for i := range candidates {
		c := &candidates[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			hash, err := s.auth.HashPassword(c.entry.Password)
			if err != nil {
				return err
			}
			c.hash = hash
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hash passwords: %w", err)
	}

	// 4. Insert one by one; a concurrent registration can still win the email.
	for _, c := range candidates {
		u := &model.User{Email: c.entry.Email, Username: c.entry.Username, PasswordHash: c.hash}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				result.Skipped = append(result.Skipped, model.BulkSkipped{Email: c.entry.Email, Reason: SkipEmailExists})
				continue
			}
			return nil, fmt.Errorf("create user %s: %w", c.entry.Email, err)
		}
		result.Created = append(result.Created, *u)

		s.notifier.NotifyWelcome(mailer.Welcome{To: u.Email, Username: u.Username, Password: c.entry.Password})
	}

	result.Message = fmt.Sprintf("Created %d user(s), skipped %d", len(result.Created), len(result.Skipped))
	s.log.Info().
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Bulk user creation finished")

	return result, nil
}
