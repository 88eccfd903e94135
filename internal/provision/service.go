package provision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nimbus-console/nimbus-console/internal/companies"
	"github.com/nimbus-console/nimbus-console/internal/reset"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// inviteTokenTTL matches the 7-day expiry the console has always written.
// No flow consumes the token yet; it is stored for the planned invitation
// email.
const inviteTokenTTL = 7 * 24 * time.Hour

// CreateAdminInput is the admin-creation form.
type CreateAdminInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// CreatedAdmin is returned after a successful provisioning run.
type CreatedAdmin struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// CompanyFinder resolves the target company.
type CompanyFinder interface {
	Get(ctx context.Context, id int64) (*companies.Company, error)
}

// Service handles company-admin provisioning.
type Service struct {
	logger    *slog.Logger
	repo      Repository
	companies CompanyFinder
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo Repository, finder CompanyFinder) *Service {
	return &Service{logger: logger, repo: repo, companies: finder}
}

// CreateAdmin validates the form, then runs the two-insert saga: a users row
// first, then the company_user link. If the link insert fails the users row
// is deleted again, so a partial failure never leaves an orphaned account.
func (s *Service) CreateAdmin(ctx context.Context, companyID int64, input CreateAdminInput) (*CreatedAdmin, error) {
	if verr := ValidateInput(input); verr != nil {
		return nil, verr
	}

	company, err := s.companies.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.E(shared.CodeNotFound, "company not found")
		}
		return nil, shared.Wrap(shared.CodeInternal, "load company failed", err)
	}
	if !company.IsActive {
		return nil, shared.E(shared.CodeConflict, "company is not active")
	}

	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "email lookup failed", err)
	}
	if exists {
		return nil, shared.EF(shared.CodeEmailExists, "email", "an account with this email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "hash password failed", err)
	}
	_, tokenHash, err := reset.NewToken()
	if err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "generate invite token failed", err)
	}

	var userID int64
	saga := shared.NewSaga("provision_admin", s.logger,
		shared.SagaStep{
			Name: "create_user",
			Run: func(ctx context.Context) error {
				id, err := s.repo.CreateUser(ctx, NewUser{
					Email:               input.Email,
					PasswordHash:        string(passwordHash),
					ResetTokenHash:      tokenHash,
					ResetTokenExpiresAt: time.Now().Add(inviteTokenTTL),
				})
				if err != nil {
					return err
				}
				userID = id
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.repo.DeleteUser(ctx, userID)
			},
		},
		shared.SagaStep{
			Name: "create_company_user",
			Run: func(ctx context.Context) error {
				return s.repo.CreateCompanyUser(ctx, CompanyUserRow{
					UserID:    userID,
					CompanyID: companyID,
					FirstName: input.FirstName,
					LastName:  input.LastName,
					Role:      "admin",
					Phone:     input.Phone,
				})
			},
		},
	)

	if _, err := saga.Execute(ctx); err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, shared.Wrap(shared.CodeInternal, "create admin failed", err)
	}

	return &CreatedAdmin{
		UserID:    userID,
		CompanyID: companyID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      "admin",
	}, nil
}
