package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	"github.com/medilab/lab-api/pkg/auth"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/security"
)

type Service struct {
	staff  repository.StaffRepository
	hasher security.PasswordHasher
	tokens *auth.JWTService
	logger zerolog.Logger
}

func NewService(staff repository.StaffRepository, hasher security.PasswordHasher, tokens *auth.JWTService, logger zerolog.Logger) *Service {
	return &Service{
		staff:  staff,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Login verifies staff credentials and issues an access token. Unknown
// email and wrong password return the same error so the endpoint does not
// leak which accounts exist.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	staff, err := s.staff.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Code(err) == apperrors.CodeNotFound {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !staff.IsActive {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err := s.hasher.Compare(staff.PasswordHash, req.Password); err != nil {
		s.logger.Warn().Str("email", req.Email).Msg("failed login attempt")
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(staff.ID, staff.Email, staff.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.LoginResponse{AccessToken: token, Staff: staff}, nil
}
