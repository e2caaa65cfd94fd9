package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/stacklyhub/internal/policy"
)

const minPasswordLength = 6

// AccountStore is the slice of the Store the account service works against.
type AccountStore interface {
	Current() (User, bool)
	PasswordMatches(candidate string) (bool, error)
	UpdateCurrentPrincipal(ctx context.Context, patch UserPatch) (User, error)
}

// AccountService handles the signed in principal's own password and profile.
type AccountService struct {
	store  AccountStore
	logger *slog.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(store AccountStore) *AccountService {
	return NewAccountServiceWithLogger(store, nil)
}

// NewAccountServiceWithLogger constructs an AccountService with a specified logger.
func NewAccountServiceWithLogger(store AccountStore, logger *slog.Logger) *AccountService {
	return &AccountService{store: store, logger: defaultLogger(logger)}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// ChangeTemporaryPassword completes the forced password change and clears the temporary flag.
func (s *AccountService) ChangeTemporaryPassword(ctx context.Context, newPassword, confirm string) (user User, err error) {
	logger := s.loggerWith(ctx, "ChangeTemporaryPassword")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "password change rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "temporary password replaced", "user_id", user.ID)
	}()

	if _, ok := s.store.Current(); !ok {
		err = ErrNotAuthenticated
		return
	}
	if vErr := checkNewPassword(newPassword, confirm); vErr != nil {
		err = vErr
		return
	}

	temporary := false
	return s.store.UpdateCurrentPrincipal(ctx, UserPatch{Password: &newPassword, IsTemporary: &temporary})
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, current, newPassword, confirm string) (user User, err error) {
	logger := s.loggerWith(ctx, "ChangePassword")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "password change rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "password changed", "user_id", user.ID)
	}()

	principal, ok := s.store.Current()
	if !ok {
		err = ErrNotAuthenticated
		return
	}
	if err = policy.Can(PrincipalOf(principal).subject(), policy.ActionChangePassword); err != nil {
		return
	}

	matches, err := s.store.PasswordMatches(current)
	if err != nil {
		return
	}
	if !matches {
		err = &ValidationError{FieldErrors: map[string]string{"currentPassword": "current password is incorrect"}}
		return
	}
	if vErr := checkNewPassword(newPassword, confirm); vErr != nil {
		err = vErr
		return
	}

	temporary := false
	return s.store.UpdateCurrentPrincipal(ctx, UserPatch{Password: &newPassword, IsTemporary: &temporary})
}

// UpdateProfile changes the display name. Admins may also change email and username;
// those fields are ignored for other roles.
func (s *AccountService) UpdateProfile(ctx context.Context, input ProfileInput) (User, error) {
	principal, ok := s.store.Current()
	if !ok {
		return User{}, ErrNotAuthenticated
	}
	subject := PrincipalOf(principal).subject()
	if err := policy.Can(subject, policy.ActionEditDisplayName); err != nil {
		return User{}, err
	}

	name := strings.TrimSpace(input.Name)
	patch := UserPatch{Name: &name}
	if policy.Can(subject, policy.ActionEditSettings) == nil {
		patch.Email = input.Email
		patch.Username = input.Username
	}

	user, err := s.store.UpdateCurrentPrincipal(ctx, patch)
	if err != nil {
		return User{}, err
	}
	s.loggerWith(ctx, "UpdateProfile", "user_id", user.ID).InfoContext(ctx, "profile updated")
	return user, nil
}

// checkNewPassword applies the mismatch check before the length check.
func checkNewPassword(password, confirm string) *ValidationError {
	if password != confirm {
		return &ValidationError{FieldErrors: map[string]string{"confirmPassword": "passwords do not match"}}
	}
	if len(password) < minPasswordLength {
		return &ValidationError{FieldErrors: map[string]string{"newPassword": "password must be at least 6 characters long"}}
	}
	return nil
}
