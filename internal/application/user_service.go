package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/stacklyhub/internal/policy"
)

// UserRoster is the slice of the Store the user service works against.
type UserRoster interface {
	Users() []User
	User(id int) (User, error)
	CreateUser(ctx context.Context, input UserInput) (User, error)
	UpdateUserByID(ctx context.Context, id int, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id int) error
}

// UserService applies role rules to roster management.
type UserService struct {
	users  UserRoster
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRoster) *UserService {
	return NewUserServiceWithLogger(users, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRoster, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// ListVisible returns every user for admins and only their assigned trainees for trainers.
func (s *UserService) ListVisible(ctx context.Context, principal Principal) ([]User, error) {
	if err := policy.Can(principal.subject(), policy.ActionManageUsers); err != nil {
		s.loggerWith(ctx, "ListVisible", "user_id", principal.UserID).
			WarnContext(ctx, "user listing denied", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	all := s.users.Users()
	if principal.Role == RoleAdmin {
		return all, nil
	}

	var out []User
	for _, u := range all {
		if u.Role == RoleTrainee && u.AssignedTrainer != nil && *u.AssignedTrainer == principal.UserID {
			out = append(out, u)
		}
	}
	return out, nil
}

// Create adds a user with a temporary password. Admin only.
func (s *UserService) Create(ctx context.Context, principal Principal, input UserInput) (User, error) {
	if err := policy.Can(principal.subject(), policy.ActionCreateUser); err != nil {
		return User{}, err
	}
	return s.users.CreateUser(ctx, input)
}

// Update edits a roster entry. Trainers may edit the trainees assigned to them
// but only admins change roles or trainer assignments.
func (s *UserService) Update(ctx context.Context, principal Principal, id int, patch UserPatch) (User, error) {
	target, err := s.users.User(id)
	if err != nil {
		return User{}, err
	}

	var owner int
	if target.AssignedTrainer != nil {
		owner = *target.AssignedTrainer
	}
	if err := policy.Authorize(principal.subject(), policy.ActionManageUsers, policy.Resource{OwnerID: owner}); err != nil {
		s.loggerWith(ctx, "Update", "user_id", id).
			WarnContext(ctx, "user update denied", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}
	if patch.Role != nil || patch.AssignedTrainer != nil || patch.UnassignTrainer {
		if err := policy.Can(principal.subject(), policy.ActionAssignTrainer); err != nil {
			return User{}, err
		}
	}
	return s.users.UpdateUserByID(ctx, id, patch)
}

// Delete removes a user. Admin only.
func (s *UserService) Delete(ctx context.Context, principal Principal, id int) error {
	if err := policy.Can(principal.subject(), policy.ActionDeleteUser); err != nil {
		return err
	}
	return s.users.DeleteUser(ctx, id)
}

// AssignTrainer sets or clears the trainer of a trainee. A nil trainerID unassigns.
func (s *UserService) AssignTrainer(ctx context.Context, principal Principal, traineeID int, trainerID *int) (user User, err error) {
	logger := s.loggerWith(ctx, "AssignTrainer", "trainee_id", traineeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "trainer assignment failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if user.AssignedTrainer == nil {
			logger.InfoContext(ctx, "trainer unassigned")
			return
		}
		logger.InfoContext(ctx, "trainer assigned", "trainer_id", *user.AssignedTrainer)
	}()

	if err = policy.Can(principal.subject(), policy.ActionAssignTrainer); err != nil {
		return
	}

	trainee, err := s.users.User(traineeID)
	if err != nil {
		return
	}
	if trainee.Role != RoleTrainee {
		err = &ValidationError{FieldErrors: map[string]string{"traineeId": fmt.Sprintf("user %d is not a trainee", traineeID)}}
		return
	}

	patch := UserPatch{AssignedTrainer: trainerID, UnassignTrainer: trainerID == nil}
	return s.users.UpdateUserByID(ctx, traineeID, patch)
}
