package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatepass/gatepass-server/internal/models"
	"github.com/gatepass/gatepass-server/internal/repository"
)

// Service defines all the business logic operations. Every operation past
// authentication receives the resolved actor explicitly; the service keeps
// no per-session state.
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ResolveActor(ctx context.Context, accountID string) (*models.Account, error)
	EnsureRootAccount(ctx context.Context, username, password, name string) error

	// Accounts
	CreateAccount(ctx context.Context, actor *models.Account, req models.CreateAccountRequest) (*models.AccountPublic, error)
	GetAccount(ctx context.Context, actor *models.Account, id string) (*models.AccountPublic, error)
	ListAccounts(ctx context.Context, actor *models.Account, role models.Role) ([]models.AccountPublic, error)
	UpdateAccount(ctx context.Context, actor *models.Account, id string, req models.UpdateAccountRequest) (*models.AccountPublic, error)

	// Events and organizer assignments
	CreateEvent(ctx context.Context, actor *models.Account, req models.CreateEventRequest) (*models.Event, error)
	GetEvent(ctx context.Context, actor *models.Account, eventID string) (*models.Event, error)
	ListEvents(ctx context.Context, actor *models.Account) ([]models.Event, error)
	UpdateEvent(ctx context.Context, actor *models.Account, eventID string, req models.UpdateEventRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, actor *models.Account, eventID string) error
	AssignOrganizer(ctx context.Context, actor *models.Account, eventID, organizerID string) error
	RemoveOrganizer(ctx context.Context, actor *models.Account, eventID, organizerID string) error
	ListEventOrganizers(ctx context.Context, actor *models.Account, eventID string) ([]models.AccountPublic, error)

	// Guests and check-in
	UploadGuests(ctx context.Context, actor *models.Account, eventID string, rows []models.GuestRow) (*models.UploadGuestsResponse, error)
	ListGuests(ctx context.Context, actor *models.Account, eventID string) ([]models.Guest, error)
	DeleteGuest(ctx context.Context, actor *models.Account, guestID string) error
	CheckInGuest(ctx context.Context, actor *models.Account, guestID string) (*models.CheckInResult, error)
	CheckInByCode(ctx context.Context, actor *models.Account, code string) (*models.CheckInResult, error)

	// Audit and reporting
	GetAuditLog(ctx context.Context, actor *models.Account, eventID string) ([]models.AuditLogEntry, error)
	GetStats(ctx context.Context, actor *models.Account) (*models.StatsResponse, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
	logger        *zap.Logger
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		logger:        logger,
	}
}

const (
	defaultEventQuota = 10
	minEventQuota     = 1
	maxEventQuota     = 100
)

// Login authenticates username+password. Unknown username and wrong
// password both come back as ErrInvalidCredentials.
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.repo.GetAccountByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if !verifyPassword(req.Password, account.Password) {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.generateJWT(account)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.LoginResponse{
		Status:    "success",
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
		Account:   account.ToPublic(),
	}, nil
}

// ResolveActor loads the account behind an authenticated request. A
// deactivated account is rejected even while its token is still valid.
func (s *DefaultService) ResolveActor(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	return account, nil
}

// EnsureRootAccount seeds the root super_admin on first boot. It is a
// no-op once any super_admin exists.
func (s *DefaultService) EnsureRootAccount(ctx context.Context, username, password, name string) error {
	count, err := s.repo.CountAccountsByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("error counting super admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	root := &models.Account{
		ID:       uuid.New().String(),
		Username: username,
		Name:     name,
		Password: hashed,
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}

	if err := s.repo.CreateAccount(ctx, root); err != nil {
		return fmt.Errorf("error creating root account: %w", err)
	}

	s.logger.Info("seeded root super_admin account", zap.String("username", username))
	return nil
}

// CreateAccount creates a subordinate account. The (actor role, target
// role) pair must appear in the hierarchy table; everything else is
// forbidden.
func (s *DefaultService) CreateAccount(
	ctx context.Context,
	actor *models.Account,
	req models.CreateAccountRequest,
) (*models.AccountPublic, error) {
	targetRole, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, validationErr("role", "unknown role")
	}

	if !canCreate(actor.Role, targetRole) {
		return nil, ErrForbidden
	}

	if strings.TrimSpace(req.Username) == "" {
		return nil, validationErr("username", "must not be empty")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErr("name", "must not be empty")
	}

	quota := 0
	if targetRole == models.RoleEventManager {
		quota = defaultEventQuota
		if req.EventQuota != nil {
			quota = *req.EventQuota
		}
		if quota < minEventQuota || quota > maxEventQuota {
			return nil, ErrInvalidQuota
		}
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	creatorID := actor.ID
	account := &models.Account{
		ID:         uuid.New().String(),
		Username:   req.Username,
		Name:       req.Name,
		Password:   hashed,
		Role:       targetRole,
		IsActive:   true,
		CreatedBy:  &creatorID,
		EventQuota: quota,
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	pub := account.ToPublic()
	return &pub, nil
}

func (s *DefaultService) GetAccount(ctx context.Context, actor *models.Account, id string) (*models.AccountPublic, error) {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	if account == nil {
		return nil, ErrNotFound
	}

	if account.ID != actor.ID && !s.mayViewAccount(actor, account) {
		return nil, ErrForbidden
	}

	pub := account.ToPublic()
	return &pub, nil
}

// mayViewAccount applies the visibility rule: admins and super_admins see
// every account of the roles below them, an event_manager sees only the
// organizers it created.
func (s *DefaultService) mayViewAccount(actor, target *models.Account) bool {
	if !canView(actor.Role, target.Role) {
		return false
	}
	if actor.Role == models.RoleEventManager {
		return target.CreatedBy != nil && *target.CreatedBy == actor.ID
	}
	return true
}

func (s *DefaultService) ListAccounts(
	ctx context.Context,
	actor *models.Account,
	role models.Role,
) ([]models.AccountPublic, error) {
	if !canView(actor.Role, role) {
		return nil, ErrForbidden
	}

	var accounts []models.Account
	var err error
	if actor.Role == models.RoleEventManager {
		accounts, err = s.repo.ListAccountsByCreator(ctx, actor.ID)
	} else {
		accounts, err = s.repo.ListAccountsByRole(ctx, role)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}

	public := make([]models.AccountPublic, 0, len(accounts))
	for i := range accounts {
		if accounts[i].Role != role {
			continue
		}
		public = append(public, accounts[i].ToPublic())
	}
	return public, nil
}

// UpdateAccount applies a partial update. Only the creator or an
// admin/super_admin ancestor may mutate an account; quota edits are
// restricted further to admin/super_admin and re-validated.
func (s *DefaultService) UpdateAccount(
	ctx context.Context,
	actor *models.Account,
	id string,
	req models.UpdateAccountRequest,
) (*models.AccountPublic, error) {
	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	if account == nil {
		return nil, ErrNotFound
	}

	if !canManage(actor, account) {
		return nil, ErrForbidden
	}

	if req.EventQuota != nil {
		if account.Role != models.RoleEventManager {
			return nil, validationErr("eventQuota", "only event managers carry a quota")
		}
		if actor.Role != models.RoleSuperAdmin && actor.Role != models.RoleAdmin {
			return nil, ErrForbidden
		}
		if *req.EventQuota < minEventQuota || *req.EventQuota > maxEventQuota {
			return nil, ErrInvalidQuota
		}
		account.EventQuota = *req.EventQuota
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, validationErr("name", "must not be empty")
		}
		account.Name = *req.Name
	}

	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		account.Password = hashed
	}

	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("error updating account: %w", err)
	}

	pub := account.ToPublic()
	return &pub, nil
}

// recordAudit appends an audit entry. Audit writes after a successful
// mutation are best-effort: a failure is logged and swallowed, never
// rolled back.
func (s *DefaultService) recordAudit(ctx context.Context, eventID, actorID, action, detail string, guestID *string) {
	entry := &models.AuditLogEntry{
		EventID: eventID,
		ActorID: actorID,
		Action:  action,
		Detail:  detail,
		GuestID: guestID,
	}
	if err := s.repo.AppendAuditLog(ctx, entry); err != nil {
		s.logger.Error("audit log write failed",
			zap.String("event_id", eventID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// Password hashing lives behind these two helpers so the algorithm stays
// swappable.
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Helper methods
func (s *DefaultService) generateJWT(account *models.Account) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": account.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
