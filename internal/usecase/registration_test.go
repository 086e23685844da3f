package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/infra/security"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

const strongTestPassword = "Sup3r!SecurePass#7890"

type mockUserRepository struct {
	createErr   error
	createCalls int
	createdUser domain.User

	getByIDResult *domain.User
	getByIDErr    error
	getByIDCalls  int
	getByIDLastID string

	getByEmailResult *domain.User
	getByEmailErr    error
	getByEmailCalls  int

	getByUsernameResult *domain.User
	getByUsernameErr    error

	getByIdentifierResult *domain.User
	getByIdentifierErr    error
	getByIdentifierCalls  int
	getByIdentifierLast   string

	updateStatusErr    error
	updateStatusCalls  int
	updateStatusID     string
	updateStatusStatus domain.AccountStatus

	updateProfileErr    error
	updateProfileCalls  int
	updateProfileID     string
	updateProfileUpdate domain.ProfileUpdate

	deleteErr      error
	deleteCalls    int
	deleteUsername string

	listUsernamesResult []string
	listUsernamesErr    error
}

func (m *mockUserRepository) Create(_ context.Context, user domain.User) error {
	m.createCalls++
	m.createdUser = user
	return m.createErr
}

func (m *mockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.getByIDCalls++
	m.getByIDLastID = id
	if m.getByIDResult != nil {
		copy := *m.getByIDResult
		return &copy, m.getByIDErr
	}
	return nil, m.getByIDErr
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.getByEmailCalls++
	if m.getByEmailResult != nil {
		copy := *m.getByEmailResult
		return &copy, m.getByEmailErr
	}
	return nil, m.getByEmailErr
}

func (m *mockUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.getByUsernameResult != nil {
		copy := *m.getByUsernameResult
		return &copy, m.getByUsernameErr
	}
	return nil, m.getByUsernameErr
}

func (m *mockUserRepository) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	m.getByIdentifierCalls++
	m.getByIdentifierLast = identifier
	if m.getByIdentifierResult != nil {
		copy := *m.getByIdentifierResult
		return &copy, m.getByIdentifierErr
	}
	return nil, m.getByIdentifierErr
}

func (m *mockUserRepository) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	m.updateStatusCalls++
	m.updateStatusID = id
	m.updateStatusStatus = status
	return m.updateStatusErr
}

func (m *mockUserRepository) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) error {
	m.updateProfileCalls++
	m.updateProfileID = id
	m.updateProfileUpdate = update
	return m.updateProfileErr
}

func (m *mockUserRepository) DeleteByUsername(_ context.Context, username string) error {
	m.deleteCalls++
	m.deleteUsername = username
	return m.deleteErr
}

func (m *mockUserRepository) ListUsernames(context.Context) ([]string, error) {
	if m.listUsernamesErr != nil {
		return nil, m.listUsernamesErr
	}
	out := make([]string, len(m.listUsernamesResult))
	copy(out, m.listUsernamesResult)
	return out, nil
}

type mockAdminRepository struct {
	createErr    error
	createCalls  int
	createdAdmin domain.Admin

	getByEmailResult *domain.Admin
	getByEmailErr    error

	getByIdentifierResult *domain.Admin
	getByIdentifierErr    error
	getByIdentifierCalls  int
}

func (m *mockAdminRepository) Create(_ context.Context, admin domain.Admin) error {
	m.createCalls++
	m.createdAdmin = admin
	return m.createErr
}

func (m *mockAdminRepository) GetByEmail(context.Context, string) (*domain.Admin, error) {
	if m.getByEmailResult != nil {
		copy := *m.getByEmailResult
		return &copy, m.getByEmailErr
	}
	return nil, m.getByEmailErr
}

func (m *mockAdminRepository) GetByIdentifier(context.Context, string) (*domain.Admin, error) {
	m.getByIdentifierCalls++
	if m.getByIdentifierResult != nil {
		copy := *m.getByIdentifierResult
		return &copy, m.getByIdentifierErr
	}
	return nil, m.getByIdentifierErr
}

type mockChallengeRepository struct {
	issueErr     error
	issueCalls   int
	issuedTo     string
	issuedCode   string
	issuedTTL    time.Duration
	issuedExpiry time.Time

	validateErr     error
	validateCalls   int
	validateContact string
	validateCode    string

	consumeErr     error
	consumeCalls   int
	consumeContact string
}

func (m *mockChallengeRepository) Issue(_ context.Context, contact, code string, ttl time.Duration) (*domain.Challenge, error) {
	m.issueCalls++
	m.issuedTo = contact
	m.issuedCode = code
	m.issuedTTL = ttl
	if m.issueErr != nil {
		return nil, m.issueErr
	}
	now := time.Now().UTC()
	m.issuedExpiry = now.Add(ttl)
	return &domain.Challenge{Contact: contact, Code: code, CreatedAt: now, ExpiresAt: m.issuedExpiry}, nil
}

func (m *mockChallengeRepository) Validate(_ context.Context, contact, code string) error {
	m.validateCalls++
	m.validateContact = contact
	m.validateCode = code
	return m.validateErr
}

func (m *mockChallengeRepository) ConsumeAll(_ context.Context, contact string) error {
	m.consumeCalls++
	m.consumeContact = contact
	return m.consumeErr
}

type mockNotifier struct {
	err     error
	calls   int
	lastMsg port.VerificationMessage
}

func (m *mockNotifier) SendVerification(_ context.Context, msg port.VerificationMessage) error {
	m.calls++
	m.lastMsg = msg
	return m.err
}

type mockEventPublisher struct {
	registeredCalls int
	registeredEvent domain.AccountRegisteredEvent
	registeredErr   error

	verifiedCalls int
	verifiedEvent domain.AccountVerifiedEvent

	deletedCalls int
	deletedEvent domain.AccountDeletedEvent
	deletedErr   error
}

func (m *mockEventPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	m.registeredCalls++
	m.registeredEvent = event
	return m.registeredErr
}

func (m *mockEventPublisher) PublishAccountVerified(_ context.Context, event domain.AccountVerifiedEvent) error {
	m.verifiedCalls++
	m.verifiedEvent = event
	return nil
}

func (m *mockEventPublisher) PublishAccountDeleted(_ context.Context, event domain.AccountDeletedEvent) error {
	m.deletedCalls++
	m.deletedEvent = event
	return m.deletedErr
}

func newTestTokenManager(t *testing.T) *security.TokenManager {
	t.Helper()
	manager, err := security.NewTokenManager("unit-test-secret", "accounts-service-test")
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	return manager
}

func newRegistrationService(t *testing.T, users *mockUserRepository, challenges *mockChallengeRepository, notifier *mockNotifier, publisher port.EventPublisher) *RegistrationService {
	t.Helper()
	return NewRegistrationService(users, challenges, notifier, publisher, newTestTokenManager(t), "https://accounts.example.com")
}

func TestRegistrationService_RegisterUser_Success(t *testing.T) {
	users := &mockUserRepository{}
	challenges := &mockChallengeRepository{}
	notifier := &mockNotifier{}

	service := newRegistrationService(t, users, challenges, notifier, nil)

	result, err := service.RegisterUser(context.Background(), "alice@example.com", "alice", strongTestPassword)
	if err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}

	if challenges.issueCalls != 1 {
		t.Fatalf("expected Issue to be called once, got %d", challenges.issueCalls)
	}
	if challenges.issuedTo != "alice@example.com" {
		t.Fatalf("expected challenge contact alice@example.com, got %s", challenges.issuedTo)
	}
	if challenges.issuedTTL != domain.ChallengeTTL {
		t.Fatalf("expected challenge TTL %v, got %v", domain.ChallengeTTL, challenges.issuedTTL)
	}
	if len(challenges.issuedCode) != security.OTPCodeLength {
		t.Fatalf("expected %d character code, got %q", security.OTPCodeLength, challenges.issuedCode)
	}

	if users.createCalls != 1 {
		t.Fatalf("expected Create to be called once, got %d", users.createCalls)
	}
	if users.createdUser.Status != domain.AccountStatusPending {
		t.Fatalf("expected pending status, got %s", users.createdUser.Status)
	}
	if users.createdUser.PasswordHash == "" {
		t.Fatalf("expected password hash to be stored")
	}
	if users.createdUser.PasswordHash == strongTestPassword {
		t.Fatalf("expected password to be hashed, stored verbatim")
	}
	if ok, err := security.VerifyPassword(strongTestPassword, users.createdUser.PasswordHash); err != nil || !ok {
		t.Fatalf("expected stored hash to match original password")
	}

	if notifier.calls != 1 {
		t.Fatalf("expected SendVerification to be called once, got %d", notifier.calls)
	}
	if notifier.lastMsg.Code != challenges.issuedCode {
		t.Fatalf("expected notifier to carry issued code %s, got %s", challenges.issuedCode, notifier.lastMsg.Code)
	}
	if !strings.Contains(notifier.lastMsg.Link, "code="+challenges.issuedCode) {
		t.Fatalf("expected verification link to embed the code, got %s", notifier.lastMsg.Link)
	}

	if result.DeliveryFailed {
		t.Fatalf("expected delivery to succeed")
	}
	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from result")
	}
	if result.ExpiresAt != challenges.issuedExpiry {
		t.Fatalf("expected expiry %v, got %v", challenges.issuedExpiry, result.ExpiresAt)
	}
}

func TestRegistrationService_RegisterUser_ChallengeBeforeAccount(t *testing.T) {
	users := &mockUserRepository{}
	challenges := &mockChallengeRepository{issueErr: errors.New("redis down")}
	notifier := &mockNotifier{}

	service := newRegistrationService(t, users, challenges, notifier, nil)

	if _, err := service.RegisterUser(context.Background(), "bob@example.com", "bob", strongTestPassword); err == nil {
		t.Fatalf("expected error when challenge issuance fails")
	}

	if users.createCalls != 0 {
		t.Fatalf("expected no account when challenge issuance fails, got %d creates", users.createCalls)
	}
	if notifier.calls != 0 {
		t.Fatalf("expected no notification when challenge issuance fails")
	}
}

func TestRegistrationService_RegisterUser_DuplicateIdentity(t *testing.T) {
	users := &mockUserRepository{createErr: repository.ErrDuplicate}
	challenges := &mockChallengeRepository{}

	service := newRegistrationService(t, users, challenges, &mockNotifier{}, nil)

	_, err := service.RegisterUser(context.Background(), "carol@example.com", "carol", strongTestPassword)
	if !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}

	// The orphaned challenge is tolerated; it can never be redeemed without
	// a pending account and expires on its own.
	if challenges.issueCalls != 1 {
		t.Fatalf("expected challenge to have been issued before the create attempt")
	}
	if challenges.consumeCalls != 0 {
		t.Fatalf("expected no compensation on duplicate, got %d consume calls", challenges.consumeCalls)
	}
}

func TestRegistrationService_RegisterUser_DispatchFailureKeepsAccount(t *testing.T) {
	users := &mockUserRepository{}
	challenges := &mockChallengeRepository{}
	notifier := &mockNotifier{err: errors.New("smtp down")}

	service := newRegistrationService(t, users, challenges, notifier, nil)

	result, err := service.RegisterUser(context.Background(), "dave@example.com", "dave", strongTestPassword)
	if err != nil {
		t.Fatalf("expected registration to succeed despite dispatch failure, got %v", err)
	}

	if !result.DeliveryFailed {
		t.Fatalf("expected DeliveryFailed to be set")
	}
	if users.createCalls != 1 {
		t.Fatalf("expected account to be persisted, got %d creates", users.createCalls)
	}
	if users.createdUser.Status != domain.AccountStatusPending {
		t.Fatalf("expected account to stay pending, got %s", users.createdUser.Status)
	}
}

func TestRegistrationService_RegisterUser_PublishesEvent(t *testing.T) {
	users := &mockUserRepository{}
	publisher := &mockEventPublisher{}

	service := newRegistrationService(t, users, &mockChallengeRepository{}, &mockNotifier{}, publisher)
	fixedNow := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	service.WithClock(func() time.Time { return fixedNow })

	result, err := service.RegisterUser(context.Background(), "erin@example.com", "erin", strongTestPassword)
	if err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}

	if publisher.registeredCalls != 1 {
		t.Fatalf("expected registered event to be published once, got %d", publisher.registeredCalls)
	}

	event := publisher.registeredEvent
	if event.AccountID != result.User.ID {
		t.Fatalf("expected event account ID %s, got %s", result.User.ID, event.AccountID)
	}
	if event.Username != "erin" {
		t.Fatalf("expected username erin, got %s", event.Username)
	}
	if event.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", event.Role)
	}
	if event.RegisteredAt != fixedNow {
		t.Fatalf("expected registered_at %v, got %v", fixedNow, event.RegisteredAt)
	}
}

func TestRegistrationService_RegisterUser_EventFailureDoesNotBlock(t *testing.T) {
	publisher := &mockEventPublisher{registeredErr: errors.New("kafka down")}

	service := newRegistrationService(t, &mockUserRepository{}, &mockChallengeRepository{}, &mockNotifier{}, publisher)

	if _, err := service.RegisterUser(context.Background(), "frank@example.com", "frank", strongTestPassword); err != nil {
		t.Fatalf("expected registration to succeed despite event failure, got %v", err)
	}

	if publisher.registeredCalls != 1 {
		t.Fatalf("expected publisher to be invoked even on failure")
	}
}

func TestRegistrationService_RegisterUser_ValidationErrors(t *testing.T) {
	service := newRegistrationService(t, &mockUserRepository{}, &mockChallengeRepository{}, &mockNotifier{}, nil)

	cases := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{"missing email", "", "gina", strongTestPassword},
		{"missing username", "gina@example.com", "", strongTestPassword},
		{"missing password", "gina@example.com", "gina", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.RegisterUser(context.Background(), tc.email, tc.username, tc.password); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestRegistrationService_RegisterUser_PasswordPolicyViolation(t *testing.T) {
	service := newRegistrationService(t, &mockUserRepository{}, &mockChallengeRepository{}, &mockNotifier{}, nil)

	_, err := service.RegisterUser(context.Background(), "henry@example.com", "henry", "password")
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestRegistrationService_VerifyAccount_Success(t *testing.T) {
	pending := &domain.User{
		ID:       "user-1",
		Email:    "alice@example.com",
		Username: "alice",
		Status:   domain.AccountStatusPending,
	}

	users := &mockUserRepository{getByEmailResult: pending}
	challenges := &mockChallengeRepository{}
	publisher := &mockEventPublisher{}

	tokens := newTestTokenManager(t)
	service := NewRegistrationService(users, challenges, &mockNotifier{}, publisher, tokens, "")

	user, token, err := service.VerifyAccount(context.Background(), "alice@example.com", "a1b2c3d4")
	if err != nil {
		t.Fatalf("VerifyAccount returned error: %v", err)
	}

	if user.Status != domain.AccountStatusActive {
		t.Fatalf("expected active status, got %s", user.Status)
	}
	if users.updateStatusCalls != 1 || users.updateStatusStatus != domain.AccountStatusActive {
		t.Fatalf("expected UpdateStatus to mark user active, calls=%d status=%s", users.updateStatusCalls, users.updateStatusStatus)
	}
	if challenges.validateCalls != 1 || challenges.validateCode != "a1b2c3d4" {
		t.Fatalf("expected Validate to be called with the code")
	}
	if challenges.consumeCalls != 1 || challenges.consumeContact != "alice@example.com" {
		t.Fatalf("expected ConsumeAll for the contact, calls=%d contact=%s", challenges.consumeCalls, challenges.consumeContact)
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "alice@example.com" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected session claims: %+v", claims)
	}

	if publisher.verifiedCalls != 1 {
		t.Fatalf("expected verified event to be published once, got %d", publisher.verifiedCalls)
	}
}

func TestRegistrationService_VerifyAccount_InvalidCode(t *testing.T) {
	users := &mockUserRepository{}
	challenges := &mockChallengeRepository{validateErr: repository.ErrNotFound}

	service := newRegistrationService(t, users, challenges, &mockNotifier{}, nil)

	if _, _, err := service.VerifyAccount(context.Background(), "alice@example.com", "deadbeef"); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP, got %v", err)
	}

	if users.updateStatusCalls != 0 {
		t.Fatalf("expected no status change on invalid code")
	}
	if challenges.consumeCalls != 0 {
		t.Fatalf("expected no consume on invalid code")
	}
}

func TestRegistrationService_VerifyAccount_UnknownContact(t *testing.T) {
	// A valid code with no matching account maps to the same error as a bad
	// code, so the endpoint cannot be used to probe for accounts.
	users := &mockUserRepository{getByEmailErr: repository.ErrNotFound}
	challenges := &mockChallengeRepository{}

	service := newRegistrationService(t, users, challenges, &mockNotifier{}, nil)

	if _, _, err := service.VerifyAccount(context.Background(), "ghost@example.com", "a1b2c3d4"); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP, got %v", err)
	}
}

func TestRegistrationService_VerifyAccount_ConsumeFailureStillSucceeds(t *testing.T) {
	pending := &domain.User{ID: "user-2", Email: "bob@example.com", Status: domain.AccountStatusPending}

	users := &mockUserRepository{getByEmailResult: pending}
	challenges := &mockChallengeRepository{consumeErr: errors.New("redis down")}

	service := newRegistrationService(t, users, challenges, &mockNotifier{}, nil)

	user, token, err := service.VerifyAccount(context.Background(), "bob@example.com", "a1b2c3d4")
	if err != nil {
		t.Fatalf("expected verification to succeed despite consume failure, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected a session token")
	}
	if user.Status != domain.AccountStatusActive {
		t.Fatalf("expected active status, got %s", user.Status)
	}
}

func TestRegistrationService_VerifyAccount_ActivationError(t *testing.T) {
	pending := &domain.User{ID: "user-3", Email: "carol@example.com", Status: domain.AccountStatusPending}

	users := &mockUserRepository{getByEmailResult: pending, updateStatusErr: errors.New("db down")}

	service := newRegistrationService(t, users, &mockChallengeRepository{}, &mockNotifier{}, nil)

	if _, _, err := service.VerifyAccount(context.Background(), "carol@example.com", "a1b2c3d4"); err == nil || !strings.Contains(err.Error(), "activate user") {
		t.Fatalf("expected activate user error, got %v", err)
	}
}
