package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bizpilot/go-auth-client/authapi"
	"github.com/bizpilot/go-auth-client/session/storage"
)

// defaultLogoutNotifyTimeout bounds the best-effort remote logout call. Local
// state is cleared whatever happens to the remote call.
const defaultLogoutNotifyTimeout = 5 * time.Second

// OpRecorder receives the outcome of each remote auth operation, for metrics.
type OpRecorder interface {
	RecordAuthOp(operation string, err error)
}

// Store holds the authenticated user identity and credential pair. All
// mutating operations are serialized through a single operation lock, so a
// login and a logout racing from independent triggers execute strictly one
// after the other instead of interleaving their storage writes.
type Store struct {
	api                 AuthService
	repo                storage.Repo
	log                 zerolog.Logger
	recorder            OpRecorder
	logoutNotifyTimeout time.Duration

	ops sync.Mutex // serializes mutating operations end to end

	mu           sync.RWMutex // guards the fields below
	user         *User
	accessToken  *string
	refreshToken *string
	hasHydrated  bool

	hydrateOnce sync.Once
}

type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.log = logger
	}
}

func WithOpRecorder(recorder OpRecorder) StoreOption {
	return func(s *Store) {
		s.recorder = recorder
	}
}

// WithLogoutNotifyTimeout overrides the bound on the best-effort remote
// logout notification.
func WithLogoutNotifyTimeout(timeout time.Duration) StoreOption {
	return func(s *Store) {
		s.logoutNotifyTimeout = timeout
	}
}

func NewStore(api AuthService, repo storage.Repo, options ...StoreOption) (*Store, error) {
	if api == nil {
		return nil, errors.New("[NewStore] auth service is required")
	}
	if repo == nil {
		return nil, errors.New("[NewStore] storage repo is required")
	}

	store := &Store{
		api:                 api,
		repo:                repo,
		log:                 zerolog.Nop(),
		logoutNotifyTimeout: defaultLogoutNotifyTimeout,
	}
	for _, opt := range options {
		opt(store)
	}
	return store, nil
}

// Login authenticates against the remote service and, on success, replaces
// the session and writes both tokens through to durable storage. On failure
// prior state is left untouched and the service's error message, when it has
// one, is surfaced verbatim.
func (s *Store) Login(ctx context.Context, credentials Credentials) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	grant, err := s.api.Login(ctx, credentials.Email, credentials.Password)
	s.recordOp("login", err)
	if err != nil {
		s.log.Debug().Err(err).Str("email", credentials.Email).Msg("login rejected")
		return surfaceErr(err, loginFallbackErr)
	}

	s.applyGrant(grant)
	return s.commit(ctx)
}

// Register creates a new business account. Identical contract to Login
// against the signup endpoint.
func (s *Store) Register(ctx context.Context, data RegisterData) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	grant, err := s.api.Signup(ctx, authapi.SignupRequest{
		BusinessName: data.BusinessName,
		Email:        data.Email,
		Password:     data.Password,
		Name:         data.Name,
		Phone:        data.Phone,
	})
	s.recordOp("register", err)
	if err != nil {
		s.log.Debug().Err(err).Str("email", data.Email).Msg("registration rejected")
		return surfaceErr(err, registerFallbackErr)
	}

	s.applyGrant(grant)
	return s.commit(ctx)
}

// Logout notifies the remote service best-effort, then unconditionally clears
// both the in-memory session and durable storage. It never fails.
func (s *Store) Logout(ctx context.Context) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.logoutLocked(ctx)
}

// RefreshAccessToken exchanges the stored refresh token for a new grant.
// Without a stored refresh token it fails immediately, no network call made.
// Any refresh failure clears the session: callers must treat the returned
// ErrSessionExpired as "re-authenticate".
func (s *Store) RefreshAccessToken(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.RLock()
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	if refreshToken == nil {
		return ErrNoRefreshToken
	}

	grant, err := s.api.Refresh(ctx, *refreshToken)
	s.recordOp("refresh", err)
	if err != nil {
		s.log.Info().Err(err).Msg("token refresh failed, clearing session")
		s.logoutLocked(ctx)
		return ErrSessionExpired
	}

	s.applyGrant(grant)
	return s.commit(ctx)
}

// SetUser overrides the identity record directly. IsAuthenticated is derived,
// so it follows automatically.
func (s *Store) SetUser(user *User) {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	if err := s.commit(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist user override")
	}
}

// SetToken overrides the access token directly, mirroring the change to
// durable storage.
func (s *Store) SetToken(token *string) {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()

	if err := s.commit(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token override")
	}
}

// SetHasHydrated marks persisted state as loaded. Consumers must not make
// authentication decisions before this reports true.
func (s *Store) SetHasHydrated(hydrated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasHydrated = hydrated
}

// Hydrate restores the session from durable storage. It runs at most once per
// Store; HasHydrated reports true afterwards even when nothing was stored.
func (s *Store) Hydrate(ctx context.Context) error {
	var err error
	s.hydrateOnce.Do(func() {
		err = s.hydrate(ctx)
	})
	return err
}

func (s *Store) hydrate(ctx context.Context) error {
	defer s.SetHasHydrated(true)

	var firstErr error
	read := func(key string) *string {
		value, err := s.repo.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		return &value
	}

	accessToken := read(storage.AccessTokenKey)
	refreshToken := read(storage.RefreshTokenKey)

	var user *User
	if raw := read(storage.SnapshotKey); raw != nil {
		var snap snapshot
		if err := json.Unmarshal([]byte(*raw), &snap); err != nil {
			s.log.Warn().Err(err).Msg("discarding unreadable session snapshot")
		} else {
			user = snap.User
		}
	}

	s.mu.Lock()
	s.user = user
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.mu.Unlock()

	return errors.Wrap(firstErr, "[Store.hydrate] storage read")
}

// User returns a copy of the identity record, or nil when unauthenticated.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Token returns the current access token, or nil.
func (s *Store) Token() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accessToken == nil {
		return nil
	}
	token := *s.accessToken
	return &token
}

// IsAuthenticated reports true iff a user and an access token are both held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.accessToken != nil
}

func (s *Store) HasHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasHydrated
}

func (s *Store) applyGrant(grant *authapi.Grant) {
	user := mapUser(grant.User)

	s.mu.Lock()
	s.user = &user
	s.accessToken = &grant.AccessToken
	s.refreshToken = &grant.RefreshToken
	s.mu.Unlock()
}

func (s *Store) logoutLocked(ctx context.Context) {
	s.mu.RLock()
	accessToken := s.accessToken
	s.mu.RUnlock()

	if accessToken != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutNotifyTimeout)
		err := s.api.Logout(notifyCtx, *accessToken)
		s.recordOp("logout", err)
		if err != nil {
			s.log.Debug().Err(err).Msg("remote logout notification failed")
		}
		cancel()
	}

	s.mu.Lock()
	s.user = nil
	s.accessToken = nil
	s.refreshToken = nil
	s.mu.Unlock()

	// Local clearing is unconditional. A dead context must not leave stale
	// credentials in durable storage.
	if err := s.commit(context.WithoutCancel(ctx)); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear durable session state")
	}
}

// commit writes the current session through to durable storage: the two token
// keys plus the identity snapshot.
func (s *Store) commit(ctx context.Context) error {
	s.mu.RLock()
	user := s.user
	accessToken := s.accessToken
	refreshToken := s.refreshToken
	s.mu.RUnlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	writeKey := func(key string, value *string) {
		if value == nil {
			record(s.repo.Delete(ctx, key))
			return
		}
		record(s.repo.Set(ctx, key, *value))
	}

	writeKey(storage.AccessTokenKey, accessToken)
	writeKey(storage.RefreshTokenKey, refreshToken)

	snap, err := json.Marshal(snapshot{
		User:            user,
		IsAuthenticated: user != nil && accessToken != nil,
	})
	record(err)
	if err == nil {
		if user == nil && accessToken == nil && refreshToken == nil {
			record(s.repo.Delete(ctx, storage.SnapshotKey))
		} else {
			record(s.repo.Set(ctx, storage.SnapshotKey, string(snap)))
		}
	}

	return errors.Wrap(firstErr, "[Store.commit] write-through")
}

func mapUser(record authapi.UserRecord) User {
	return User{
		ID:               record.ID,
		Email:            record.Email,
		Name:             record.FullName,
		Role:             record.Role,
		BusinessID:       record.BusinessID,
		ProfileCompleted: record.ProfileCompleted,
	}
}

func (s *Store) recordOp(operation string, err error) {
	if s.recorder != nil {
		s.recorder.RecordAuthOp(operation, err)
	}
}

// surfaceErr returns the service's structured message verbatim when there is
// one, otherwise the per-operation fallback.
func surfaceErr(err error, fallback error) error {
	var apiErr *authapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr
	}
	return fallback
}
