package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

const (
	defaultChallengePrefix = "otp"

	fieldCode      = "code"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// ChallengeRepository persists verification challenges in Redis. One key per
// (contact, code) pair, so a contact may hold several live challenges at
// once. The key TTL mirrors the expires_at field; validity is still decided
// by the stored timestamp so a lagging eviction never extends a challenge.
type ChallengeRepository struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewChallengeRepository constructs a challenge repository with the provided
// Redis client and key prefix.
func NewChallengeRepository(client *red.Client, keyPrefix string) *ChallengeRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultChallengePrefix
	}

	return &ChallengeRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Issue persists a challenge for the contact with the supplied code and TTL.
// Earlier challenges for the same contact are left outstanding.
func (r *ChallengeRepository) Issue(ctx context.Context, contact, code string, ttl time.Duration) (*domain.Challenge, error) {
	contact = strings.TrimSpace(contact)
	code = strings.TrimSpace(code)

	switch {
	case contact == "":
		return nil, errors.New("contact is required")
	case code == "":
		return nil, errors.New("code is required")
	case ttl <= 0:
		return nil, errors.New("ttl must be positive")
	}

	now := r.now().UTC()
	expiresAt := now.Add(ttl)
	key := r.key(contact, code)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code,
		fieldCreatedAt: strconv.FormatInt(now.Unix(), 10),
		fieldExpiresAt: strconv.FormatInt(expiresAt.Unix(), 10),
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis store challenge: %w", err)
	}

	return &domain.Challenge{
		Contact:   contact,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate checks that an unexpired challenge with the exact code exists for
// the contact. A missing record and an expired one are indistinguishable to
// the caller; both return repository.ErrNotFound. Stored timestamps are unix
// seconds and are always interpreted as UTC.
func (r *ChallengeRepository) Validate(ctx context.Context, contact, code string) error {
	contact = strings.TrimSpace(contact)
	code = strings.TrimSpace(code)
	if contact == "" || code == "" {
		return repository.ErrNotFound
	}

	values, err := r.client.HGetAll(ctx, r.key(contact, code)).Result()
	if err != nil {
		return fmt.Errorf("redis hgetall challenge: %w", err)
	}
	if len(values) == 0 {
		return repository.ErrNotFound
	}

	if values[fieldCode] != code {
		return repository.ErrNotFound
	}

	expiresAt, err := parseUnix(values[fieldExpiresAt])
	if err != nil {
		return fmt.Errorf("parse expires_at: %w", err)
	}

	if r.now().UTC().After(expiresAt) {
		return repository.ErrNotFound
	}

	return nil
}

// ConsumeAll deletes every outstanding challenge for the contact. Deleting
// siblings too is deliberate policy: once one challenge is redeemed, none of
// the others should remain valid.
func (r *ChallengeRepository) ConsumeAll(ctx context.Context, contact string) error {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return errors.New("contact is required")
	}

	pattern := fmt.Sprintf("%s:%s:*", r.prefix, contact)

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan challenges: %w", err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete challenges: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// WithClock overrides the internal clock, used in tests.
func (r *ChallengeRepository) WithClock(clock func() time.Time) {
	if clock != nil {
		r.now = clock
	}
}

func (r *ChallengeRepository) key(contact, code string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, contact, code)
}

func parseUnix(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

var _ port.ChallengeRepository = (*ChallengeRepository)(nil)
