// Package likes stores Like counters, channel bindings, vote records and the
// per-owner index in the key-value store.
package likes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m3rciful/likebot/core/kv"
	"github.com/m3rciful/likebot/core/logger"
)

var (
	// ErrNotFound means the Like does not exist or the id is malformed.
	ErrNotFound = errors.New("likes: not found")
	// ErrInvalidName rejects empty or oversized Like names.
	ErrInvalidName = errors.New("likes: invalid name")
)

// DefaultMaxNameLength bounds Like names, in runes.
const DefaultMaxNameLength = 64

const component = "service.likes"

// Like is a shareable counter.
type Like struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	CreatedAt time.Time `json:"created_at"`
	Likes     int       `json:"likes"`
}

// Owner identifies the creator of a Like.
type Owner struct {
	ID          int64
	DisplayName string
}

// Vote is the record that makes a vote idempotent.
type Vote struct {
	VotedAt time.Time `json:"voted_at"`
}

// Stats summarises an owner's Likes.
type Stats struct {
	Total int
	// Recent holds the newest Likes first.
	Recent []Like
}

func LikeKey(id string) string        { return "like:" + id }
func ChannelKey(ownerID int64) string { return "user_channel:" + strconv.FormatInt(ownerID, 10) }
func IndexKey(ownerID int64) string   { return "user_likes:" + strconv.FormatInt(ownerID, 10) }
func VoteKey(voterID int64, likeID string) string {
	return "user_liked:" + strconv.FormatInt(voterID, 10) + ":" + likeID
}

// ValidID reports whether id is a canonical Like id.
func ValidID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// Store is the typed view over kv.Store.
type Store struct {
	kv      kv.Store
	now     func() time.Time
	newID   func() string
	maxName int
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxNameLength overrides DefaultMaxNameLength when n > 0.
func WithMaxNameLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxName = n
		}
	}
}

// New returns a Store over store.
func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		maxName: DefaultMaxNameLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxNameLength is the effective name limit in runes.
func (s *Store) MaxNameLength() int { return s.maxName }

// ValidateName trims name and checks it is 1..MaxNameLength runes.
func (s *Store) ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > s.maxName {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, s.maxName)
	}
	return name, nil
}

// Like loads a Like by id.
func (s *Store) Like(ctx context.Context, id string) (*Like, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	like, err := kv.GetJSON[Like](ctx, s.kv, LikeKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load like: %w", err)
	}
	return &like, nil
}

// SaveLike overwrites the Like record.
func (s *Store) SaveLike(ctx context.Context, like *Like) error {
	if err := kv.SetJSON(ctx, s.kv, LikeKey(like.ID), like); err != nil {
		return fmt.Errorf("save like: %w", err)
	}
	return nil
}

// CreateLike validates name, persists a new Like with zero votes and appends
// it to the owner's index.
func (s *Store) CreateLike(ctx context.Context, owner Owner, name string) (*Like, error) {
	name, err := s.ValidateName(name)
	if err != nil {
		return nil, err
	}
	like := &Like{
		ID:        s.newID(),
		Name:      name,
		OwnerID:   owner.ID,
		OwnerName: owner.DisplayName,
		CreatedAt: s.now().UTC(),
	}
	if err := s.SaveLike(ctx, like); err != nil {
		return nil, err
	}

	// Read-modify-write: two concurrent creations by one owner may drop an id.
	ids, err := s.OwnerLikes(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	if err := kv.SetJSON(ctx, s.kv, IndexKey(owner.ID), append(ids, like.ID)); err != nil {
		return nil, fmt.Errorf("append like index: %w", err)
	}

	logger.Info(ctx, component, "like.created",
		slog.String("status", "ok"),
		slog.String("like_id", like.ID),
		slog.Int64("owner_id", owner.ID),
	)
	return like, nil
}

// OwnerLikes returns the owner's Like ids, oldest first.
func (s *Store) OwnerLikes(ctx context.Context, ownerID int64) ([]string, error) {
	ids, err := kv.GetJSON[[]string](ctx, s.kv, IndexKey(ownerID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load like index: %w", err)
	}
	return ids, nil
}

// Channel returns the owner's bound channel handle.
func (s *Store) Channel(ctx context.Context, ownerID int64) (string, bool, error) {
	handle, err := kv.GetJSON[string](ctx, s.kv, ChannelKey(ownerID))
	if errors.Is(err, kv.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load channel binding: %w", err)
	}
	return handle, handle != "", nil
}

// SetChannel binds handle to the owner, replacing any previous binding.
func (s *Store) SetChannel(ctx context.Context, ownerID int64, handle string) error {
	if err := kv.SetJSON(ctx, s.kv, ChannelKey(ownerID), handle); err != nil {
		return fmt.Errorf("save channel binding: %w", err)
	}
	logger.Info(ctx, component, "channel.bound",
		slog.String("status", "ok"),
		slog.Int64("owner_id", ownerID),
		slog.String("channel", handle),
	)
	return nil
}

// HasVoted reports whether a vote record exists.
func (s *Store) HasVoted(ctx context.Context, voterID int64, likeID string) (bool, error) {
	_, err := s.kv.Get(ctx, VoteKey(voterID, likeID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load vote record: %w", err)
	}
}

// RecordVote writes the vote record unless one exists and reports whether it wrote.
func (s *Store) RecordVote(ctx context.Context, voterID int64, likeID string, at time.Time) (bool, error) {
	ok, err := kv.SetJSONNX(ctx, s.kv, VoteKey(voterID, likeID), Vote{VotedAt: at.UTC()})
	if err != nil {
		return false, fmt.Errorf("save vote record: %w", err)
	}
	return ok, nil
}

// Stats returns the number of Likes the owner created and up to limit of the
// newest ones. Ids whose record is missing are skipped.
func (s *Store) Stats(ctx context.Context, ownerID int64, limit int) (Stats, error) {
	ids, err := s.OwnerLikes(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(ids)}
	for i := len(ids) - 1; i >= 0 && len(st.Recent) < limit; i-- {
		like, err := s.Like(ctx, ids[i])
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Stats{}, err
		}
		st.Recent = append(st.Recent, *like)
	}
	return st, nil
}
