package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticQuery struct {
	status string
	err    error
}

func (q staticQuery) MemberStatus(context.Context, string, int64) (string, error) {
	return q.status, q.err
}

func TestMembershipPolicy(t *testing.T) {
	cases := map[string]Verdict{
		"creator":       Member,
		"administrator": Member,
		"member":        Member,
		"restricted":    Member,
		"left":          NotMember,
		"kicked":        NotMember,
	}
	for status, want := range cases {
		got := New(staticQuery{status: status}).Check(context.Background(), "@chan", 1)
		assert.Equal(t, want, got, status)
	}
}

func TestQueryFailureIsUnverified(t *testing.T) {
	g := New(staticQuery{err: errors.New("telegram: chat not found (400)")})
	assert.Equal(t, Unverified, g.Check(context.Background(), "@missing", 1))

	var nilGate *Gate
	assert.Equal(t, Unverified, nilGate.Check(context.Background(), "@chan", 1))
}

func TestUnboundTelegramAdapter(t *testing.T) {
	g := New(&Telegram{})
	assert.Equal(t, Unverified, g.Check(context.Background(), "@chan", 1))

	_, err := (&Telegram{}).MemberStatus(context.Background(), "@chan", 1)
	assert.ErrorIs(t, err, ErrUnbound)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "member", Member.String())
	assert.Equal(t, "not_member", NotMember.String())
	assert.Equal(t, "unverified", Unverified.String())
}
