package claim_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/claim"
	authErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newCodec(t *testing.T, access, refresh string) (*claim.Codec, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c, err := claim.NewCodec(claim.Config{
		AccessSecret:  []byte(access),
		RefreshSecret: []byte(refresh),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}, claim.WithClock(clk.now))
	require.NoError(t, err)
	return c, clk
}

func TestCodec_RoundTrip(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	uid := uuid.New()

	enc, err := claim.Sign(c, claim.NewAccessSubject(uid))
	require.NoError(t, err)
	require.Len(t, strings.Split(enc.String(), "."), 3)

	dec, err := claim.Decode(c, enc)
	require.NoError(t, err)
	require.Equal(t, uid, dec.Subject().UserID)
	require.True(t, clk.t.Equal(dec.IssuedAt()))
	require.True(t, clk.t.Add(time.Minute).Equal(dec.ExpiresAt()))
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	c, _ := newCodec(t, "access-secret", "refresh-secret")
	tid := uuid.New()

	enc, err := claim.Sign(c, claim.NewRefreshSubject(tid))
	require.NoError(t, err)

	dec, err := claim.Verify[claim.RefreshSubject](c, enc.String())
	require.NoError(t, err)
	require.Equal(t, tid, dec.Subject().TokenID)
	require.Equal(t, time.Hour, claim.Lifetime[claim.RefreshSubject](c))
}

func TestCodec_WrongSecret(t *testing.T) {
	signer, _ := newCodec(t, "access-secret", "refresh-secret")
	verifier, _ := newCodec(t, "other-access", "other-refresh")

	enc, err := claim.Sign(signer, claim.NewAccessSubject(uuid.New()))
	require.NoError(t, err)

	_, err = claim.Decode(verifier, enc)
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestCodec_KindsAreNotInterchangeable(t *testing.T) {
	c, _ := newCodec(t, "access-secret", "refresh-secret")
	id := uuid.New()

	refresh, err := claim.Sign(c, claim.NewRefreshSubject(id))
	require.NoError(t, err)
	_, err = claim.Verify[claim.AccessSubject](c, refresh.String())
	require.True(t, authErrors.IsInvalidToken(err))

	access, err := claim.Sign(c, claim.NewAccessSubject(id))
	require.NoError(t, err)
	_, err = claim.Verify[claim.RefreshSubject](c, access.String())
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestCodec_Expired(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")

	enc, err := claim.Sign(c, claim.NewAccessSubject(uuid.New()))
	require.NoError(t, err)

	clk.advance(59 * time.Second)
	_, err = claim.Decode(c, enc)
	require.NoError(t, err)

	clk.advance(2 * time.Second)
	_, err = claim.Decode(c, enc)
	require.ErrorIs(t, err, authErrors.ErrInvalidToken)
}

func TestCodec_Garbage(t *testing.T) {
	c, _ := newCodec(t, "access-secret", "refresh-secret")
	for _, raw := range []string{"", "bad", "a.b.c"} {
		_, err := claim.Verify[claim.AccessSubject](c, raw)
		require.True(t, authErrors.IsInvalidToken(err), raw)
	}
}

func TestCodec_TamperedPayload(t *testing.T) {
	c, _ := newCodec(t, "access-secret", "refresh-secret")
	enc, err := claim.Sign(c, claim.NewAccessSubject(uuid.New()))
	require.NoError(t, err)

	parts := strings.Split(enc.String(), ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))
	fields["uid"] = uuid.NewString()
	forged, err := json.Marshal(fields)
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	_, err = claim.Verify[claim.AccessSubject](c, strings.Join(parts, "."))
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestCodec_RejectsOtherAlgorithms(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	mc := jwt.MapClaims{
		"uid": uuid.NewString(),
		"iat": clk.t.Unix(),
		"exp": clk.t.Add(time.Minute).Unix(),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, mc).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = claim.Verify[claim.AccessSubject](c, none)
	require.True(t, authErrors.IsInvalidToken(err))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, mc).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = claim.Verify[claim.AccessSubject](c, hs512)
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestCodec_RequiresExpiry(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": uuid.NewString(),
		"iat": clk.t.Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = claim.Verify[claim.AccessSubject](c, raw)
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestCodec_RejectsEmptySubject(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": clk.t.Unix(),
		"exp": clk.t.Add(time.Minute).Unix(),
	}).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = claim.Verify[claim.AccessSubject](c, raw)
	require.True(t, authErrors.IsInvalidToken(err))
}

func TestCodec_PayloadIsFlat(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	uid := uuid.New()

	enc, err := claim.Sign(c, claim.NewAccessSubject(uid))
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(enc.String(), ".")[1])
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(payload, &fields))

	require.Equal(t, uid.String(), fields["uid"])
	require.EqualValues(t, clk.t.Unix(), fields["iat"])
	require.EqualValues(t, clk.t.Add(time.Minute).Unix(), fields["exp"])
}

func TestCodec_ReissueHasNewIssuedAt(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	uid := uuid.New()

	first, err := claim.Sign(c, claim.NewAccessSubject(uid))
	require.NoError(t, err)
	clk.advance(time.Second)
	second, err := claim.Sign(c, claim.NewAccessSubject(uid))
	require.NoError(t, err)
	require.NotEqual(t, first.String(), second.String())

	d1, err := claim.Decode(c, first)
	require.NoError(t, err)
	d2, err := claim.Decode(c, second)
	require.NoError(t, err)
	require.Equal(t, d1.Subject(), d2.Subject())
	require.True(t, d2.IssuedAt().After(d1.IssuedAt()))
}

func TestDecoded_MarshalJSON(t *testing.T) {
	c, clk := newCodec(t, "access-secret", "refresh-secret")
	uid := uuid.New()
	enc, err := claim.Sign(c, claim.NewAccessSubject(uid))
	require.NoError(t, err)
	dec, err := claim.Decode(c, enc)
	require.NoError(t, err)

	out, err := json.Marshal(dec)
	require.NoError(t, err)
	require.JSONEq(t,
		`{"uid":"`+uid.String()+`","iat":`+jsonInt(clk.t.Unix())+`,"exp":`+jsonInt(clk.t.Add(time.Minute).Unix())+`}`,
		string(out))

	encJSON, err := json.Marshal(enc)
	require.NoError(t, err)
	require.Equal(t, `"`+enc.String()+`"`, string(encJSON))
}

func TestNewCodec_Validation(t *testing.T) {
	_, err := claim.NewCodec(claim.Config{RefreshSecret: []byte("r")})
	require.Error(t, err)
	_, err = claim.NewCodec(claim.Config{AccessSecret: []byte("a")})
	require.Error(t, err)
	_, err = claim.NewCodec(claim.Config{AccessSecret: []byte("same"), RefreshSecret: []byte("same")})
	require.Error(t, err)

	c, err := claim.NewCodec(claim.Config{AccessSecret: []byte("a"), RefreshSecret: []byte("r")})
	require.NoError(t, err)
	require.Equal(t, claim.DefaultAccessTTL, claim.Lifetime[claim.AccessSubject](c))
	require.Equal(t, claim.DefaultRefreshTTL, claim.Lifetime[claim.RefreshSubject](c))
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
