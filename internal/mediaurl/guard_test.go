package mediaurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

var testHosts = []Host{
	{Domain: "youtube.com", Kind: KindVideo},
	{Domain: "youtu.be", Kind: KindVideo},
	{Domain: "imgur.com", Kind: KindImage},
}

func TestCheckAcceptsAllowedHosts(t *testing.T) {
	g := NewGuard(testHosts, General)

	tests := []struct {
		in, want, kind string
	}{
		{"https://www.youtube.com/watch?v=x", "https://www.youtube.com/watch?v=x", KindVideo},
		{"  https://youtu.be/abc  ", "https://youtu.be/abc", KindVideo},
		{"HTTPS://I.IMGUR.COM/a.png#frag", "https://i.imgur.com/a.png", KindImage},
		{"https://user:pw@imgur.com/gallery/1", "https://imgur.com/gallery/1", KindImage},
		{"https://m.youtube.com:443/shorts/a%20b", "https://m.youtube.com:443/shorts/a%20b", KindVideo},
	}
	for _, tt := range tests {
		res, err := g.Check(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, res.URL, tt.in)
		assert.Equal(t, tt.kind, res.Kind, tt.in)
	}
}

func TestCheckVideoOnlyDropsQuery(t *testing.T) {
	g := NewGuard(testHosts, VideoOnly)
	res, err := g.Check("https://www.youtube.com/watch?v=x&utm_source=spam#t=10")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch", res.URL)
}

func TestCheckRejections(t *testing.T) {
	g := NewGuard(testHosts, General)

	tests := []struct {
		in   string
		kind rejection.Kind
	}{
		{"not a url", rejection.InvalidFormat},
		{"", rejection.InvalidFormat},
		{"https://", rejection.InvalidFormat},
		{"//youtube.com/x", rejection.InvalidFormat},
		{"https://youtube.com/%zz", rejection.InvalidFormat},
		{"http://youtube.com/x", rejection.InsecureProtocol},
		{"javascript:alert(1)", rejection.InvalidFormat},
		{"ftp://youtube.com/x", rejection.InsecureProtocol},
		{"https://evilyoutube.com/x", rejection.DomainNotAllowed},
		{"https://evil-imgur.com/x", rejection.DomainNotAllowed},
		{"https://youtube.com.evil.com/x", rejection.DomainNotAllowed},
		{"https://notyoutube.com.evil.com/x", rejection.DomainNotAllowed},
		{"https://youtube.com@evil.com/x", rejection.DomainNotAllowed},
		{"https://example.com/?u=https://youtube.com", rejection.DomainNotAllowed},
	}
	for _, tt := range tests {
		_, err := g.Check(tt.in)
		require.Error(t, err, tt.in)
		rej, ok := rejection.As(err)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.kind, rej.Kind, tt.in)
		assert.Equal(t, "mediaUrl", rej.Field)
	}
}

func TestInsecureProtocolCheckedBeforeDomain(t *testing.T) {
	_, err := NewGuard(testHosts, General).Check("http://evil.com/x")
	assert.True(t, rejection.Is(err, rejection.InsecureProtocol))
}

func TestMatchesDomain(t *testing.T) {
	assert.True(t, MatchesDomain("youtube.com", "youtube.com"))
	assert.True(t, MatchesDomain("a.b.youtube.com", "youtube.com"))
	assert.False(t, MatchesDomain("xyoutube.com", "youtube.com"))
	assert.False(t, MatchesDomain("youtube.com", ""))
}
