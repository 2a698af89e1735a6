package irc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePrivmsg(t *testing.T) {
	msg, err := Decode([]byte(":nick!user@host PRIVMSG #chan :hello world\r\n"))
	require.NoError(t, err)

	require.NotNil(t, msg.Prefix)
	require.NotNil(t, msg.Prefix.Nick)
	require.NotNil(t, msg.Prefix.User)
	assert.Equal(t, "nick", *msg.Prefix.Nick)
	assert.Equal(t, "user", *msg.Prefix.User)
	assert.Equal(t, "host", msg.Prefix.Host)
	assert.Equal(t, ":nick!user@host", msg.Prefix.Raw)
	assert.Equal(t, "PRIVMSG", msg.Command)
	assert.Equal(t, "#chan :hello world", msg.Params)
	assert.True(t, msg.HasParams)
	assert.Equal(t, ":nick!user@host PRIVMSG #chan :hello world\r\n", msg.Raw)
}

func TestDecodeServerPrefix(t *testing.T) {
	msg, err := Decode([]byte(":irc.example.org 001 bob :Welcome to the network\r\n"))
	require.NoError(t, err)

	require.NotNil(t, msg.Prefix)
	assert.Nil(t, msg.Prefix.Nick)
	assert.Nil(t, msg.Prefix.User)
	assert.Equal(t, "irc.example.org", msg.Prefix.Host)
	assert.Equal(t, "", msg.Prefix.Name())
	assert.Equal(t, "001", msg.Command)
	assert.Equal(t, "bob :Welcome to the network", msg.Params)
}

func TestDecodeWithoutPrefix(t *testing.T) {
	msg, err := Decode([]byte("PING :irc.example.org\r\n"))
	require.NoError(t, err)

	assert.Nil(t, msg.Prefix)
	assert.Equal(t, "PING", msg.Command)
	assert.Equal(t, ":irc.example.org", msg.Params)

	msg, err = Decode([]byte("QUIT\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "QUIT", msg.Command)
	assert.False(t, msg.HasParams)
	assert.Equal(t, "", msg.Params)
}

func TestDecodeKeepsCommandCase(t *testing.T) {
	msg, err := Decode([]byte(":a!b@c privmsg #chan :hi\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "privmsg", msg.Command)
}

func TestDecodeMalformed(t *testing.T) {
	for _, line := range []string{"", "\r\n", " \r\n", ":irc.example.org\r\n", ":irc.example.org \r\n"} {
		_, err := Decode([]byte(line))
		assert.ErrorIs(t, err, ErrMalformedLine, "line %q", line)
	}
}

func TestDecodeModeDropsPrefix(t *testing.T) {
	msg, err := Decode([]byte(":bob!b@host MODE bob :+i\r\n"))
	require.NoError(t, err)
	assert.Nil(t, msg.Prefix)
	assert.Equal(t, "MODE", msg.Command)
	assert.Equal(t, "bob :+i", msg.Params)
}

func TestDecodeStripsOnlyFinalCRLF(t *testing.T) {
	msg, err := Decode([]byte("PRIVMSG #a :one\r\ntwo\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "#a :one\r\ntwo", msg.Params)

	msg, err = Decode([]byte("PRIVMSG #a :no terminator"))
	require.NoError(t, err)
	assert.Equal(t, "#a :no terminator", msg.Params)
}

func TestDecodeLatin1(t *testing.T) {
	msg, err := Decode([]byte("PRIVMSG #a :caf\xe9\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "#a :café", msg.Params)
}

func TestEncode(t *testing.T) {
	msg := Encode("privmsg", "#a :hi there")
	assert.Equal(t, "PRIVMSG", msg.Command)
	assert.Nil(t, msg.Prefix)
	assert.Equal(t, "PRIVMSG #a :hi there\r\n", msg.Raw)
	assert.Equal(t, []byte("PRIVMSG #a :hi there\r\n"), msg.Bytes())
	assert.Equal(t, "PRIVMSG #a :hi there", msg.String())

	assert.Equal(t, "QUIT\r\n", NewMessage("quit").Raw)
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	lines := []string{
		"privmsg #chan :hello world",
		"NOTICE bob :  spaced  out  ",
		"TOPIC #go :a: b: c",
		"user bob 0 * :Bob the Builder",
		"332 bob #chan :the topic",
	}

	for _, line := range lines {
		msg, err := Decode([]byte(line + "\r\n"))
		require.NoError(t, err)

		out := Encode(msg.Command, msg.Params)
		assert.Equal(t, strings.ToUpper(msg.Command), out.Command)

		i := strings.Index(line, " :")
		require.NotEqual(t, -1, i)
		trailing := line[i+2:]
		j := strings.Index(out.String(), " :")
		assert.Equal(t, trailing, out.String()[j+2:], "line %q", line)
	}
}

func TestParsePrefix(t *testing.T) {
	p := ParsePrefix(":alice!~al@example.com")
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.Name())
	assert.Equal(t, "~al", *p.User)
	assert.Equal(t, "example.com", p.Host)

	p = ParsePrefix(":irc.example.org")
	require.NotNil(t, p)
	assert.Nil(t, p.Nick)
	assert.Equal(t, "irc.example.org", p.Host)

	p = ParsePrefix(":weird@host!user")
	require.NotNil(t, p)
	assert.Nil(t, p.Nick)
	assert.Equal(t, "weird@host!user", p.Host)

	assert.Nil(t, ParsePrefix("no-colon"))

	var nilPrefix *Prefix
	assert.Equal(t, "", nilPrefix.Name())
}

func TestParseTargetText(t *testing.T) {
	tests := []struct {
		params string
		target string
		text   string
		ok     bool
	}{
		{"#chan :hello world", "#chan", "hello world", true},
		{"#chan hello", "#chan", "hello", true},
		{"bob ::)", "bob", ":)", true},
		{"#chan", "#chan", "", true},
		{":#chan", "#chan", "", true},
		{"#chan :", "#chan", "", true},
		{"", "", "", false},
	}

	for _, test := range tests {
		target, text, ok := ParseTargetText(test.params)
		assert.Equal(t, test.ok, ok, "params %q", test.params)
		if ok {
			assert.Equal(t, test.target, target, "params %q", test.params)
			assert.Equal(t, test.text, text, "params %q", test.params)
		}
	}
}

func TestParseChannelText(t *testing.T) {
	channel, text, ok := ParseChannelText("bob #chan :the topic")
	assert.True(t, ok)
	assert.Equal(t, "#chan", channel)
	assert.Equal(t, "the topic", text)

	channel, text, ok = ParseChannelText("bob #chan :End of /NAMES list.")
	assert.True(t, ok)
	assert.Equal(t, "#chan", channel)
	assert.Equal(t, "End of /NAMES list.", text)

	_, _, ok = ParseChannelText("bob")
	assert.False(t, ok)
	_, _, ok = ParseChannelText("bob :only trailing")
	assert.False(t, ok)
}

func TestParseNamesReply(t *testing.T) {
	channel, nicks, ok := ParseNamesReply("bob @ #chan :alice  @bob +carol ")
	require.True(t, ok)
	assert.Equal(t, "#chan", channel)
	assert.Equal(t, []string{"alice", "@bob", "+carol"}, nicks)

	channel, nicks, ok = ParseNamesReply("bob = #chan dave")
	require.True(t, ok)
	assert.Equal(t, "#chan", channel)
	assert.Equal(t, []string{"dave"}, nicks)

	_, _, ok = ParseNamesReply("bob ! #chan :alice")
	assert.False(t, ok)
	_, _, ok = ParseNamesReply("bob @")
	assert.False(t, ok)
}
