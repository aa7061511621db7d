package supplicant

import (
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeSupplicant is a minimal unixgram peer standing in for
// wpa_supplicant: it echoes a canned reply for each request it receives,
// and can be told to interleave an unsolicited event line first.
type fakeSupplicant struct {
	conn *net.UnixConn
	path string
}

func newFakeSupplicant(t *testing.T) *fakeSupplicant {
	t.Helper()

	path := t.TempDir() + "/ctrl"
	addr := net.UnixAddr{Name: path, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", &addr)
	require.NoError(t, err)

	return &fakeSupplicant{conn: conn, path: path}
}

func (f *fakeSupplicant) respond(t *testing.T, reply string) net.Addr {
	t.Helper()

	buf := make([]byte, 4096)
	f.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, peer, err := f.conn.ReadFromUnix(buf)
	require.NoError(t, err)
	_ = n

	_, err = f.conn.WriteToUnix([]byte(reply), peer)
	require.NoError(t, err)
	return peer
}

func (f *fakeSupplicant) close() {
	f.conn.Close()
	os.Remove(f.path)
}

func dialFake(t *testing.T, f *fakeSupplicant) *Client {
	t.Helper()

	localPath := t.TempDir() + "/local"
	laddr := net.UnixAddr{Name: localPath, Net: "unixgram"}
	raddr := net.UnixAddr{Name: f.path, Net: "unixgram"}

	conn, err := net.DialUnix("unixgram", &laddr, &raddr)
	require.NoError(t, err)

	return &Client{conn: conn, localPath: localPath, remotePath: f.path}
}

func TestRequestReturnsSolicitedReply(t *testing.T) {
	fake := newFakeSupplicant(t)
	defer fake.close()

	client := dialFake(t, fake)
	defer client.Close()

	done := make(chan struct{})
	go func() {
		fake.respond(t, "OK")
		close(done)
	}()

	reply, err := client.Request("PING")
	<-done
	require.NoError(t, err)
	require.Equal(t, "OK", reply)
}

func TestRequestDiscardsUnsolicitedEvents(t *testing.T) {
	fake := newFakeSupplicant(t)
	defer fake.close()

	client := dialFake(t, fake)
	defer client.Close()

	done := make(chan struct{})
	go func() {
		peer := fake.respond(t, "<3>CTRL-EVENT-SCAN-STARTED")
		_, err := fake.conn.WriteToUnix([]byte("1"), peer)
		require.NoError(t, err)
		close(done)
	}()

	id, err := client.AddNetwork()
	<-done
	require.NoError(t, err)
	require.Equal(t, 1, id)
}

func TestRequestSurfacesFailReply(t *testing.T) {
	fake := newFakeSupplicant(t)
	defer fake.close()

	client := dialFake(t, fake)
	defer client.Close()

	done := make(chan struct{})
	go func() {
		fake.respond(t, "FAIL")
		close(done)
	}()

	_, err := client.Request("SET_NETWORK 0 ssid foo")
	<-done
	require.True(t, errors.Is(err, ErrSupplicantFailure), "got %v", err)
}
