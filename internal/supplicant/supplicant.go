// Package supplicant is a thin, synchronous client for wpa_supplicant's
// local datagram control socket.
package supplicant

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"provisiond/internal/aputil"
)

// ErrSupplicantFailure is returned when the supplicant replies with an
// explicit FAIL, an empty reply, or the socket errors out.
var ErrSupplicantFailure = errors.New("supplicant command failed")

const readTimeout = 5 * time.Second

// clientSocketPrefix names the directory and stem this daemon uses for its
// own end of the control socket. Dial appends "-<pid>" to get a unique
// path; ClientSocketGlob appends "-*" so a sanitizer run can find and
// remove instances left behind by a prior, uncleanly-terminated process.
const clientSocketPrefix = "/tmp/provisiond_ctrl_"

// ClientSocketGlob returns the glob pattern matching every client-side
// control socket this daemon may have created for iface, across process
// restarts.
func ClientSocketGlob(iface string) string {
	return clientSocketPrefix + iface + "-*"
}

// Client is a synchronous request/reply handle to a single wpa_supplicant
// control socket. Request holds the Client's own mutex for the whole
// write-and-read round-trip, so requests from concurrent goroutines are
// serialized one at a time.
type Client struct {
	conn       *net.UnixConn
	localPath  string
	remotePath string
	log        *zap.SugaredLogger
	mu         sync.Mutex
}

// Dial connects to the supplicant control socket for iface inside ctrlDir,
// creating our own datagram endpoint at a well-known path in /tmp.
func Dial(ctrlDir, iface string, log *zap.SugaredLogger) (*Client, error) {
	remotePath := ctrlDir + "/" + iface
	localPath := fmt.Sprintf("%s%s-%d", clientSocketPrefix, iface, os.Getpid())

	if aputil.FileExists(localPath) {
		os.Remove(localPath)
	}

	laddr := net.UnixAddr{Name: localPath, Net: "unixgram"}
	raddr := net.UnixAddr{Name: remotePath, Net: "unixgram"}

	conn, err := net.DialUnix("unixgram", &laddr, &raddr)
	if err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("dialing %s: %w", remotePath, err)
	}

	return &Client{
		conn:       conn,
		localPath:  localPath,
		remotePath: remotePath,
		log:        log,
	}, nil
}

// Close releases the local socket endpoint.
func (c *Client) Close() error {
	err := c.conn.Close()
	os.Remove(c.localPath)
	return err
}

// isUnsolicited reports whether a message is an unprompted event line
// rather than a reply to our last request. wpa_supplicant prefixes event
// lines with a priority tag in angle brackets, e.g. "<3>CTRL-EVENT-SCAN-STARTED".
func isUnsolicited(msg string) bool {
	return strings.HasPrefix(msg, "<")
}

// Request sends cmd and returns the first solicited reply, discarding any
// unsolicited event lines read in between. A FAIL reply, an empty reply,
// or a socket error all surface as ErrSupplicantFailure.
func (c *Client) Request(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(readTimeout))
	if _, err := c.conn.Write([]byte(cmd)); err != nil {
		return "", fmt.Errorf("%w: writing %q: %v", ErrSupplicantFailure, cmd, err)
	}

	buf := make([]byte, 8192)
	for {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := c.conn.Read(buf)
		if err != nil {
			return "", fmt.Errorf("%w: reading reply to %q: %v", ErrSupplicantFailure, cmd, err)
		}

		reply := string(buf[:n])
		if isUnsolicited(reply) {
			if c.log != nil {
				c.log.Debugf("discarding unsolicited: %s", strings.TrimSpace(reply))
			}
			continue
		}

		if reply == "" || strings.HasPrefix(reply, "FAIL") {
			return "", fmt.Errorf("%w: %q -> %q", ErrSupplicantFailure, cmd, reply)
		}
		return reply, nil
	}
}

// Scan issues a SCAN request.
func (c *Client) Scan() error {
	_, err := c.Request("SCAN")
	return err
}

// ScanResults returns the raw tab-separated SCAN_RESULTS body.
func (c *Client) ScanResults() (string, error) {
	return c.Request("SCAN_RESULTS")
}

// AddNetwork adds a new, disabled network block and returns its id.
func (c *Client) AddNetwork() (int, error) {
	reply, err := c.Request("ADD_NETWORK")
	if err != nil {
		return 0, err
	}
	id, convErr := strconv.Atoi(strings.TrimSpace(reply))
	if convErr != nil {
		return 0, fmt.Errorf("%w: ADD_NETWORK returned %q", ErrSupplicantFailure, reply)
	}
	return id, nil
}

// SetNetwork sets a single field on network id.
func (c *Client) SetNetwork(id int, field, value string) error {
	_, err := c.Request(fmt.Sprintf("SET_NETWORK %d %s %s", id, field, value))
	return err
}

// EnableNetwork enables network id.
func (c *Client) EnableNetwork(id int) error {
	_, err := c.Request(fmt.Sprintf("ENABLE_NETWORK %d", id))
	return err
}

// RemoveNetwork removes network id. A FAIL reply surfaces as
// ErrSupplicantFailure like any other failed request.
func (c *Client) RemoveNetwork(id int) error {
	_, err := c.Request(fmt.Sprintf("REMOVE_NETWORK %d", id))
	return err
}

// SaveConfig persists the current network list to the supplicant's config
// file, if update_config was enabled when that file was written.
func (c *Client) SaveConfig() error {
	_, err := c.Request("SAVE_CONFIG")
	return err
}

// Status returns the STATUS reply parsed into field/value pairs.
func (c *Client) Status() (map[string]string, error) {
	reply, err := c.Request("STATUS")
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) == 2 {
			fields[kv[0]] = kv[1]
		}
	}
	return fields, nil
}
