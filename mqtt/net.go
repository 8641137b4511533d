// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/packets"
	"github.com/gorilla/websocket"
)

// ConnectionProvider is a function that returns a net.Conn connected to an
// MQTT server that is ready to read to and write from. Note that the returned
// net.Conn must be thread-safe (i.e., concurrent Write calls must not
// interleave).
type ConnectionProvider func(context.Context) (net.Conn, error)

// TCPConnection is a ConnectionProvider that connects to an MQTT server over
// TCP.
func TCPConnection(hostname string, port uint16) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", hostPort(hostname, port))
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening TCP connection",
				wrapped: err,
			}
		}
		return packets.NewThreadSafeConn(conn), nil
	}
}

// TLSConnection is a ConnectionProvider that connects to an MQTT server with
// TLS over TCP. The TLS options are reapplied for every connection, so
// certificate files rotated on disk are picked up on reconnect.
func TLSConnection(
	hostname string,
	port uint16,
	opts ...TLSOption,
) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		config, err := tlsConfig(ctx, hostname, opts)
		if err != nil {
			return nil, err
		}

		d := tls.Dialer{Config: config}
		conn, err := d.DialContext(ctx, "tcp", hostPort(hostname, port))
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening TLS connection",
				wrapped: err,
			}
		}
		return packets.NewThreadSafeConn(conn), nil
	}
}

// WebSocketConnection is a ConnectionProvider that connects to an MQTT server
// over a WebSocket (e.g. "ws://localhost:8080/mqtt"). TLS options apply to
// "wss" URLs.
func WebSocketConnection(url string, opts ...TLSOption) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		d := websocket.Dialer{
			Subprotocols:     []string{"mqtt"},
			HandshakeTimeout: 45 * time.Second,
		}
		if len(opts) > 0 {
			config, err := tlsConfig(ctx, "", opts)
			if err != nil {
				return nil, err
			}
			d.TLSClientConfig = config
		}

		ws, res, err := d.DialContext(ctx, url, nil)
		if res != nil && res.Body != nil {
			_ = res.Body.Close()
		}
		if err != nil {
			return nil, &ConnectionError{
				message: "error opening WebSocket connection",
				wrapped: err,
			}
		}
		return &wsConn{Conn: ws}, nil
	}
}

func hostPort(hostname string, port uint16) string {
	return net.JoinHostPort(hostname, fmt.Sprint(port))
}

// Adapts a WebSocket to a net.Conn stream, framing each write as a binary
// message.
type wsConn struct {
	*websocket.Conn
	r  io.Reader
	rm sync.Mutex
	wm sync.Mutex
}

func (c *wsConn) Read(p []byte) (int, error) {
	c.rm.Lock()
	defer c.rm.Unlock()

	for {
		if c.r == nil {
			typ, r, err := c.NextReader()
			if err != nil {
				return 0, err
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			c.r = r
		}

		n, err := c.r.Read(p)
		if err == io.EOF {
			c.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *wsConn) Write(p []byte) (int, error) {
	c.wm.Lock()
	defer c.wm.Unlock()

	if err := c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}
