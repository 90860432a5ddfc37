package session

import (
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/chromedp/cdproto"
	"github.com/gorilla/websocket"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

var (
	// DefaultReadBufferSize is the default maximum read buffer size.
	DefaultReadBufferSize = 25 * 1024 * 1024

	// DefaultWriteBufferSize is the default maximum write buffer size.
	DefaultWriteBufferSize = 10 * 1024 * 1024

	// DefaultInboundQueueSize is the capacity of the channel the read loop
	// feeds; Poll drains it, so this only needs to absorb a burst between
	// two Poll calls.
	DefaultInboundQueueSize = 1024
)

// Transport is the connection boundary between the engine and Chrome (spec
// §4.1). A single WebSocket per Transport; no reconnection, no pooling.
type Transport interface {
	// Send enqueues one outbound CDP envelope.
	Send(msg *cdproto.Message) error

	// Inbound is the channel of parsed, classified frames. It is closed
	// when the read loop ends (error or local Close); Err reports why.
	Inbound() <-chan *cdproto.Message

	// Err is valid once Inbound is closed: nil only if Close was called
	// locally before any wire error occurred.
	Err() error

	io.Closer
}

// Conn wraps a gorilla/websocket.Conn, framing, decoding and classifying
// text frames the way chromedp's Conn does. The read buffer is reused
// across frames; the easyjson lexer and writer are reset for every message
// and each inbound frame is decoded into a freshly allocated Message.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	buf     bytes.Buffer
	lexer   jlexer.Lexer
	writer  jwriter.Writer

	inbound chan *cdproto.Message
	done    chan struct{}
	err     error
	errOnce sync.Once

	dbgf func(string, ...interface{})
}

// DialOption configures a dialed Conn.
type DialOption func(*Conn)

// WithConnDebugf sets a func to receive raw wire traffic, one line per
// frame, prefixed "-> " for inbound and "<- " for outbound.
func WithConnDebugf(f func(string, ...interface{})) DialOption {
	return func(c *Conn) { c.dbgf = f }
}

// Dial opens the single WebSocket this engine will use for its lifetime.
func Dial(ctx context.Context, urlstr string, opts ...DialOption) (*Conn, error) {
	d := &websocket.Dialer{
		ReadBufferSize:  DefaultReadBufferSize,
		WriteBufferSize: DefaultWriteBufferSize,
	}
	ws, _, err := d.DialContext(ctx, ForceIP(urlstr), nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		ws:      ws,
		inbound: make(chan *cdproto.Message, DefaultInboundQueueSize),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	go c.readLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer close(c.inbound)
	for {
		typ, r, err := c.ws.NextReader()
		if err != nil {
			c.fail(err)
			return
		}
		if typ != websocket.TextMessage {
			// Pings and pongs are handled by gorilla's framing layer
			// already and never reach here; any other non-text frame
			// (including a binary frame) is unexpected and fatal per
			// spec §4.1.
			c.fail(ErrConnectionClosed)
			return
		}

		c.buf.Reset()
		if _, err := c.buf.ReadFrom(r); err != nil {
			c.fail(err)
			return
		}
		buf := c.buf.Bytes()
		if c.dbgf != nil {
			c.dbgf("-> %s", buf)
		}

		msg := new(cdproto.Message)
		c.lexer = jlexer.Lexer{Data: buf}
		msg.UnmarshalEasyJSON(&c.lexer)
		if err := c.lexer.Error(); err != nil {
			c.fail(ErrProtocolParse)
			return
		}
		// buf is reused by the next ReadFrom; Result/Params reference it
		// directly as easyjson.RawMessage, so copy before handing off.
		msg.Result = append([]byte{}, msg.Result...)
		msg.Params = append([]byte{}, msg.Params...)

		select {
		case c.inbound <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) fail(err error) {
	c.errOnce.Do(func() { c.err = err })
}

// Send writes one message. Safe to call concurrently with itself and with
// the read loop; gorilla/websocket requires external synchronization for
// concurrent writers, which writeMu provides.
func (c *Conn) Send(msg *cdproto.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	w, err := c.ws.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	defer w.Close()

	c.writer = jwriter.Writer{}
	msg.MarshalEasyJSON(&c.writer)
	if err := c.writer.Error; err != nil {
		return err
	}
	if c.dbgf != nil {
		buf, _ := c.writer.BuildBytes()
		c.dbgf("<- %s", buf)
		_, err = w.Write(buf)
		return err
	}
	_, err = c.writer.DumpTo(w)
	return err
}

func (c *Conn) Inbound() <-chan *cdproto.Message { return c.inbound }

func (c *Conn) Err() error { return c.err }

// Close closes the underlying WebSocket. Any blocked readLoop will observe
// the resulting error and close Inbound and done; if no wire error has
// happened yet, Err will report nil, distinguishing a locally-initiated
// close from a connection failure.
func (c *Conn) Close() error {
	// Settle Err as nil unless a wire error was already recorded, so the
	// read error caused by this close is not reported as a failure.
	c.errOnce.Do(func() {})
	return c.ws.Close()
}

// ForceIP forces the host component in urlstr to be an IP address, since
// Chrome 66+ rejects WebSocket upgrades whose Host header isn't an IP or
// "localhost".
func ForceIP(urlstr string) string {
	i := strings.Index(urlstr, "://")
	if i == -1 {
		return urlstr
	}
	scheme := urlstr[:i+3]
	host, port, path := urlstr[len(scheme):], "", ""
	if j := strings.Index(host, "/"); j != -1 {
		host, path = host[:j], host[j:]
	}
	if j := strings.Index(host, ":"); j != -1 {
		host, port = host[:j], host[j:]
	}
	if host == "localhost" {
		return urlstr
	}
	if addr, err := net.ResolveIPAddr("ip", host); err == nil {
		return scheme + addr.IP.String() + port + path
	}
	return urlstr
}
