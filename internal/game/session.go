package game

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	telnetIAC  byte = 255
	telnetDONT byte = 254
	telnetDO   byte = 253
	telnetWONT byte = 252
	telnetWILL byte = 251
	telnetSB   byte = 250
	telnetSE   byte = 240

	telnetOptEcho       byte = 1
	telnetOptSuppressGA byte = 3
	telnetOptLineMode   byte = 34
)

// Session is a telnet connection reduced to line input and string output.
type Session struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

func NewSession(conn net.Conn) *Session {
	s := &Session{conn: conn, reader: bufio.NewReader(conn)}
	_ = s.writeRaw([]byte{
		telnetIAC, telnetWILL, telnetOptSuppressGA,
		telnetIAC, telnetWONT, telnetOptEcho,
		telnetIAC, telnetDONT, telnetOptLineMode,
	})
	return s
}

func (s *Session) writeRaw(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Write(payload)
	return err
}

// WriteString sends msg with bare newlines expanded and IAC bytes escaped.
func (s *Session) WriteString(msg string) error {
	return s.writeRaw(translateForTelnet(msg))
}

func translateForTelnet(msg string) []byte {
	var buf bytes.Buffer
	var prev byte
	for i := 0; i < len(msg); i++ {
		b := msg[i]
		switch b {
		case '\n':
			if prev != '\r' {
				buf.WriteByte('\r')
			}
			buf.WriteByte('\n')
		case telnetIAC:
			buf.WriteByte(telnetIAC)
			buf.WriteByte(telnetIAC)
		default:
			buf.WriteByte(b)
		}
		prev = b
	}
	return buf.Bytes()
}

// ReadLine returns the next input line with telnet negotiation removed.
func (s *Session) ReadLine() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\r':
			if next, err := s.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = s.reader.ReadByte()
			}
			return sanitizeInput(buf.String()), nil
		case '\n':
			return sanitizeInput(buf.String()), nil
		case 0x08, 0x7f:
			if n := buf.Len(); n > 0 {
				buf.Truncate(n - 1)
			}
		case telnetIAC:
			literal, err := s.skipCommand()
			if err != nil {
				return "", err
			}
			if literal {
				buf.WriteByte(telnetIAC)
			}
		default:
			buf.WriteByte(b)
		}
	}
}

// skipCommand consumes one telnet command after IAC. It reports true for an
// escaped IAC data byte.
func (s *Session) skipCommand() (bool, error) {
	cmd, err := s.reader.ReadByte()
	if err != nil {
		return false, err
	}
	switch cmd {
	case telnetIAC:
		return true, nil
	case telnetDO, telnetDONT, telnetWILL, telnetWONT:
		_, err = s.reader.ReadByte()
		return false, err
	case telnetSB:
		for {
			b, err := s.reader.ReadByte()
			if err != nil {
				return false, err
			}
			if b != telnetIAC {
				continue
			}
			next, err := s.reader.ReadByte()
			if err != nil {
				return false, err
			}
			if next == telnetSE {
				return false, nil
			}
		}
	}
	return false, nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// sanitizeInput normalises to NFC and drops control and format runes.
func sanitizeInput(line string) string {
	line = norm.NFC.String(line)
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r), !unicode.IsPrint(r) && r != ' ':
			return -1
		}
		return r
	}, line)
}
