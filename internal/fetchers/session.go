package fetchers

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"time"

	"github.com/jlaffaye/ftp"
)

// DefaultPort is the FTP control port used when a host carries none
const DefaultPort = "21"

// TransferCompleteMarker prefixes the status line of a completed RETR
const TransferCompleteMarker = "226"

// Session is the part of an FTP control connection the fetcher needs
type Session interface {
	Login(user, password string) error
	Retr(path string) (Transfer, error)
	Quit() error
}

// Transfer streams one remote file. Finish closes the data connection and
// returns the final status line of the transfer.
type Transfer interface {
	io.Reader
	Finish() (string, error)
}

// Dialer opens a Session to addr
type Dialer func(ctx context.Context, addr string) (Session, error)

// FTPDialer returns a Dialer backed by github.com/jlaffaye/ftp.
// A zero timeout leaves the dial unbounded apart from ctx.
func FTPDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, addr string) (Session, error) {
		opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
		if timeout > 0 {
			opts = append(opts, ftp.DialWithTimeout(timeout))
		}
		conn, err := ftp.Dial(addr, opts...)
		if err != nil {
			return nil, err
		}
		return &ftpSession{conn: conn}, nil
	}
}

type ftpSession struct {
	conn *ftp.ServerConn
}

func (s *ftpSession) Login(user, password string) error {
	return s.conn.Login(user, password)
}

func (s *ftpSession) Retr(path string) (Transfer, error) {
	resp, err := s.conn.Retr(path)
	if err != nil {
		return nil, err
	}
	return &ftpTransfer{resp: resp}, nil
}

func (s *ftpSession) Quit() error {
	return s.conn.Quit()
}

type ftpTransfer struct {
	resp *ftp.Response
}

func (t *ftpTransfer) Read(p []byte) (int, error) {
	return t.resp.Read(p)
}

// Finish maps the closing reply of the data connection to a status line.
// The library only surfaces the reply text when it is not a 226.
func (t *ftpTransfer) Finish() (string, error) {
	err := t.resp.Close()
	if err == nil {
		return TransferCompleteMarker + " Transfer complete", nil
	}
	var te *textproto.Error
	if errors.As(err, &te) {
		return te.Error(), nil
	}
	return "", err
}

// address appends the default FTP port when host has none
func address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, DefaultPort)
}
