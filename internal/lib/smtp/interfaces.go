// Package smtp отправляет письма через SMTP-сервер с STARTTLS.
package smtp

import "io"

// Client часть *smtp.Client, нужная для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface устанавливает соединение с SMTP-сервером.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
