package game

import (
	"errors"
	"fmt"
	"strings"
)

const (
	loginBanner = "+--------------------------------------+\r\n" +
		"|             CLAY CATALOG             |\r\n" +
		"|    a builder port for living worlds  |\r\n" +
		"+--------------------------------------+"
	loginTagline = "Rooms, monsters and objects, one record at a time."
)

var errLoginCancelled = errors.New("login cancelled")

func validateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsAny(name, " \t\r\n./\\:") {
		return fmt.Errorf("name may only contain letters and digits")
	}
	if len(name) > 24 {
		return fmt.Errorf("name must be 24 characters or fewer")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be blank")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

// login walks a connection through sign-in or registration and returns the
// account name.
func login(session *Session, accounts *AccountManager) (string, error) {
	_ = session.WriteString(Ansi("\r\n" + Style(loginBanner, AnsiCyan, AnsiBold) + "\r\n"))
	_ = session.WriteString(Ansi(Style("\r\n"+loginTagline+"\r\n", AnsiGreen)))
	for attempts := 0; attempts < 5; attempts++ {
		_ = session.WriteString("\r\nUsername: ")
		username, err := session.ReadLine()
		if err != nil {
			return "", err
		}
		username = Trim(username)
		if err := validateUsername(username); err != nil {
			_ = session.WriteString(Ansi(Style("\r\n"+err.Error(), AnsiYellow)))
			continue
		}
		if accounts.Exists(username) {
			for tries := 0; tries < 3; tries++ {
				_ = session.WriteString("\r\nPassword: ")
				password, err := session.ReadLine()
				if err != nil {
					return "", err
				}
				if accounts.Authenticate(username, Trim(password)) {
					_ = session.WriteString(Ansi(Style("\r\nWelcome back, "+username+"!", AnsiGreen)))
					return username, nil
				}
				_ = session.WriteString(Ansi(Style("\r\nIncorrect password.", AnsiYellow)))
			}
			_ = session.WriteString("\r\nToo many failed attempts.\r\n")
			return "", fmt.Errorf("authentication failed for %s", username)
		}

		for {
			_ = session.WriteString("\r\nSet a password: ")
			password, err := session.ReadLine()
			if err != nil {
				return "", err
			}
			password = Trim(password)
			if err := validatePassword(password); err != nil {
				_ = session.WriteString(Ansi(Style("\r\n"+err.Error(), AnsiYellow)))
				continue
			}
			if err := accounts.Register(username, password); err != nil {
				_ = session.WriteString(Ansi(Style("\r\n"+err.Error(), AnsiYellow)))
				break
			}
			_ = session.WriteString(Ansi(Style("\r\nAccount created. Welcome, "+username+"!", AnsiGreen)))
			return username, nil
		}
	}
	_ = session.WriteString("\r\nLogin cancelled.\r\n")
	return "", errLoginCancelled
}
